package telnet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeDialer(stream *fakeStream) DialFunc {
	return func(*Config) (Transport, error) { return stream, nil }
}

// TestBuilderRunFullScript 连接→登录→执行→断开 的完整链路
func TestBuilderRunFullScript(t *testing.T) {
	stream := newFakeStream("login:", map[string]string{
		"admin":        "Password:",
		"secret":       "$ ",
		"show version": "Version 15.2\r\n$ ",
		"exit":         "goodbye $",
	})

	results, err := NewScriptBuilder(&Config{Host: "10.0.0.1"}).
		WithDialer(fakeDialer(stream)).
		WithLogin(LoginSpec{Username: "admin", Password: "secret"}).
		AddCommand("show version", "$").
		AddCondition(ConditionContains, "Version", true).
		AddCommand("exit", "$").
		Run()

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, results[0], "Version 15.2")
	assert.True(t, stream.closed, "运行结束后必须关闭连接")
}

// TestBuilderConnectFailure 连接失败产生空结果与哨兵错误，不得 panic
func TestBuilderConnectFailure(t *testing.T) {
	results, err := NewScriptBuilder(&Config{Host: "192.0.2.1"}).
		WithDialer(func(*Config) (Transport, error) { return nil, assert.AnError }).
		AddCommand("show version", "#").
		Run()

	assert.ErrorIs(t, err, ErrConnectFailed)
	assert.Empty(t, results)
}

// TestBuilderLoginFailureAborts 登录失败中止整个运行，结果为空且连接被关闭
func TestBuilderLoginFailureAborts(t *testing.T) {
	stream := newFakeStream("login:", map[string]string{
		"admin": "Password:",
		"wrong": "Denied",
	})
	stream.closeAfter = "wrong"

	results, err := NewScriptBuilder(&Config{Host: "10.0.0.1"}).
		WithDialer(fakeDialer(stream)).
		WithLogin(LoginSpec{Username: "admin", Password: "wrong"}).
		AddCommand("show version", "$").
		Run()

	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.Empty(t, results)
	assert.True(t, stream.closed)
	assert.NotContains(t, stream.sentLines(), "show version", "登录失败后不得执行脚本")
}

// TestBuilderStepModifiers WithTimeout/WithDelay/AddCondition 作用于最近一步
func TestBuilderStepModifiers(t *testing.T) {
	b := NewScriptBuilder(&Config{Host: "10.0.0.1"}).
		AddCommand("show run", "#").
		WithTimeout(3 * time.Second).
		WithDelay(100 * time.Millisecond).
		AddCondition(ConditionNotContains, "ERROR", true)

	require.Len(t, b.steps, 1)
	step := b.steps[0]
	assert.Equal(t, 3*time.Second, step.Timeout)
	assert.Equal(t, 100*time.Millisecond, step.Delay)
	require.NotNil(t, step.Condition)
	assert.Equal(t, ConditionNotContains, step.Condition.Kind)
	assert.True(t, step.StopOnFail)

	// 空步骤列表上的修饰调用是无害的空操作
	assert.NotPanics(t, func() {
		NewScriptBuilder(&Config{Host: "x"}).WithTimeout(time.Second).AddCondition(ConditionContains, "p", false)
	})
}

// TestBuilderNoLogin 未配置登录时直接执行脚本
func TestBuilderNoLogin(t *testing.T) {
	stream := newFakeStream("", map[string]string{
		"uptime": "up 3 days\r\n$ ",
	})

	results, err := NewScriptBuilder(&Config{Host: "10.0.0.1"}).
		WithDialer(fakeDialer(stream)).
		AddCommand("uptime", "$").
		Run()

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "up 3 days")
}
