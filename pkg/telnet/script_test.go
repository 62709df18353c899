package telnet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExecuteScriptOrder 结果序列与步骤编写顺序一一对应
func TestExecuteScriptOrder(t *testing.T) {
	stream := newFakeStream("", map[string]string{
		"show version":    "Version 15.2\r\nrouter#",
		"show interfaces": "FastEthernet0/0 up\r\nrouter#",
		"show clock":      "12:00:00 UTC\r\nrouter#",
	})
	s := newFakeSession(t, stream)
	defer s.Close()

	results, err := s.ExecuteScript([]Step{
		{Command: "show version", Expect: "#"},
		{Command: "show interfaces", Expect: "#"},
		{Command: "show clock", Expect: "#"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Contains(t, results[0], "Version 15.2")
	assert.Contains(t, results[1], "FastEthernet0/0")
	assert.Contains(t, results[2], "12:00:00")
}

// TestExecuteScriptFatalShortCircuit 致命步骤条件失败后立即停止，
// 已收集的前缀原样返回，后续步骤不再发送
func TestExecuteScriptFatalShortCircuit(t *testing.T) {
	stream := newFakeStream("", map[string]string{
		"step-a": "ok-a\r\n#",
		"step-b": "bad-b\r\n#",
		"step-c": "ok-c\r\n#",
	})
	s := newFakeSession(t, stream)
	defer s.Close()

	results, err := s.ExecuteScript([]Step{
		{Command: "step-a", Expect: "#"},
		{
			Command:    "step-b",
			Expect:     "#",
			Condition:  &Condition{Kind: ConditionContains, Pattern: "good"},
			StopOnFail: true,
		},
		{Command: "step-c", Expect: "#"},
	})
	require.NoError(t, err)
	assert.Len(t, results, 2, "结果应止于致命步骤")
	assert.NotContains(t, stream.sentLines(), "step-c", "致命失败后不得再发送")
}

// TestExecuteScriptNonFatalContinues 非致命条件失败只记录，执行继续
func TestExecuteScriptNonFatalContinues(t *testing.T) {
	stream := newFakeStream("", map[string]string{
		"step-a": "bad\r\n#",
		"step-b": "fine\r\n#",
	})
	s := newFakeSession(t, stream)
	defer s.Close()

	results, err := s.ExecuteScript([]Step{
		{
			Command:   "step-a",
			Expect:    "#",
			Condition: &Condition{Kind: ConditionContains, Pattern: "good"},
		},
		{Command: "step-b", Expect: "#"},
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

// TestExecuteScriptPureWaitStep 空命令带模式的步骤只等待，也贡献一条结果
func TestExecuteScriptPureWaitStep(t *testing.T) {
	stream := newFakeStream("booting...\r\nready>", nil)
	s := newFakeSession(t, stream)
	defer s.Close()

	results, err := s.ExecuteScript([]Step{
		{Expect: "ready>", Timeout: 2 * time.Second},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "ready>")
}

// TestExecuteScriptPureDelayStep 空命令仅延时的步骤停顿后读取可用输出
func TestExecuteScriptPureDelayStep(t *testing.T) {
	stream := newFakeStream("async banner", nil)
	s := newFakeSession(t, stream)
	defer s.Close()

	results, err := s.ExecuteScript([]Step{
		{Delay: 50 * time.Millisecond},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "async banner")
}

// TestExecuteScriptTimeoutRecorded 模式超时不重试：空响应照常记录并参与条件求值
func TestExecuteScriptTimeoutRecorded(t *testing.T) {
	stream := newFakeStream("", map[string]string{
		"slow-cmd": "no prompt here",
	})
	s := newFakeSession(t, stream)
	defer s.Close()

	results, err := s.ExecuteScript([]Step{
		{
			Command:    "slow-cmd",
			Expect:     "#",
			Timeout:    200 * time.Millisecond,
			Condition:  &Condition{Kind: ConditionContains, Pattern: "anything"},
			StopOnFail: true,
		},
		{Command: "never-sent", Expect: "#"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0], "超时步骤记录空响应")
	assert.NotContains(t, stream.sentLines(), "never-sent")
}

// TestExecuteScriptNotConnected 未连接执行按契约错误上抛，已收集结果返回
func TestExecuteScriptNotConnected(t *testing.T) {
	s := NewSession(&Config{Host: "127.0.0.1"})
	results, err := s.ExecuteScript([]Step{{Command: "x", Expect: "#"}})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Empty(t, results)
}
