package telnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoginSuccess 标准两段提示符登录：login: → 用户名 → Password: → 密码 → $
func TestLoginSuccess(t *testing.T) {
	stream := newFakeStream("login:", map[string]string{
		"admin":  "Password:",
		"secret": "Last login: yesterday\r\n$ ",
	})
	s := newFakeSession(t, stream)
	defer s.Close()

	ok := s.Login(LoginSpec{Username: "admin", Password: "secret"})
	assert.True(t, ok, "成功标志出现时登录应成功")
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, []string{"admin", "secret"}, stream.sentLines())
}

// TestLoginDenied 最终应答不含成功标志时登录失败，不上抛
func TestLoginDenied(t *testing.T) {
	stream := newFakeStream("login:", map[string]string{
		"admin": "Password:",
		"wrong": "Denied",
	})
	stream.closeAfter = "wrong"
	s := newFakeSession(t, stream)
	defer s.Close()

	ok := s.Login(LoginSpec{Username: "admin", Password: "wrong"})
	assert.False(t, ok)
	assert.NotEqual(t, StateAuthenticated, s.State())
}

// TestLoginCustomPrompts 自定义提示符与成功标志
func TestLoginCustomPrompts(t *testing.T) {
	stream := newFakeStream("Username:", map[string]string{
		"cisco":    "Password:",
		"cisco123": "router#",
	})
	s := newFakeSession(t, stream)
	defer s.Close()

	ok := s.Login(LoginSpec{
		Username:       "cisco",
		Password:       "cisco123",
		UsernamePrompt: "Username:",
		SuccessPattern: "#",
	})
	assert.True(t, ok)
}

// TestLoginNotConnected 未连接登录转换为 false，而非错误外泄
func TestLoginNotConnected(t *testing.T) {
	s := NewSession(&Config{Host: "127.0.0.1"})
	require.NotPanics(t, func() {
		assert.False(t, s.Login(LoginSpec{Username: "a", Password: "b"}))
	})
}
