package telnet

import (
	"strings"

	"github.com/telnetscriptpro/telnetscriptpro/pkg/logger"
)

// LoginSpec 两段提示符登录描述。提示符与成功标志为空时使用传统默认值
type LoginSpec struct {
	Username       string `mapstructure:"username" json:"username"`
	Password       string `mapstructure:"password" json:"password"`
	UsernamePrompt string `mapstructure:"username_prompt" json:"username_prompt,omitempty"`
	PasswordPrompt string `mapstructure:"password_prompt" json:"password_prompt,omitempty"`
	SuccessPattern string `mapstructure:"success_pattern" json:"success_pattern,omitempty"`
}

func (l LoginSpec) withDefaults() LoginSpec {
	if l.UsernamePrompt == "" {
		l.UsernamePrompt = "login:"
	}
	if l.PasswordPrompt == "" {
		l.PasswordPrompt = "Password:"
	}
	if l.SuccessPattern == "" {
		l.SuccessPattern = "$"
	}
	return l
}

// Login 执行登录握手：等用户名提示→发用户名→等密码提示→发密码→等成功标志。
// 仅当最后一次等待的文本包含成功标志才算成功。登录失败是预期内的正常结果，
// 任何子步骤的故障都转换为 false 加日志，不向外传播
func (s *Session) Login(spec LoginSpec) bool {
	spec = spec.withDefaults()

	if _, _, err := s.Expect(spec.UsernamePrompt, DefaultWaitTimeout); err != nil {
		logger.Errorf("login error: %v", err)
		return false
	}
	if err := s.SendLine(spec.Username); err != nil {
		logger.Errorf("login error: %v", err)
		return false
	}

	if _, _, err := s.Expect(spec.PasswordPrompt, DefaultWaitTimeout); err != nil {
		logger.Errorf("login error: %v", err)
		return false
	}
	if err := s.SendLine(spec.Password); err != nil {
		logger.Errorf("login error: %v", err)
		return false
	}

	resp, _, err := s.Expect(spec.SuccessPattern, DefaultWaitTimeout)
	if err != nil {
		logger.Errorf("login error: %v", err)
		return false
	}
	if strings.Contains(resp, spec.SuccessPattern) {
		s.state = StateAuthenticated
		if s.cfg.Debug {
			logger.Debug("login successful")
		}
		return true
	}
	logger.Errorf("login failed: success pattern %q not observed", spec.SuccessPattern)
	return false
}
