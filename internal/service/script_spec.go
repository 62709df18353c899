package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/telnetscriptpro/telnetscriptpro/pkg/telnet"
)

// StepSpec 步骤的序列化形状：超时与延时以浮点秒表达，持久化与接口
// 传输都用这个结构，引擎内部再换算为 time.Duration
type StepSpec struct {
	Command    string            `json:"command"`
	Expect     string            `json:"expect,omitempty"`
	TimeoutSec float64           `json:"timeout,omitempty"`
	DelaySec   float64           `json:"delay,omitempty"`
	Condition  *telnet.Condition `json:"condition,omitempty"`
	StopOnFail bool              `json:"stop_on_fail,omitempty"`
}

// ToStep 换算为引擎步骤；未设置的超时留零由引擎取默认值
func (s StepSpec) ToStep() telnet.Step {
	return telnet.Step{
		Command:    s.Command,
		Expect:     s.Expect,
		Timeout:    secondsToDuration(s.TimeoutSec),
		Delay:      secondsToDuration(s.DelaySec),
		Condition:  s.Condition,
		StopOnFail: s.StopOnFail,
	}
}

func secondsToDuration(sec float64) time.Duration {
	if sec <= 0 {
		return 0
	}
	return time.Duration(sec * float64(time.Second))
}

// ScriptRequest 一次脚本任务的完整描述
type ScriptRequest struct {
	Host     string            `json:"host" binding:"required"`
	Port     int               `json:"port,omitempty"`
	Protocol string            `json:"protocol,omitempty"` // telnet | ssh，默认 telnet
	Charset  string            `json:"charset,omitempty"`
	Login    *telnet.LoginSpec `json:"login,omitempty"`
	Steps    []StepSpec        `json:"steps" binding:"required"`
}

// Validate 基础校验
func (r *ScriptRequest) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("host is required")
	}
	if len(r.Steps) == 0 {
		return fmt.Errorf("steps must not be empty")
	}
	proto := strings.ToLower(strings.TrimSpace(r.Protocol))
	if proto != "" && proto != "telnet" && proto != "ssh" {
		return fmt.Errorf("unsupported protocol: %s", r.Protocol)
	}
	if proto == "ssh" && r.Login == nil {
		return fmt.Errorf("ssh protocol requires login credentials")
	}
	return nil
}

// ToSteps 批量换算
func (r *ScriptRequest) ToSteps() []telnet.Step {
	steps := make([]telnet.Step, 0, len(r.Steps))
	for _, s := range r.Steps {
		steps = append(steps, s.ToStep())
	}
	return steps
}

// StepsJSON 步骤列表的持久化文本
func (r *ScriptRequest) StepsJSON() string {
	b, err := json.Marshal(r.Steps)
	if err != nil {
		return "[]"
	}
	return string(b)
}
