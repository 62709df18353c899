package telnet

import (
	"errors"
	"time"
)

var (
	// ErrConnectFailed 连接无法建立；结果序列为空
	ErrConnectFailed = errors.New("telnet: connect failed")
	// ErrLoginFailed 登录流程未完成；结果序列为空
	ErrLoginFailed = errors.New("telnet: login failed")
)

// ScriptBuilder 链式装配步骤与可选登录描述，Run 一次性完成
// 连接→登录（若配置）→执行→断开。断开在所有退出路径上保证执行
type ScriptBuilder struct {
	session *Session
	steps   []Step
	login   *LoginSpec
}

// NewScriptBuilder 创建使用默认 TCP 拨号的脚本构建器
func NewScriptBuilder(cfg *Config) *ScriptBuilder {
	return &ScriptBuilder{session: NewSession(cfg)}
}

// WithDialer 替换底层拨号实现（SSH 流或测试桩）
func (b *ScriptBuilder) WithDialer(dial DialFunc) *ScriptBuilder {
	b.session.dial = dial
	return b
}

// AddStep 追加一个完整描述的步骤
func (b *ScriptBuilder) AddStep(step Step) *ScriptBuilder {
	b.steps = append(b.steps, step)
	return b
}

// AddCommand 追加命令步骤；expect 为空表示发送后读尽可用输出
func (b *ScriptBuilder) AddCommand(command, expect string) *ScriptBuilder {
	return b.AddStep(Step{Command: command, Expect: expect})
}

// WithTimeout 设置最近一步的等待超时
func (b *ScriptBuilder) WithTimeout(d time.Duration) *ScriptBuilder {
	if n := len(b.steps); n > 0 {
		b.steps[n-1].Timeout = d
	}
	return b
}

// WithDelay 设置最近一步的发送前停顿
func (b *ScriptBuilder) WithDelay(d time.Duration) *ScriptBuilder {
	if n := len(b.steps); n > 0 {
		b.steps[n-1].Delay = d
	}
	return b
}

// AddCondition 给最近一步附加条件；stopOnFail 标记该步为致命步骤
func (b *ScriptBuilder) AddCondition(kind ConditionKind, pattern string, stopOnFail bool) *ScriptBuilder {
	if n := len(b.steps); n > 0 {
		b.steps[n-1].Condition = &Condition{Kind: kind, Pattern: pattern}
		b.steps[n-1].StopOnFail = stopOnFail
	}
	return b
}

// WithLogin 配置登录描述；每个会话至多一个
func (b *ScriptBuilder) WithLogin(spec LoginSpec) *ScriptBuilder {
	b.login = &spec
	return b
}

// Run 执行装配好的脚本。连接失败与登录失败都产生空结果序列加对应的
// 哨兵错误，脚本化调用方可以统一把“无结果”当作失败信号
func (b *ScriptBuilder) Run() ([]string, error) {
	if !b.session.Open() {
		return nil, ErrConnectFailed
	}
	defer b.session.Close()

	if b.login != nil {
		if !b.session.Login(*b.login) {
			return nil, ErrLoginFailed
		}
	}

	return b.session.ExecuteScript(b.steps)
}
