package telnet

import (
	"time"

	"github.com/telnetscriptpro/telnetscriptpro/pkg/logger"
)

// Step 脚本中的一个有序交互单元。Command 为空表示纯等待/延时步骤；
// Timeout 为零时使用 DefaultStepTimeout
type Step struct {
	Command    string
	Expect     string
	Timeout    time.Duration
	Delay      time.Duration
	Condition  *Condition
	StopOnFail bool
}

// ExecuteScript 按编写顺序依次执行步骤并收集响应。条件失败只记录警告，
// 除非步骤标记了 StopOnFail——此时立即停止，已收集的前缀原样返回。
// 模式超时不重试：超时产生的空响应与其他响应一样被记录并参与条件求值。
// 返回 error 仅表示调用契约被破坏（例如未连接即执行）
func (s *Session) ExecuteScript(steps []Step) ([]string, error) {
	results := make([]string, 0, len(steps))
	for _, step := range steps {
		if step.Delay > 0 {
			// 发送前的固定停顿，不可取消
			time.Sleep(step.Delay)
		}
		timeout := step.Timeout
		if timeout <= 0 {
			timeout = DefaultStepTimeout
		}

		var resp string
		collected := false
		switch {
		case step.Command != "" && step.Expect != "":
			r, _, err := s.SendLineAndWait(step.Command, step.Expect, timeout)
			if err != nil {
				return results, err
			}
			resp, collected = r, true
		case step.Command != "":
			if err := s.SendLine(step.Command); err != nil {
				return results, err
			}
			r, err := s.ReadAvailable()
			if err != nil {
				return results, err
			}
			resp, collected = r, true
		case step.Expect != "":
			// 纯等待步骤：只等模式，不发送
			r, _, err := s.Expect(step.Expect, timeout)
			if err != nil {
				return results, err
			}
			resp, collected = r, true
		case step.Delay > 0:
			// 纯延时步骤：停顿后读取当前可用输出
			r, err := s.ReadAvailable()
			if err != nil {
				return results, err
			}
			resp, collected = r, true
		}
		if collected {
			results = append(results, resp)
		}

		if step.Condition != nil && !Evaluate(*step.Condition, resp) {
			logger.Warnf("condition failed for command %q", step.Command)
			if step.StopOnFail {
				return results, nil
			}
		}
	}
	return results, nil
}
