package telnet

import (
	"bytes"
	"errors"
	"strings"
	"time"

	"github.com/telnetscriptpro/telnetscriptpro/internal/util"
	"github.com/telnetscriptpro/telnetscriptpro/pkg/logger"
)

// State 会话状态机：Disconnected → Connected → Authenticated → Closed
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrNotConnected 未连接时调用了需要连接的操作，属调用方契约错误
var ErrNotConnected = errors.New("telnet: not connected")

const (
	// DefaultStepTimeout 步骤级等待默认超时
	DefaultStepTimeout = 5 * time.Second
	// DefaultWaitTimeout 独立 Expect 等待默认超时（登录流程使用）
	DefaultWaitTimeout = 10 * time.Second
	// settleDelay 无模式读取前的静默等待，给远端输出留出到达时间
	settleDelay = 500 * time.Millisecond
	// readPoll Expect 循环的单次读取窗口
	readPoll = 100 * time.Millisecond
	// drainPoll ReadAvailable 排空缓冲时的单次读取窗口
	drainPoll = 20 * time.Millisecond
)

// Session 驱动单个交互式会话。Transport 由 Session 独占：连接的打开与关闭
// 只发生在这里。所有方法都是阻塞的，必须从同一个调用方 goroutine 串行使用。
type Session struct {
	cfg   *Config
	dial  DialFunc
	tr    Transport
	state State
}

// NewSession 创建使用默认 TCP 拨号的会话
func NewSession(cfg *Config) *Session {
	return NewSessionWithDialer(cfg, DialTCP)
}

// NewSessionWithDialer 创建使用自定义拨号的会话（SSH 流或测试桩）
func NewSessionWithDialer(cfg *Config, dial DialFunc) *Session {
	return &Session{cfg: cfg, dial: dial, state: StateDisconnected}
}

// State 当前会话状态
func (s *Session) State() State {
	return s.state
}

// Open 建立连接。连接失败返回 false 并记录日志，由调用方决定是否继续
func (s *Session) Open() bool {
	if s.tr != nil {
		return true
	}
	tr, err := s.dial(s.cfg)
	if err != nil {
		logger.Errorf("connection to %s failed: %v", s.cfg.Addr(), err)
		return false
	}
	s.tr = tr
	s.state = StateConnected
	if s.cfg.Debug {
		logger.Debugf("connected to %s", s.cfg.Addr())
	}
	return true
}

// Close 关闭连接。可重复调用，从未打开过也安全
func (s *Session) Close() {
	if s.tr != nil {
		_ = s.tr.Close()
		s.tr = nil
		if s.cfg.Debug {
			logger.Debug("disconnected")
		}
	}
	s.state = StateClosed
}

// SendLine 追加单个换行符并按配置字符集编码写入
func (s *Session) SendLine(text string) error {
	if s.tr == nil {
		return ErrNotConnected
	}
	if s.cfg.Debug {
		logger.Debugf("sending command: %s", text)
	}
	payload := append(util.EncodeCharset(text, s.cfg.Charset), '\n')
	if _, err := s.tr.Write(payload); err != nil {
		return err
	}
	return nil
}

// Expect 读取累积的流数据直到 pattern 以子串形式出现、超时或流关闭。
// 返回到命中为止累积的全部解码文本；超时与流关闭都表现为 found=false 加
// 已读到的部分内容，不作为错误上抛。空 pattern 永不命中。
func (s *Session) Expect(pattern string, timeout time.Duration) (string, bool, error) {
	if s.tr == nil {
		return "", false, ErrNotConnected
	}
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	deadline := time.Now().Add(timeout)
	var buf bytes.Buffer
	for {
		// 每轮先查缓冲再阻塞读取，保证已到达的数据能立即命中
		text := util.DecodeCharset(buf.Bytes(), s.cfg.Charset)
		if pattern != "" && strings.Contains(text, pattern) {
			if s.cfg.Debug {
				logger.Debugf("pattern %q found", pattern)
			}
			return text, true, nil
		}
		remain := time.Until(deadline)
		if remain <= 0 {
			logger.Warnf("pattern %q not found within %s", pattern, timeout)
			return text, false, nil
		}
		poll := readPoll
		if remain < poll {
			poll = remain
		}
		chunk, err := s.tr.ReadWithTimeout(poll)
		if len(chunk) > 0 {
			buf.Write(chunk)
		}
		if err != nil {
			// 流关闭或读错误：等同超时未命中，返回已读部分
			text = util.DecodeCharset(buf.Bytes(), s.cfg.Charset)
			if pattern != "" && strings.Contains(text, pattern) {
				return text, true, nil
			}
			logger.Warnf("stream ended while waiting for %q: %v", pattern, err)
			return text, false, nil
		}
	}
}

// SendLineAndWait 发送一行并等待模式。未命中时对调用方返回空串（而非部分
// 缓冲），found 保留“请求了模式但未命中”与“未请求模式”的区别供上层记录
func (s *Session) SendLineAndWait(text, pattern string, timeout time.Duration) (string, bool, error) {
	if err := s.SendLine(text); err != nil {
		return "", false, err
	}
	resp, found, err := s.Expect(pattern, timeout)
	if err != nil {
		return "", false, err
	}
	if !found {
		logger.Warnf("expected pattern %q not found after command %q", pattern, text)
		return "", false, nil
	}
	return resp, true, nil
}

// ReadAvailable 静默等待后读尽当前已到达的输出，不要求任何模式
func (s *Session) ReadAvailable() (string, error) {
	if s.tr == nil {
		return "", ErrNotConnected
	}
	time.Sleep(settleDelay)
	var buf bytes.Buffer
	for {
		chunk, err := s.tr.ReadWithTimeout(drainPoll)
		if len(chunk) > 0 {
			buf.Write(chunk)
		}
		if err != nil || len(chunk) == 0 {
			break
		}
	}
	resp := util.DecodeCharset(buf.Bytes(), s.cfg.Charset)
	if s.cfg.Debug {
		logger.Debugf("response: %s", resp)
	}
	return resp, nil
}
