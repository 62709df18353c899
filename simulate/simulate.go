// Package simulate 提供一个进程内的行式终端模拟服务：按经典的
// login:/Password: 握手应答，并用预置的命令表回应后续输入。
// 集成测试与演示环境用它代替真实设备。
package simulate

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/telnetscriptpro/telnetscriptpro/pkg/logger"
)

// Options 模拟设备的行为描述
type Options struct {
	Listen         string            `mapstructure:"listen"`
	Username       string            `mapstructure:"username"`
	Password       string            `mapstructure:"password"`
	Banner         string            `mapstructure:"banner"`
	UsernamePrompt string            `mapstructure:"username_prompt"`
	PasswordPrompt string            `mapstructure:"password_prompt"`
	Prompt         string            `mapstructure:"prompt"`
	DenyMessage    string            `mapstructure:"deny_message"`
	Responses      map[string]string `mapstructure:"responses"`
}

func (o *Options) withDefaults() {
	if o.Listen == "" {
		o.Listen = "127.0.0.1:0"
	}
	if o.UsernamePrompt == "" {
		o.UsernamePrompt = "login:"
	}
	if o.PasswordPrompt == "" {
		o.PasswordPrompt = "Password:"
	}
	if o.Prompt == "" {
		o.Prompt = "$ "
	}
	if o.DenyMessage == "" {
		o.DenyMessage = "Denied"
	}
}

// LoadConfig 读取 simulate.yaml
func LoadConfig(path string) (*Options, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read simulate config: %w", err)
	}
	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal simulate config: %w", err)
	}
	return &opts, nil
}

// Server 单设备模拟服务，支持多个并发连接
type Server struct {
	opts Options
	ln   net.Listener
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// Start 监听并开始接受连接；Listen 为 ":0" 形式时由系统分配端口
func Start(opts Options) (*Server, error) {
	opts.withDefaults()
	ln, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", opts.Listen, err)
	}
	s := &Server{opts: opts, ln: ln}
	s.wg.Add(1)
	go s.acceptLoop()
	logger.Info("Simulate: server started on ", ln.Addr().String())
	return s, nil
}

// Addr 实际监听地址
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Stop 停止接受连接并等待已有连接结束
func (s *Server) Stop() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	_ = s.ln.Close()
	s.wg.Wait()
	logger.Info("Simulate: server stopped")
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				logger.Warn("Simulate: accept failed: ", err)
			}
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

// handle 驱动一次完整的登录握手与命令循环
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)

	write := func(text string) bool {
		_, err := conn.Write([]byte(text))
		return err == nil
	}
	readLine := func() (string, bool) {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", false
		}
		return strings.TrimRight(line, "\r\n"), true
	}

	if s.opts.Banner != "" {
		if !write(s.opts.Banner + "\r\n") {
			return
		}
	}

	// 登录握手：仅当配置了凭据时要求
	if s.opts.Username != "" {
		if !write(s.opts.UsernamePrompt + " ") {
			return
		}
		user, ok := readLine()
		if !ok {
			return
		}
		if !write(s.opts.PasswordPrompt + " ") {
			return
		}
		pass, ok := readLine()
		if !ok {
			return
		}
		if user != s.opts.Username || pass != s.opts.Password {
			write(s.opts.DenyMessage + "\r\n")
			return
		}
	}

	if !write(s.opts.Prompt) {
		return
	}

	for {
		cmd, ok := readLine()
		if !ok {
			return
		}
		if cmd == "exit" || cmd == "quit" {
			write("logout\r\n" + s.opts.Prompt)
			return
		}
		if out, found := s.opts.Responses[cmd]; found {
			if !write(out + "\r\n" + s.opts.Prompt) {
				return
			}
			continue
		}
		if !write(fmt.Sprintf("%s: command not found\r\n%s", cmd, s.opts.Prompt)) {
			return
		}
	}
}
