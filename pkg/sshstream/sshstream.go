// Package sshstream 把 SSH PTY shell 适配成会话引擎的 Transport，
// 使同一套脚本既能驱动 telnet 目标也能驱动 SSH 目标
package sshstream

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/telnetscriptpro/telnetscriptpro/pkg/telnet"
)

// ConnectionInfo SSH连接信息
type ConnectionInfo struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Dial 建立 SSH 连接并打开 PTY shell，包装为 telnet.Transport
func Dial(info *ConnectionInfo, timeout time.Duration) (telnet.Transport, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sshConfig := &ssh.ClientConfig{
		User:            info.Username,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
		Config: ssh.Config{
			// 兼容旧设备的密钥交换与加密算法
			KeyExchanges: []string{
				"diffie-hellman-group14-sha256",
				"diffie-hellman-group14-sha1",
				"diffie-hellman-group1-sha1",
				"diffie-hellman-group-exchange-sha256",
				"ecdh-sha2-nistp256",
				"ecdh-sha2-nistp384",
				"ecdh-sha2-nistp521",
			},
			Ciphers: []string{
				"aes128-ctr", "aes192-ctr", "aes256-ctr",
				"aes128-gcm@openssh.com", "aes256-gcm@openssh.com",
				"aes128-cbc", "3des-cbc",
			},
		},
		HostKeyAlgorithms: []string{
			"ssh-rsa", "rsa-sha2-256", "rsa-sha2-512",
			"ecdsa-sha2-nistp256", "ecdsa-sha2-nistp384", "ecdsa-sha2-nistp521",
			"ssh-ed25519",
		},
	}

	if info.Password != "" {
		// 同时尝试 password 与 keyboard-interactive，提高设备兼容性
		sshConfig.Auth = []ssh.AuthMethod{
			ssh.Password(info.Password),
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = info.Password
				}
				return answers, nil
			}),
		}
	}

	port := info.Port
	if port < 1 || port > 65535 {
		port = 22
	}
	address := fmt.Sprintf("%s:%d", info.Host, port)

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, sshConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create SSH connection: %w", err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// 启用回显，兼容网络设备 CLI；终端类型按 vt100→xterm→ansi→dumb 回退
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	var ptyErr error
	for _, term := range []string{"vt100", "xterm", "ansi", "dumb"} {
		if ptyErr = session.RequestPty(term, 80, 24, modes); ptyErr == nil {
			break
		}
	}
	if ptyErr != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("failed to request pty: %w", ptyErr)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("failed to get stdin: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("failed to get stdout: %w", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	st := &stream{
		client:  client,
		session: session,
		stdin:   stdin,
		readCh:  make(chan []byte, 64),
	}
	go st.readLoop(stdout)
	return st, nil
}

// Dialer 返回可注入会话引擎的拨号函数；目标主机与端口缺省取会话配置
func Dialer(info *ConnectionInfo) telnet.DialFunc {
	return func(cfg *telnet.Config) (telnet.Transport, error) {
		target := *info
		if target.Host == "" {
			target.Host = cfg.Host
		}
		if target.Port == 0 {
			target.Port = cfg.Port
		}
		return Dial(&target, cfg.ConnectTimeout)
	}
}

// stream SSH shell 的 Transport 适配。stdout 没有截止时间语义，
// 由后台读取协程搬运到通道，ReadWithTimeout 对通道做超时选择
type stream struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	readCh  chan []byte

	mu      sync.Mutex
	readErr error
	once    sync.Once
}

func (s *stream) readLoop(stdout io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.readCh <- chunk
		}
		if err != nil {
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			close(s.readCh)
			return
		}
	}
}

func (s *stream) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

func (s *stream) ReadWithTimeout(d time.Duration) ([]byte, error) {
	select {
	case chunk, ok := <-s.readCh:
		if !ok {
			s.mu.Lock()
			err := s.readErr
			s.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			return nil, err
		}
		return chunk, nil
	case <-time.After(d):
		return nil, nil
	}
}

func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		_ = s.stdin.Close()
		_ = s.session.Close()
		err = s.client.Close()
	})
	return err
}
