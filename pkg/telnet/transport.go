package telnet

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// Transport 底层字节流抽象：连接的建立方（TCP、SSH 或测试桩）负责协议细节，
// 会话引擎只依赖带超时的读写与关闭
type Transport interface {
	Write(p []byte) (int, error)
	// ReadWithTimeout 在给定窗口内读取可用字节；窗口内无数据时返回 (nil, nil)，
	// 连接关闭或底层错误时返回非空 error
	ReadWithTimeout(d time.Duration) ([]byte, error)
	Close() error
}

// DialFunc 根据会话配置建立 Transport
type DialFunc func(cfg *Config) (Transport, error)

// Config 会话配置；会话启动后不再修改
type Config struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Charset        string        `mapstructure:"charset"`
	Debug          bool          `mapstructure:"debug"`
}

func (c *Config) port() int {
	if c.Port > 0 && c.Port <= 65535 {
		return c.Port
	}
	return 23
}

func (c *Config) connectTimeout() time.Duration {
	if c.ConnectTimeout > 0 {
		return c.ConnectTimeout
	}
	return 10 * time.Second
}

// Addr 目标地址 host:port
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.port())
}

// DialTCP 默认的 TCP 拨号实现
func DialTCP(cfg *Config) (Transport, error) {
	dialer := &net.Dialer{Timeout: cfg.connectTimeout()}
	conn, err := dialer.Dial("tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.Addr(), err)
	}
	return &tcpTransport{conn: conn}, nil
}

// tcpTransport 基于 net.Conn 的 Transport，用读截止时间实现带超时读取
type tcpTransport struct {
	conn net.Conn
}

func (t *tcpTransport) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

func (t *tcpTransport) ReadWithTimeout(d time.Duration) ([]byte, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(d)); err != nil {
		return nil, err
	}
	buf := make([]byte, 4096)
	n, err := t.conn.Read(buf)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			// 窗口内无数据，静默超时
			if n > 0 {
				return buf[:n], nil
			}
			return nil, nil
		}
		if n > 0 {
			return buf[:n], err
		}
		return nil, err
	}
	return buf[:n], nil
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}
