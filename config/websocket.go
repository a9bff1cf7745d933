package config

import (
	"errors"
	"strings"
	"time"
)

// WebSocketConfig 跨进程桥接传输配置
type WebSocketConfig struct {
	// Enable 是否启用桥接服务
	Enable bool `json:"enable"`

	// ListenAddr 监听地址
	ListenAddr string `json:"listen_addr"`

	// Path 升级路径
	Path string `json:"path"`

	// ReadLimit 单帧最大字节数
	ReadLimit int64 `json:"read_limit"`

	// WriteTimeout 写超时
	WriteTimeout Duration `json:"write_timeout"`

	// HandshakeTimeout 握手超时
	HandshakeTimeout Duration `json:"handshake_timeout"`
}

// DefaultWebSocketConfig 返回默认桥接配置
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		Enable:           false,
		ListenAddr:       "127.0.0.1:7420",
		Path:             "/msgproxy",
		ReadLimit:        1 << 20,
		WriteTimeout:     Duration(10 * time.Second),
		HandshakeTimeout: Duration(5 * time.Second),
	}
}

// Validate 验证桥接配置
func (c WebSocketConfig) Validate() error {
	if !c.Enable {
		return nil
	}
	if c.ListenAddr == "" {
		return errors.New("listen address is empty")
	}
	if !strings.HasPrefix(c.Path, "/") {
		return errors.New("path must start with /")
	}
	if c.ReadLimit <= 0 {
		return errors.New("read limit must be positive")
	}
	if c.WriteTimeout <= 0 || c.HandshakeTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}
