package config

import (
	"errors"
	"fmt"
)

// ValidateAll 验证整个配置的有效性
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并修复常见问题
//
// 可修复的问题：
//   - 非正的超时 -> 使用默认值
//   - 非正的缓存大小 -> 使用默认值
//   - 空的上下文名称 / 日志级别 / 格式 -> 使用默认值
//   - 桥接路径缺少前导 "/" -> 补齐
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	proxyDefaults := DefaultProxyConfig()
	if c.Proxy.ContextName == "" {
		c.Proxy.ContextName = proxyDefaults.ContextName
	}
	if c.Proxy.DefaultTimeout <= 0 {
		c.Proxy.DefaultTimeout = proxyDefaults.DefaultTimeout
	}
	if c.Proxy.HandlerTimeout <= 0 {
		c.Proxy.HandlerTimeout = proxyDefaults.HandlerTimeout
	}
	if c.Proxy.SettledCacheSize <= 0 {
		c.Proxy.SettledCacheSize = proxyDefaults.SettledCacheSize
	}

	wsDefaults := DefaultWebSocketConfig()
	if c.WebSocket.Path == "" {
		c.WebSocket.Path = wsDefaults.Path
	} else if c.WebSocket.Path[0] != '/' {
		c.WebSocket.Path = "/" + c.WebSocket.Path
	}
	if c.WebSocket.ReadLimit <= 0 {
		c.WebSocket.ReadLimit = wsDefaults.ReadLimit
	}
	if c.WebSocket.WriteTimeout <= 0 {
		c.WebSocket.WriteTimeout = wsDefaults.WriteTimeout
	}
	if c.WebSocket.HandshakeTimeout <= 0 {
		c.WebSocket.HandshakeTimeout = wsDefaults.HandshakeTimeout
	}

	logDefaults := DefaultLogConfig()
	if c.Log.Level == "" {
		c.Log.Level = logDefaults.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = logDefaults.Format
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}
	return c, nil
}

// MustValidate 验证配置，失败则 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := ValidateAll(c); err != nil {
		panic(err)
	}
}
