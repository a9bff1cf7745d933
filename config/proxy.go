package config

import (
	"errors"
	"time"
)

// ProxyConfig 消息代理配置
type ProxyConfig struct {
	// ContextName 本执行上下文名称，用于日志和指标
	ContextName string `json:"context_name"`

	// DefaultTimeout 出站请求默认超时
	DefaultTimeout Duration `json:"default_timeout"`

	// HandlerTimeout 入站请求处理超时
	HandlerTimeout Duration `json:"handler_timeout"`

	// SettledCacheSize 记住最近已结束请求 ID 的数量
	SettledCacheSize int `json:"settled_cache_size"`
}

// DefaultProxyConfig 返回默认代理配置
func DefaultProxyConfig() ProxyConfig {
	return ProxyConfig{
		ContextName:      "background",
		DefaultTimeout:   Duration(5 * time.Second),
		HandlerTimeout:   Duration(30 * time.Second),
		SettledCacheSize: 1024,
	}
}

// Validate 验证代理配置
func (c ProxyConfig) Validate() error {
	if c.DefaultTimeout <= 0 {
		return errors.New("default timeout must be positive")
	}
	if c.HandlerTimeout <= 0 {
		return errors.New("handler timeout must be positive")
	}
	if c.SettledCacheSize <= 0 {
		return errors.New("settled cache size must be positive")
	}
	return nil
}

// WithContextName 设置上下文名称
func (c ProxyConfig) WithContextName(name string) ProxyConfig {
	c.ContextName = name
	return c
}

// WithDefaultTimeout 设置默认超时
func (c ProxyConfig) WithDefaultTimeout(d time.Duration) ProxyConfig {
	c.DefaultTimeout = Duration(d)
	return c
}
