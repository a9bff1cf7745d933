package proxy

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
)

// 默认值
const (
	// DefaultTimeout 出站请求默认超时
	DefaultTimeout = 5 * time.Second

	// DefaultHandlerTimeout 入站请求处理超时
	DefaultHandlerTimeout = 30 * time.Second

	// DefaultSettledCacheSize 记住最近已结束请求 ID 的数量
	DefaultSettledCacheSize = 1024
)

// Config 代理配置
type Config struct {
	// Timeout 出站请求默认超时
	Timeout time.Duration

	// HandlerTimeout 单个入站请求的处理超时
	HandlerTimeout time.Duration

	// SettledCacheSize 最近已结束请求 ID 缓存大小，用于区分重复响应
	SettledCacheSize int

	// ContextName 本执行上下文名称（日志和指标标签）
	ContextName string

	// Clock 时钟，测试中可替换为 clock.NewMock()
	Clock clock.Clock

	// Registerer 指标注册器；nil 时为每个代理创建独立 Registry
	Registerer prometheus.Registerer

	// CloseTransport Close 时是否一并关闭实现了 io.Closer 的传输
	CloseTransport bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Timeout:          DefaultTimeout,
		HandlerTimeout:   DefaultHandlerTimeout,
		SettledCacheSize: DefaultSettledCacheSize,
		ContextName:      "default",
		Clock:            clock.New(),
		CloseTransport:   true,
	}
}

// Option 配置选项函数
type Option func(*Config)

// WithTimeout 设置默认请求超时
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithHandlerTimeout 设置入站处理超时
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HandlerTimeout = timeout
	}
}

// WithSettledCacheSize 设置已结束请求 ID 缓存大小
func WithSettledCacheSize(size int) Option {
	return func(c *Config) {
		c.SettledCacheSize = size
	}
}

// WithContextName 设置上下文名称
func WithContextName(name string) Option {
	return func(c *Config) {
		c.ContextName = name
	}
}

// WithClock 设置时钟
func WithClock(clk clock.Clock) Option {
	return func(c *Config) {
		c.Clock = clk
	}
}

// WithRegisterer 设置指标注册器
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registerer = reg
	}
}

// WithCloseTransport 设置 Close 时是否关闭传输
func WithCloseTransport(enable bool) Option {
	return func(c *Config) {
		c.CloseTransport = enable
	}
}

// normalize 补齐非法值
func (c *Config) normalize() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.HandlerTimeout <= 0 {
		c.HandlerTimeout = DefaultHandlerTimeout
	}
	if c.SettledCacheSize <= 0 {
		c.SettledCacheSize = DefaultSettledCacheSize
	}
	if c.ContextName == "" {
		c.ContextName = "default"
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
}
