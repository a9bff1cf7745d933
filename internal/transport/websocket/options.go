package websocket

import (
	"time"

	"github.com/dep2p/go-msgproxy/config"
)

// options 连接参数
type options struct {
	readLimit        int64
	writeTimeout     time.Duration
	handshakeTimeout time.Duration
}

func defaultOptions() options {
	def := config.DefaultWebSocketConfig()
	return options{
		readLimit:        def.ReadLimit,
		writeTimeout:     def.WriteTimeout.Duration(),
		handshakeTimeout: def.HandshakeTimeout.Duration(),
	}
}

// Option 选项函数
type Option func(*options)

// WithReadLimit 设置单帧最大字节数
func WithReadLimit(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.readLimit = n
		}
	}
}

// WithWriteTimeout 设置写超时
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

// WithHandshakeTimeout 设置握手超时
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.handshakeTimeout = d
		}
	}
}

// FromConfig 从配置生成选项
func FromConfig(cfg config.WebSocketConfig) Option {
	return func(o *options) {
		WithReadLimit(cfg.ReadLimit)(o)
		WithWriteTimeout(cfg.WriteTimeout.Duration())(o)
		WithHandshakeTimeout(cfg.HandshakeTimeout.Duration())(o)
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
