package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "MSGPROXY_"

// envOverrides 环境变量覆盖项
//
// 未设置的变量保持 nil，不覆盖配置文件中的值。
type envOverrides struct {
	ContextName    *string        `env:"CONTEXT_NAME"`
	DefaultTimeout *time.Duration `env:"DEFAULT_TIMEOUT"`
	HandlerTimeout *time.Duration `env:"HANDLER_TIMEOUT"`
	ListenAddr     *string        `env:"LISTEN_ADDR"`
	WebSocket      *bool          `env:"WEBSOCKET"`
	LogLevel       *string        `env:"LOG_LEVEL"`
	LogFormat      *string        `env:"LOG_FORMAT"`
}

// ApplyEnv 应用 MSGPROXY_* 环境变量覆盖
//
// 环境变量优先级高于配置文件，低于命令行参数。
// 任一变量无法解析时返回错误，配置保持不变。
func ApplyEnv(c *Config) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("解析环境变量失败: %w", err)
	}

	if v := trimmed(o.ContextName); v != "" {
		c.Proxy.ContextName = v
	}
	if o.DefaultTimeout != nil {
		c.Proxy.DefaultTimeout = Duration(*o.DefaultTimeout)
	}
	if o.HandlerTimeout != nil {
		c.Proxy.HandlerTimeout = Duration(*o.HandlerTimeout)
	}
	if v := trimmed(o.ListenAddr); v != "" {
		c.WebSocket.Enable = true
		c.WebSocket.ListenAddr = v
	}
	if o.WebSocket != nil {
		c.WebSocket.Enable = *o.WebSocket
	}
	if v := trimmed(o.LogLevel); v != "" {
		c.Log.Level = v
	}
	if v := trimmed(o.LogFormat); v != "" {
		c.Log.Format = strings.ToLower(v)
	}
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
