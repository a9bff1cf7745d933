// Package config 提供 msgproxy 的统一配置
//
// 主 Config 嵌入所有子配置，每个子配置在独立文件中定义，
// 支持从 JSON 加载以及 MSGPROXY_* 环境变量覆盖。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Proxy.DefaultTimeout = config.Duration(2 * time.Second)
//
//	// 从文件加载
//	cfg, err := config.LoadFile("msgproxy.json")
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config 是 msgproxy 的完整配置结构
//
//   - Proxy: 消息代理（超时、处理器超时、缓存）
//   - WebSocket: 跨进程桥接传输
//   - Log: 日志输出
type Config struct {
	// Proxy 消息代理配置
	Proxy ProxyConfig `json:"proxy"`

	// WebSocket 桥接传输配置
	WebSocket WebSocketConfig `json:"websocket"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Proxy:     DefaultProxyConfig(),
		WebSocket: DefaultWebSocketConfig(),
		Log:       DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.Proxy.Validate(); err != nil {
		return fmt.Errorf("proxy: %w", err)
	}
	if err := c.WebSocket.Validate(); err != nil {
		return fmt.Errorf("websocket: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// FromJSON 从 JSON 解析配置
//
// 未出现的字段保留默认值。
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return FromJSON(data)
}

// ToJSON 序列化配置
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
