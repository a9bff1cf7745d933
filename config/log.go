package config

import (
	"fmt"

	"github.com/dep2p/go-msgproxy/pkg/lib/log"
)

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别 debug/info/warn/error
	Level string `json:"level"`

	// Format 输出格式 text/json
	Format string `json:"format"`

	// File 日志文件路径，空表示 stderr
	File string `json:"file,omitempty"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: log.FormatText,
	}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	if _, err := log.ParseLevel(c.Level); err != nil {
		return err
	}
	if c.Format != "" && c.Format != log.FormatText && c.Format != log.FormatJSON {
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	return nil
}
