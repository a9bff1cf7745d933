package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig 测试创建默认配置
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Second, cfg.Proxy.DefaultTimeout.Duration())
	assert.Equal(t, 30*time.Second, cfg.Proxy.HandlerTimeout.Duration())
	assert.False(t, cfg.WebSocket.Enable)
}

// TestProxyConfig 测试代理配置
func TestProxyConfig(t *testing.T) {
	t.Run("Validate_Valid", func(t *testing.T) {
		assert.NoError(t, DefaultProxyConfig().Validate())
	})

	t.Run("Validate_ZeroTimeout", func(t *testing.T) {
		cfg := DefaultProxyConfig()
		cfg.DefaultTimeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("Validate_ZeroCache", func(t *testing.T) {
		cfg := DefaultProxyConfig()
		cfg.SettledCacheSize = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("With", func(t *testing.T) {
		cfg := DefaultProxyConfig().WithContextName("tab-1").WithDefaultTimeout(time.Second)
		assert.Equal(t, "tab-1", cfg.ContextName)
		assert.Equal(t, time.Second, cfg.DefaultTimeout.Duration())
	})
}

// TestWebSocketConfig 测试桥接配置
func TestWebSocketConfig(t *testing.T) {
	cfg := DefaultWebSocketConfig()
	assert.NoError(t, cfg.Validate())

	// 未启用时不检查
	cfg.Path = "bad"
	assert.NoError(t, cfg.Validate())

	cfg.Enable = true
	assert.Error(t, cfg.Validate())

	cfg.Path = "/ok"
	assert.NoError(t, cfg.Validate())
}

// TestLogConfig 测试日志配置
func TestLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg.Level = "debug"
	cfg.Format = "xml"
	assert.Error(t, cfg.Validate())
}

// TestFromJSON 测试 JSON 解析
func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"proxy": {"context_name": "panel", "default_timeout": "250ms", "handler_timeout": 2000000000},
		"log": {"level": "debug", "format": "json"}
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, "panel", cfg.Proxy.ContextName)
	assert.Equal(t, 250*time.Millisecond, cfg.Proxy.DefaultTimeout.Duration())
	assert.Equal(t, 2*time.Second, cfg.Proxy.HandlerTimeout.Duration())
	// 未给出的字段保留默认值
	assert.Equal(t, 1024, cfg.Proxy.SettledCacheSize)
	assert.Equal(t, "/msgproxy", cfg.WebSocket.Path)
	assert.Equal(t, "json", cfg.Log.Format)

	_, err = FromJSON([]byte(`{"proxy": {"default_timeout": "soon"}}`))
	assert.Error(t, err)
}

// TestLoadFile 测试从文件加载
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "msgproxy.json")

	orig := NewConfig()
	orig.Proxy.ContextName = "content-7"
	data, err := orig.ToJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, *orig, *cfg)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

// TestApplyEnv 测试环境变量覆盖
func TestApplyEnv(t *testing.T) {
	t.Setenv("MSGPROXY_CONTEXT_NAME", "tab-9")
	t.Setenv("MSGPROXY_DEFAULT_TIMEOUT", "750ms")
	t.Setenv("MSGPROXY_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("MSGPROXY_LOG_FORMAT", "JSON")

	cfg := NewConfig()
	require.NoError(t, ApplyEnv(cfg))

	assert.Equal(t, "tab-9", cfg.Proxy.ContextName)
	assert.Equal(t, 750*time.Millisecond, cfg.Proxy.DefaultTimeout.Duration())
	assert.Equal(t, 30*time.Second, cfg.Proxy.HandlerTimeout.Duration())
	assert.True(t, cfg.WebSocket.Enable)
	assert.Equal(t, "127.0.0.1:9000", cfg.WebSocket.ListenAddr)
	assert.Equal(t, "json", cfg.Log.Format)

	t.Setenv("MSGPROXY_WEBSOCKET", "false")
	require.NoError(t, ApplyEnv(cfg))
	// LISTEN_ADDR 先启用，WEBSOCKET=false 随后关闭
	assert.False(t, cfg.WebSocket.Enable)
}

// TestApplyEnvInvalid 测试无法解析的环境变量
func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv("MSGPROXY_CONTEXT_NAME", "tab-9")
	t.Setenv("MSGPROXY_HANDLER_TIMEOUT", "not-a-duration")

	cfg := NewConfig()
	assert.Error(t, ApplyEnv(cfg))
	assert.Equal(t, NewConfig(), cfg)
}

// TestValidateAndFix 测试自动修复
func TestValidateAndFix(t *testing.T) {
	cfg := &Config{}
	cfg.WebSocket.Path = "bridge"

	fixed, err := ValidateAndFix(cfg)
	require.NoError(t, err)
	assert.Equal(t, "background", fixed.Proxy.ContextName)
	assert.Equal(t, 5*time.Second, fixed.Proxy.DefaultTimeout.Duration())
	assert.Equal(t, "/bridge", fixed.WebSocket.Path)
	assert.Equal(t, "info", fixed.Log.Level)

	fresh, err := ValidateAndFix(nil)
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), fresh)

	assert.Error(t, ValidateAll(nil))
	assert.Panics(t, func() { MustValidate(nil) })
}

// TestDuration_JSON 测试 Duration 编解码
func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.Duration())

	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))

	out, err := Duration(5 * time.Second).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"5s"`, string(out))
}
