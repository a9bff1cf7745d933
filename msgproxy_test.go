package msgproxy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-msgproxy/config"
)

func TestVersionInfo(t *testing.T) {
	assert.Equal(t, "msgproxy "+Version, VersionInfo())

	GitCommit = "0123456789abcdef"
	defer func() { GitCommit = "" }()
	assert.Equal(t, "msgproxy "+Version+" (01234567)", VersionInfo())
}

func TestNew_OverHub(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	bg, err := New(hub.Background(), WithContextName("background"))
	require.NoError(t, err)
	defer bg.Close()

	tab, err := New(hub.Content("42"), WithContextName("content-42"))
	require.NoError(t, err)
	defer tab.Close()

	_, err = bg.On("getVersion", func(context.Context, *structpb.Value, SenderInfo) (*structpb.Value, error) {
		return structpb.NewStringValue(Version), nil
	})
	require.NoError(t, err)

	v, err := tab.SendToBackground(context.Background(), "getVersion", nil, CallTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, Version, v.GetStringValue())

	_, err = bg.SendToContent(context.Background(), "missing-tab", "highlight", Value("#main"))
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, ErrNoReceiver)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ToContent("missing-tab"), te.Destination)
}

func TestNew_NilTransport(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilTransport)

	_, err = NewApp(nil)
	assert.ErrorIs(t, err, ErrNilTransport)
}

func TestApp_Lifecycle(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	bgApp, err := NewApp(hub.Background(),
		WithProxyConfig(config.DefaultProxyConfig().WithContextName("background")),
		WithFxLogger(zap.NewNop()),
	)
	require.NoError(t, err)
	tabApp, err := NewApp(hub.Content("1"),
		WithProxyConfig(config.DefaultProxyConfig().WithContextName("content-1")),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, bgApp.Start(ctx))
	require.NoError(t, tabApp.Start(ctx))

	assert.Equal(t, "background", bgApp.Proxy().ContextName())
	_, err = bgApp.Proxy().On("ping", func(context.Context, *structpb.Value, SenderInfo) (*structpb.Value, error) {
		return structpb.NewStringValue("pong"), nil
	})
	require.NoError(t, err)

	v, err := tabApp.Proxy().SendToBackground(ctx, "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", v.GetStringValue())

	require.NoError(t, tabApp.Stop(ctx))
	_, err = tabApp.Proxy().SendToBackground(ctx, "ping", nil)
	assert.ErrorIs(t, err, ErrClosed)

	// 页面上下文已断开
	_, err = bgApp.Proxy().SendToContent(ctx, "1", "ping", nil)
	assert.ErrorIs(t, err, ErrNoReceiver)

	require.NoError(t, bgApp.Stop(ctx))
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := config.DefaultProxyConfig()
	cfg.SettledCacheSize = 0

	_, err := NewApp(NewHub().Background(), WithProxyConfig(cfg))
	assert.Error(t, err)
}
