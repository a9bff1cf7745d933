package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-msgproxy/config"
	"github.com/dep2p/go-msgproxy/internal/codec"
	"github.com/dep2p/go-msgproxy/internal/proxy"
	"github.com/dep2p/go-msgproxy/pkg/types"
)

// startServer 启动桥接服务，返回 ws:// 地址
func startServer(t *testing.T, opts ...Option) (*Server, string) {
	t.Helper()
	srv := NewServer(opts...)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		_ = srv.Close()
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, srv *Server, url, contextID string, opts ...Option) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, contextID, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.Eventually(t, func() bool {
		for _, id := range srv.ContentIDs() {
			if id == contextID {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	return c
}

func TestBridge_RoundTrip(t *testing.T) {
	srv, url := startServer(t)
	client := dial(t, srv, url, "tab-1")

	bg, err := proxy.New(srv, proxy.WithContextName("background"), proxy.WithCloseTransport(false))
	require.NoError(t, err)
	defer bg.Close()
	tab, err := proxy.New(client, proxy.WithContextName("content-tab-1"), proxy.WithCloseTransport(false))
	require.NoError(t, err)
	defer tab.Close()

	_, err = bg.On("getVersion", func(_ context.Context, _ *structpb.Value, sender types.SenderInfo) (*structpb.Value, error) {
		return structpb.NewStringValue("1.2.3@" + sender.ContextID), nil
	})
	require.NoError(t, err)
	_, err = tab.On("highlight", func(_ context.Context, data *structpb.Value, sender types.SenderInfo) (*structpb.Value, error) {
		return structpb.NewStringValue(string(sender.Kind) + ":" + data.GetStringValue()), nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	v, err := tab.SendToBackground(ctx, "getVersion", nil)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3@tab-1", v.GetStringValue())

	v, err = bg.SendToContent(ctx, "tab-1", "highlight", structpb.NewStringValue("#main"))
	require.NoError(t, err)
	assert.Equal(t, "background:#main", v.GetStringValue())

	_, err = tab.SendToBackground(ctx, "missing", nil)
	assert.ErrorIs(t, err, proxy.ErrRemote)
	assert.EqualError(t, err, "no handler registered for action: missing")
}

func TestBridge_NoReceiver(t *testing.T) {
	srv, _ := startServer(t)
	bg, err := proxy.New(srv, proxy.WithCloseTransport(false))
	require.NoError(t, err)
	defer bg.Close()

	_, err = bg.SendToContent(context.Background(), "nobody", "highlight", nil)
	assert.ErrorIs(t, err, proxy.ErrTransport)
	assert.ErrorIs(t, err, ErrNoReceiver)

	_, err = bg.SendToBackground(context.Background(), "ping", nil)
	assert.ErrorIs(t, err, ErrNoReceiver)
}

func TestBridge_ClientRoutes(t *testing.T) {
	srv, url := startServer(t)
	client := dial(t, srv, url, "tab-1")

	err := client.SendRequest(types.ToContent("tab-2"), types.NewRequest("ping", "r1", nil), nil)
	assert.ErrorIs(t, err, ErrUnsupportedRoute)

	require.NoError(t, client.Close())
	err = client.SendRequest(types.ToBackground(), types.NewRequest("ping", "r1", nil), nil)
	assert.ErrorIs(t, err, ErrClosed)

	assert.Eventually(t, func() bool { return len(srv.ContentIDs()) == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestBridge_MissingContext(t *testing.T) {
	_, url := startServer(t)

	_, err := Dial(context.Background(), url, "")
	assert.ErrorIs(t, err, ErrMissingContext)

	// 绕过 Dial 直接握手
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestBridge_ReplacesConnection(t *testing.T) {
	srv, url := startServer(t)
	first := dial(t, srv, url, "tab-1")
	second := dial(t, srv, url, "tab-1")

	select {
	case <-first.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("old connection not closed")
	}
	assert.Equal(t, []string{"tab-1"}, srv.ContentIDs())

	select {
	case <-second.Done():
		t.Fatal("new connection closed")
	default:
	}
}

func TestBridge_InvalidFrameIgnored(t *testing.T) {
	srv, url := startServer(t)
	bg, err := proxy.New(srv, proxy.WithCloseTransport(false))
	require.NoError(t, err)
	defer bg.Close()
	_, err = bg.On("ping", func(context.Context, *structpb.Value, types.SenderInfo) (*structpb.Value, error) {
		return structpb.NewStringValue("pong"), nil
	})
	require.NoError(t, err)

	ws, resp, err := websocket.DefaultDialer.Dial(url+"?context=raw", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer ws.Close()

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"broadcast","requestId":"x"}`)))

	frame, err := codec.Encode(types.NewRequest("ping", "req_raw_1", nil))
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, frame))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	reply, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, types.KindResponse, reply.Type)
	assert.Equal(t, "req_raw_1", reply.RequestID)
	assert.True(t, reply.Success)
	assert.Equal(t, "pong", reply.Data.GetStringValue())
}

func TestBridge_NoHandlerInstalled(t *testing.T) {
	_, url := startServer(t)

	ws, resp, err := websocket.DefaultDialer.Dial(url+"?context=raw", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer ws.Close()

	frame, err := codec.Encode(types.NewRequest("ping", "r1", nil))
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, frame))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	reply, err := codec.Decode(data)
	require.NoError(t, err)
	assert.False(t, reply.Success)
	assert.Equal(t, ErrNoReceiver.Error(), reply.Error)
}

func TestBridge_ReadLimit(t *testing.T) {
	cfg := config.DefaultWebSocketConfig()
	cfg.ReadLimit = 256
	srv, url := startServer(t, FromConfig(cfg))
	client := dial(t, srv, url, "tab-1")

	big := types.MustValue(strings.Repeat("x", 1024))
	require.NoError(t, client.SendRequest(types.ToBackground(), types.NewRequest("upload", "r1", big), nil))

	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("oversized frame did not close the connection")
	}
	assert.Eventually(t, func() bool { return len(srv.ContentIDs()) == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestServer_CloseDisconnectsClients(t *testing.T) {
	srv, url := startServer(t)
	client := dial(t, srv, url, "tab-1")

	require.NoError(t, srv.Close())

	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client not disconnected")
	}
	err := srv.SendRequest(types.ToContent("tab-1"), types.NewRequest("ping", "r1", nil), nil)
	assert.ErrorIs(t, err, ErrClosed)
}
