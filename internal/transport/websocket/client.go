package websocket

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/dep2p/go-msgproxy/pkg/interfaces"
	"github.com/dep2p/go-msgproxy/pkg/lib/log"
	"github.com/dep2p/go-msgproxy/pkg/types"
)

// Client 页面侧桥接传输
type Client struct {
	conn *conn

	mu      sync.RWMutex
	handler interfaces.IncomingHandler

	closed atomic.Bool
	done   chan struct{}
	err    error
}

var _ interfaces.Transport = (*Client)(nil)

// Dial 连接桥接服务并以 contextID 登记为页面
func Dial(ctx context.Context, rawURL, contextID string, opts ...Option) (*Client, error) {
	if contextID == "" {
		return nil, ErrMissingContext
	}
	o := buildOptions(opts)

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("context", contextID)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: o.handshakeTimeout}
	ws, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}

	peer := types.SenderInfo{ContextID: "background", Kind: types.ContextBackground}
	c := &Client{
		conn: newConn(ws, peer, o),
		done: make(chan struct{}),
	}
	go c.run()

	logger.Debug("已连接桥接服务", "context", contextID, "conn", log.TruncateID(c.conn.id, 8))
	return c, nil
}

func (c *Client) run() {
	defer close(c.done)

	err := c.conn.readLoop(c.incoming)
	c.closed.Store(true)
	_ = c.conn.close()
	if err != nil && !isNormalClose(err) {
		c.err = err
		logger.Debug("桥接连接断开", "conn", log.TruncateID(c.conn.id, 8), "error", err)
	}
}

func (c *Client) incoming() interfaces.IncomingHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handler
}

// SendRequest 向后台写出请求帧
func (c *Client) SendRequest(dest types.Destination, env *types.Envelope, onReply interfaces.ReplyFunc) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !dest.IsBackground() {
		return fmt.Errorf("%w: content -> %s", ErrUnsupportedRoute, dest)
	}
	if onReply == nil {
		onReply = func(*types.Envelope, error) {}
	}
	if err := c.conn.writeEnvelope(env); err != nil {
		go onReply(nil, err)
	}
	return nil
}

// SetIncomingHandler 设置入站钩子
func (c *Client) SetIncomingHandler(h interfaces.IncomingHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Done 连接断开后关闭
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err 非正常断开时的读取错误；连接仍存活时为 nil
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close 断开连接并等待读循环退出
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		<-c.done
		return nil
	}
	err := c.conn.close()
	<-c.done
	return err
}
