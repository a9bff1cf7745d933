package proxy

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-msgproxy/pkg/interfaces"
	"github.com/dep2p/go-msgproxy/pkg/types"
)

// sentRequest 记录一次 SendRequest 调用
type sentRequest struct {
	dest    types.Destination
	env     *types.Envelope
	onReply interfaces.ReplyFunc
}

// mockTransport 是 Transport 的 mock 实现
//
// 默认什么都不回复；onSend 可定制行为，sendErr 模拟同步失败。
type mockTransport struct {
	mu       sync.Mutex
	incoming interfaces.IncomingHandler
	sent     []sentRequest
	sendErr  error
	onSend   func(dest types.Destination, env *types.Envelope, onReply interfaces.ReplyFunc)
	closed   bool

	sentCh chan sentRequest
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		sentCh: make(chan sentRequest, 256),
	}
}

func (m *mockTransport) SendRequest(dest types.Destination, env *types.Envelope, onReply interfaces.ReplyFunc) error {
	m.mu.Lock()
	req := sentRequest{dest: dest, env: env, onReply: onReply}
	m.sent = append(m.sent, req)
	err := m.sendErr
	fn := m.onSend
	m.mu.Unlock()

	m.sentCh <- req

	if err != nil {
		return err
	}
	if fn != nil {
		fn(dest, env, onReply)
	}
	return nil
}

func (m *mockTransport) SetIncomingHandler(h interfaces.IncomingHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incoming = h
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockTransport) handler() interfaces.IncomingHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.incoming
}

func (m *mockTransport) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *mockTransport) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// nextSent 等待下一次 SendRequest
func (m *mockTransport) nextSent(t *testing.T) sentRequest {
	t.Helper()
	select {
	case req := <-m.sentCh:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("no request sent")
		return sentRequest{}
	}
}

// deliver 把信封交给入站钩子，返回回复 channel 和 async 标志
func (m *mockTransport) deliver(env *types.Envelope, sender types.SenderInfo) (<-chan *types.Envelope, bool) {
	replies := make(chan *types.Envelope, 1)
	h := m.handler()
	if h == nil {
		return replies, false
	}
	var once sync.Once
	async := h(env, sender, func(reply *types.Envelope) {
		once.Do(func() { replies <- reply })
	})
	return replies, async
}

// awaitReply 等待回复
func awaitReply(t *testing.T, replies <-chan *types.Envelope) *types.Envelope {
	t.Helper()
	select {
	case r := <-replies:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no reply")
		return nil
	}
}

// awaitCall 等待 call 结束
func awaitCall(t *testing.T, c interfaces.Call) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("call did not settle")
	}
}

// link 把 from 的出站请求异步投递到 to 的入站钩子，回复走 onReply
func link(from, to *mockTransport, sender types.SenderInfo) {
	from.mu.Lock()
	defer from.mu.Unlock()
	from.onSend = func(_ types.Destination, env *types.Envelope, onReply interfaces.ReplyFunc) {
		req := env.Clone()
		go func() {
			h := to.handler()
			if h == nil {
				onReply(nil, errNoReceiverForTest)
				return
			}
			var once sync.Once
			h(req, sender, func(reply *types.Envelope) {
				once.Do(func() { onReply(reply.Clone(), nil) })
			})
		}()
	}
}

// newTestService 创建使用 mock 时钟的代理
func newTestService(t *testing.T, opts ...Option) (*Service, *mockTransport, *clock.Mock) {
	t.Helper()
	tr := newMockTransport()
	mock := clock.NewMock()
	svc, err := New(tr, append([]Option{WithClock(mock)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, tr, mock
}

var errNoReceiverForTest = errors.New("could not establish connection: receiving end does not exist")
