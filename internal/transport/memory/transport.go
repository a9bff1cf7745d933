package memory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-msgproxy/internal/codec"
	"github.com/dep2p/go-msgproxy/pkg/interfaces"
	"github.com/dep2p/go-msgproxy/pkg/types"
)

// Transport 单个上下文的传输
type Transport struct {
	hub  *Hub
	self types.SenderInfo

	mu      sync.RWMutex
	handler interfaces.IncomingHandler

	closed atomic.Bool
}

// 确保 Transport 实现了 interfaces.Transport 接口
var _ interfaces.Transport = (*Transport)(nil)

func newTransport(hub *Hub, self types.SenderInfo) *Transport {
	return &Transport{hub: hub, self: self}
}

// Self 返回本上下文的发送方信息
func (t *Transport) Self() types.SenderInfo {
	return t.self
}

// SendRequest 发送信封
//
// 路由不被支持或编码失败时同步返回错误；其余结果经 onReply 异步送达。
func (t *Transport) SendRequest(dest types.Destination, env *types.Envelope, onReply interfaces.ReplyFunc) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if onReply == nil {
		onReply = func(*types.Envelope, error) {}
	}

	target, err := t.hub.resolve(t.self, dest)
	if err != nil {
		return fmt.Errorf("%w: %s -> %s", err, t.self.Kind, dest)
	}

	msg, err := codec.Copy(env)
	if err != nil {
		return err
	}

	t.hub.inflight.Add(1)
	go func() {
		defer t.hub.inflight.Done()
		t.deliver(target, msg, onReply)
	}()
	return nil
}

// deliver 把信封交给目标上下文的入站钩子
func (t *Transport) deliver(target *Transport, env *types.Envelope, onReply interfaces.ReplyFunc) {
	t.hub.delay()

	if t.hub.dropRequests.Load() {
		logger.Debug("丢弃请求", "from", t.self.ContextID, "requestID", env.RequestID)
		return
	}

	var h interfaces.IncomingHandler
	if target != nil && !target.closed.Load() {
		h = target.incoming()
	}
	if h == nil {
		onReply(nil, ErrNoReceiver)
		return
	}

	var once sync.Once
	respond := func(reply *types.Envelope) {
		once.Do(func() {
			if reply == nil {
				onReply(nil, nil)
				return
			}
			msg, err := codec.Copy(reply)
			if err != nil {
				onReply(nil, err)
				return
			}
			onReply(msg, nil)
		})
	}

	if async := h(env, t.self, respond); !async {
		// 未同步回复：回调收到空值
		once.Do(func() { onReply(nil, nil) })
	}
}

// SetIncomingHandler 设置入站钩子
func (t *Transport) SetIncomingHandler(h interfaces.IncomingHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

func (t *Transport) incoming() interfaces.IncomingHandler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handler
}

func (t *Transport) isClosed() bool {
	return t.closed.Load()
}

// Close 断开本上下文
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.SetIncomingHandler(nil)
	t.hub.detach(t)
	return nil
}
