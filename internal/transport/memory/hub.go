package memory

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-msgproxy/pkg/lib/log"
	"github.com/dep2p/go-msgproxy/pkg/types"
)

var logger = log.Logger("transport/memory")

// Hub 进程内模拟宿主
type Hub struct {
	clock clock.Clock

	mu         sync.RWMutex
	background *Transport
	contents   map[string]*Transport
	panels     map[string]*Transport

	dropRequests atomic.Bool
	latency      atomic.Int64

	inflight sync.WaitGroup
}

// Option Hub 选项
type Option func(*Hub)

// WithClock 设置时钟（用于延迟注入）
func WithClock(clk clock.Clock) Option {
	return func(h *Hub) {
		h.clock = clk
	}
}

// WithLatency 设置投递延迟
func WithLatency(d time.Duration) Option {
	return func(h *Hub) {
		h.latency.Store(int64(d))
	}
}

// NewHub 创建 Hub
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clock:    clock.New(),
		contents: make(map[string]*Transport),
		panels:   make(map[string]*Transport),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Background 返回后台上下文的传输
func (h *Hub) Background() *Transport {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.background == nil || h.background.isClosed() {
		h.background = newTransport(h, types.SenderInfo{ContextID: "background", Kind: types.ContextBackground})
	}
	return h.background
}

// Content 返回页面上下文的传输；url 可选
func (h *Hub) Content(id string, url ...string) *Transport {
	h.mu.Lock()
	defer h.mu.Unlock()

	if t, ok := h.contents[id]; ok && !t.isClosed() {
		return t
	}
	sender := types.SenderInfo{ContextID: id, Kind: types.ContextContent}
	if len(url) > 0 {
		sender.URL = url[0]
	}
	t := newTransport(h, sender)
	h.contents[id] = t
	return t
}

// Panel 返回面板上下文的传输
func (h *Hub) Panel(id string) *Transport {
	h.mu.Lock()
	defer h.mu.Unlock()

	if t, ok := h.panels[id]; ok && !t.isClosed() {
		return t
	}
	t := newTransport(h, types.SenderInfo{ContextID: id, Kind: types.ContextPanel})
	h.panels[id] = t
	return t
}

// ContentIDs 返回已挂接的页面 ID
func (h *Hub) ContentIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.contents))
	for id := range h.contents {
		ids = append(ids, id)
	}
	return ids
}

// SetDropRequests 开启后请求被静默丢弃，不回调 onReply
func (h *Hub) SetDropRequests(drop bool) {
	h.dropRequests.Store(drop)
}

// SetLatency 设置投递延迟
func (h *Hub) SetLatency(d time.Duration) {
	h.latency.Store(int64(d))
}

// Wait 等待所有在途投递结束
func (h *Hub) Wait() {
	h.inflight.Wait()
}

// Close 关闭全部上下文
func (h *Hub) Close() error {
	h.mu.Lock()
	all := make([]*Transport, 0, len(h.contents)+len(h.panels)+1)
	if h.background != nil {
		all = append(all, h.background)
	}
	for _, t := range h.contents {
		all = append(all, t)
	}
	for _, t := range h.panels {
		all = append(all, t)
	}
	h.mu.Unlock()

	for _, t := range all {
		_ = t.Close()
	}
	return nil
}

// resolve 查找目标上下文；不存在时返回 nil
func (h *Hub) resolve(from types.SenderInfo, dest types.Destination) (*Transport, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch dest.Kind {
	case types.DestinationBackground:
		if from.Kind == types.ContextBackground {
			return nil, nil
		}
		return h.background, nil
	case types.DestinationContent:
		if from.Kind == types.ContextContent {
			return nil, ErrUnsupportedRoute
		}
		return h.contents[dest.ID], nil
	default:
		return nil, ErrUnsupportedRoute
	}
}

// detach 从 Hub 移除已关闭的上下文
func (h *Hub) detach(t *Transport) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch t.self.Kind {
	case types.ContextBackground:
		if h.background == t {
			h.background = nil
		}
	case types.ContextContent:
		if h.contents[t.self.ContextID] == t {
			delete(h.contents, t.self.ContextID)
		}
	case types.ContextPanel:
		if h.panels[t.self.ContextID] == t {
			delete(h.panels, t.self.ContextID)
		}
	}
}

// delay 注入的投递延迟
func (h *Hub) delay() {
	if d := time.Duration(h.latency.Load()); d > 0 {
		h.clock.Sleep(d)
	}
}
