package proxy

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dep2p/go-msgproxy/pkg/types"
)

// pendingRequest 等待结果的出站请求
type pendingRequest struct {
	id      string
	dest    types.Destination
	action  string
	timeout time.Duration
	call    *call
	timer   *clock.Timer
	started time.Time
}

// pendingTable 待处理请求表
//
// take 是唯一的"检查并移除"步骤：响应、确认、传输失败、超时和 Close
// 都必须先 take 成功才能结束请求，所以每个条目只会被结束一次。
type pendingTable struct {
	mu      sync.Mutex
	entries map[string]*pendingRequest

	// settled 最近已结束的请求 ID，只用于区分迟到的重复响应
	settled *lru.Cache[string, struct{}]
}

func newPendingTable(settledCacheSize int) *pendingTable {
	settled, err := lru.New[string, struct{}](settledCacheSize)
	if err != nil {
		// 仅在 size <= 0 时出错，normalize 已保证不会发生
		panic(err)
	}
	return &pendingTable{
		entries: make(map[string]*pendingRequest),
		settled: settled,
	}
}

// add 登记请求并启动超时定时器
//
// 定时器在持锁期间创建，onExpire 中的 take 一定能看到完整条目。
func (t *pendingTable) add(p *pendingRequest, clk clock.Clock, onExpire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[p.id] = p
	p.timer = clk.AfterFunc(p.timeout, onExpire)
}

// take 原子地取出并移除条目，同时停止其定时器
func (t *pendingTable) take(id string) (*pendingRequest, bool) {
	t.mu.Lock()
	p, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
		t.settled.Add(id, struct{}{})
	}
	t.mu.Unlock()

	if ok && p.timer != nil {
		p.timer.Stop()
	}
	return p, ok
}

// wasSettled 该 ID 是否最近已结束
func (t *pendingTable) wasSettled(id string) bool {
	return t.settled.Contains(id)
}

// has 是否仍在等待
func (t *pendingTable) has(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[id]
	return ok
}

// len 当前等待中的请求数
func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// drain 移除并返回全部条目
func (t *pendingTable) drain() []*pendingRequest {
	t.mu.Lock()
	out := make([]*pendingRequest, 0, len(t.entries))
	for id, p := range t.entries {
		out = append(out, p)
		delete(t.entries, id)
		t.settled.Add(id, struct{}{})
	}
	t.mu.Unlock()

	for _, p := range out {
		if p.timer != nil {
			p.timer.Stop()
		}
	}
	return out
}
