package proxy

import (
	"sort"
	"sync"

	"github.com/dep2p/go-msgproxy/pkg/interfaces"
)

// registration 一次处理器注册
type registration struct {
	id      interfaces.HandlerID
	handler interfaces.Handler
}

// HandlerRegistry 处理器注册表
//
// 同一动作的处理器按注册顺序保存；同一处理器可以注册多次，
// 每次注册都会在请求到达时被调用一次。序列变空时删除该动作。
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string][]registration
	nextID   interfaces.HandlerID
}

// NewHandlerRegistry 创建处理器注册表
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string][]registration),
	}
}

// Add 追加处理器，返回本次注册的标识
func (r *HandlerRegistry) Add(action string, handler interfaces.Handler) interfaces.HandlerID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.handlers[action] = append(r.handlers[action], registration{id: id, handler: handler})
	return id
}

// Remove 注销处理器
//
// 不传 id 时删除整个动作；否则对每个 id 只移除第一个匹配项，
// 不存在的 id 被忽略。
func (r *HandlerRegistry) Remove(action string, ids ...interfaces.HandlerID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs, exists := r.handlers[action]
	if !exists {
		return
	}

	if len(ids) == 0 {
		delete(r.handlers, action)
		return
	}

	for _, id := range ids {
		for i, reg := range regs {
			if reg.id == id {
				regs = append(regs[:i:i], regs[i+1:]...)
				break
			}
		}
	}

	if len(regs) == 0 {
		delete(r.handlers, action)
		return
	}
	r.handlers[action] = regs
}

// Get 按注册顺序返回处理器快照
func (r *HandlerRegistry) Get(action string) []interfaces.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	regs := r.handlers[action]
	if len(regs) == 0 {
		return nil
	}
	out := make([]interfaces.Handler, len(regs))
	for i, reg := range regs {
		out[i] = reg.handler
	}
	return out
}

// Count 返回某动作的处理器数量
func (r *HandlerRegistry) Count(action string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[action])
}

// Has 是否存在该动作的条目
func (r *HandlerRegistry) Has(action string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[action]
	return ok
}

// Actions 列出已注册的动作（排序）
func (r *HandlerRegistry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]string, 0, len(r.handlers))
	for action := range r.handlers {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

// Clear 清空所有处理器
func (r *HandlerRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers = make(map[string][]registration)
}
