package proxy

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// idGenerator 请求 ID 生成器
//
// 格式: req_<instance>_<unix-ms>_<counter>
//
// instance 在每个代理实例创建时随机生成，counter 单调递增，
// 因此同一上下文生命周期内 ID 不会重复。
type idGenerator struct {
	instance string
	clock    clock.Clock
	counter  atomic.Uint64
}

func newIDGenerator(clk clock.Clock) *idGenerator {
	instance := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return &idGenerator{
		instance: instance,
		clock:    clk,
	}
}

// Next 生成下一个请求 ID
func (g *idGenerator) Next() string {
	n := g.counter.Add(1)
	return fmt.Sprintf("req_%s_%d_%d", g.instance, g.clock.Now().UnixMilli(), n)
}
