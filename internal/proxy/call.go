package proxy

import (
	"context"
	"sync"

	"github.com/dep2p/go-msgproxy/pkg/interfaces"
	"google.golang.org/protobuf/types/known/structpb"
)

// call 出站请求的最终值
//
// resolve / reject 只有第一次调用生效。
type call struct {
	id   string
	done chan struct{}
	once sync.Once

	value *structpb.Value
	err   error
}

var _ interfaces.Call = (*call)(nil)

func newCall(id string) *call {
	return &call{
		id:   id,
		done: make(chan struct{}),
	}
}

// failedCall 返回一个已失败的 call
func failedCall(err error) *call {
	c := newCall("")
	c.reject(err)
	return c
}

func (c *call) resolve(v *structpb.Value) bool {
	return c.settle(v, nil)
}

func (c *call) reject(err error) bool {
	return c.settle(nil, err)
}

func (c *call) settle(v *structpb.Value, err error) bool {
	settled := false
	c.once.Do(func() {
		c.value, c.err = v, err
		close(c.done)
		settled = true
	})
	return settled
}

// ID 请求 ID
func (c *call) ID() string {
	return c.id
}

// Done 结果确定后关闭
func (c *call) Done() <-chan struct{} {
	return c.done
}

// Result 返回结果；未确定前返回 (nil, nil)
func (c *call) Result() (*structpb.Value, error) {
	select {
	case <-c.done:
		return c.value, c.err
	default:
		return nil, nil
	}
}

// Wait 阻塞直到结果确定或 ctx 结束
//
// ctx 结束不会取消请求本身，请求仍受自身超时约束。
func (c *call) Wait(ctx context.Context) (*structpb.Value, error) {
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
