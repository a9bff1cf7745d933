package interfaces

import (
	"context"
	"time"

	"github.com/dep2p/go-msgproxy/pkg/types"
	"google.golang.org/protobuf/types/known/structpb"
)

// Handler 动作处理器
//
// 处理器可以立即返回，也可以阻塞直到结果就绪；ctx 在同一请求的
// 其它处理器失败或处理超时后被取消。
type Handler func(ctx context.Context, data *structpb.Value, sender types.SenderInfo) (*structpb.Value, error)

// HandlerID 处理器注册标识
//
// 同一处理器注册两次会得到两个不同的 HandlerID。
type HandlerID uint64

// CallOption 单次调用选项
type CallOption func(*CallOptions)

// CallOptions 单次调用参数
type CallOptions struct {
	// Timeout 本次请求超时；0 表示使用服务默认值
	Timeout time.Duration
}

// WithTimeout 设置本次请求超时
func WithTimeout(d time.Duration) CallOption {
	return func(o *CallOptions) {
		o.Timeout = d
	}
}

// Call 一次出站请求的最终值
type Call interface {
	// ID 请求 ID
	ID() string

	// Done 在结果确定后关闭
	Done() <-chan struct{}

	// Result 返回结果；未确定前返回 (nil, nil)
	Result() (*structpb.Value, error)

	// Wait 阻塞直到结果确定或 ctx 结束
	Wait(ctx context.Context) (*structpb.Value, error)
}

// MessageProxy 消息代理公共 API
type MessageProxy interface {
	// SendToBackground 发送请求到后台并等待结果
	SendToBackground(ctx context.Context, action string, data *structpb.Value, opts ...CallOption) (*structpb.Value, error)

	// SendToContent 发送请求到指定前台上下文并等待结果
	SendToContent(ctx context.Context, destinationID, action string, data *structpb.Value, opts ...CallOption) (*structpb.Value, error)

	// SendToBackgroundAsync 异步发送请求到后台
	SendToBackgroundAsync(action string, data *structpb.Value, opts ...CallOption) Call

	// SendToContentAsync 异步发送请求到指定前台上下文
	SendToContentAsync(destinationID, action string, data *structpb.Value, opts ...CallOption) Call

	// On 注册处理器
	On(action string, handler Handler) (HandlerID, error)

	// Off 注销处理器；不传 id 时移除该动作的全部处理器
	Off(action string, ids ...HandlerID)

	// Close 关闭代理
	Close() error
}
