package interfaces

import "github.com/dep2p/go-msgproxy/pkg/types"

// ReplyFunc 出站请求的回复回调
//
// 最多调用一次，且异步调用：
//   - (env, nil)  宿主同步回传的确认（成功或失败）
//   - (nil, err)  无接收方或通道出错
//   - (nil, nil)  接收方未同步回复，结果将另行到达（或超时）
type ReplyFunc func(reply *types.Envelope, err error)

// Responder 入站请求的一次性回复函数
type Responder func(reply *types.Envelope)

// IncomingHandler 入站信封钩子
//
// 宿主把所有发往本上下文的信封交给该钩子。返回 true 表示
// "稍后异步调用 respond"，返回 false 表示已经同步处理完毕。
type IncomingHandler func(env *types.Envelope, sender types.SenderInfo, respond Responder) bool

// Transport 宿主传输契约
//
// 传输层不保证顺序、不保证送达、不保证有响应。
type Transport interface {
	// SendRequest 向目标发送信封
	//
	// 返回错误表示宿主同步抛出的失败；onReply 可为 nil。
	SendRequest(dest types.Destination, env *types.Envelope, onReply ReplyFunc) error

	// SetIncomingHandler 设置入站钩子；传 nil 解除
	SetIncomingHandler(h IncomingHandler)
}
