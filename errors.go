package msgproxy

import (
	"github.com/dep2p/go-msgproxy/internal/proxy"
	"github.com/dep2p/go-msgproxy/internal/transport/memory"
)

// 公共错误定义
//
// 请求失败的错误都可以用 errors.Is 按类别判断：
//
//	_, err := p.SendToBackground(ctx, "getVersion", nil)
//	switch {
//	case errors.Is(err, msgproxy.ErrTimeout):
//	case errors.Is(err, msgproxy.ErrTransport):
//	case errors.Is(err, msgproxy.ErrRemote):
//	}
var (
	// ────────────────────────────────────────────────────────────────────────
	// 请求结果
	// ────────────────────────────────────────────────────────────────────────

	// ErrTimeout 请求在超时窗口内没有结果
	ErrTimeout = proxy.ErrTimeout

	// ErrTransport 宿主通道报告投递失败
	ErrTransport = proxy.ErrTransport

	// ErrRemote 对端处理失败
	ErrRemote = proxy.ErrRemote

	// ErrClosed 代理已关闭
	ErrClosed = proxy.ErrClosed

	// ────────────────────────────────────────────────────────────────────────
	// 参数错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrInvalidAction 无效的动作名称
	ErrInvalidAction = proxy.ErrInvalidAction

	// ErrInvalidDestination 无效的目标
	ErrInvalidDestination = proxy.ErrInvalidDestination

	// ErrNilTransport 传输为 nil
	ErrNilTransport = proxy.ErrNilTransport

	// ErrNilHandler 处理器为 nil
	ErrNilHandler = proxy.ErrNilHandler

	// ────────────────────────────────────────────────────────────────────────
	// 模拟宿主
	// ────────────────────────────────────────────────────────────────────────

	// ErrNoReceiver 目标上下文不存在或未监听
	ErrNoReceiver = memory.ErrNoReceiver
)

// 请求失败的具体类型，可用 errors.As 取出细节
type (
	TimeoutError   = proxy.TimeoutError
	TransportError = proxy.TransportError
	RemoteError    = proxy.RemoteError
)
