package memory

import "errors"

var (
	// ErrNoReceiver 目标上下文不存在或未挂接入站钩子
	ErrNoReceiver = errors.New("could not establish connection: receiving end does not exist")

	// ErrUnsupportedRoute 宿主不支持的路由（如页面到页面）
	ErrUnsupportedRoute = errors.New("memory: unsupported route")

	// ErrClosed 传输已关闭
	ErrClosed = errors.New("memory: transport closed")
)
