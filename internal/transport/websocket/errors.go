package websocket

import "errors"

var (
	// ErrNoReceiver 目标页面没有连接
	ErrNoReceiver = errors.New("could not establish connection: receiving end does not exist")

	// ErrUnsupportedRoute 该端不支持的路由
	ErrUnsupportedRoute = errors.New("websocket: unsupported route")

	// ErrClosed 传输已关闭
	ErrClosed = errors.New("websocket: transport closed")

	// ErrMissingContext 连接未声明页面 ID
	ErrMissingContext = errors.New("websocket: missing context id")
)
