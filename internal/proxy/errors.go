package proxy

import (
	"errors"
	"fmt"
	"time"

	"github.com/dep2p/go-msgproxy/pkg/types"
)

// 错误定义
var (
	// ErrNilTransport Transport 为 nil
	ErrNilTransport = errors.New("proxy: transport is nil")

	// ErrNilHandler 处理器为 nil
	ErrNilHandler = errors.New("proxy: handler is nil")

	// ErrClosed 代理已关闭
	ErrClosed = errors.New("proxy: closed")

	// ErrInvalidAction 无效的动作名称
	ErrInvalidAction = errors.New("proxy: invalid action")

	// ErrInvalidDestination 无效的目标
	ErrInvalidDestination = errors.New("proxy: invalid destination")

	// ErrTimeout 请求超时
	ErrTimeout = errors.New("proxy: request timeout")

	// ErrTransport 传输层失败（无接收方 / 通道出错）
	ErrTransport = errors.New("proxy: transport failure")

	// ErrRemote 对端处理失败
	ErrRemote = errors.New("proxy: remote failure")

	// errHandlerPanic 处理器抛出非 error 值
	errHandlerPanic = errors.New("error while handling request")
)

// 回复中使用的失败文本
const (
	noHandlerFormat     = "no handler registered for action: %s"
	unknownErrorMessage = "unknown error"
)

// TimeoutError 请求在超时窗口内没有结果
type TimeoutError struct {
	Destination types.Destination
	Action      string
	After       time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Destination.Kind == types.DestinationContent {
		return fmt.Sprintf("message %q to content %s timed out after %s", e.Action, e.Destination.ID, e.After)
	}
	return fmt.Sprintf("message %q to %s timed out after %s", e.Action, e.Destination, e.After)
}

// Is 支持 errors.Is(err, ErrTimeout)
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// TransportError 宿主通道报告的投递失败
type TransportError struct {
	Destination types.Destination
	Err         error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send to %s failed: %v", e.Destination, e.Err)
}

// Unwrap 返回底层错误
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is 支持 errors.Is(err, ErrTransport)
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// RemoteError 对端回复的失败结果
type RemoteError struct {
	Action  string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Is 支持 errors.Is(err, ErrRemote)
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}
