package proxy

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-msgproxy/pkg/interfaces"
	"github.com/dep2p/go-msgproxy/pkg/lib/log"
	"github.com/dep2p/go-msgproxy/pkg/types"
)

var logger = log.Logger("proxy")

// Service 消息代理
//
// 每个执行上下文显式创建一个实例，并把它传给需要收发消息的代码。
// 待处理请求表和处理器注册表只由本实例修改。
type Service struct {
	transport interfaces.Transport
	config    *Config
	clock     clock.Clock

	ids      *idGenerator
	pending  *pendingTable
	handlers *HandlerRegistry
	metrics  *metrics
	gatherer prometheus.Gatherer

	ctx    context.Context
	cancel context.CancelFunc

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// 确保 Service 实现了 interfaces.MessageProxy 接口
var _ interfaces.MessageProxy = (*Service)(nil)

// New 创建消息代理并挂接到传输的入站钩子
func New(transport interfaces.Transport, opts ...Option) (*Service, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	config.normalize()

	reg := config.Registerer
	var gatherer prometheus.Gatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m, err := newMetrics(reg, config.ContextName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		transport: transport,
		config:    config,
		clock:     config.Clock,
		ids:       newIDGenerator(config.Clock),
		pending:   newPendingTable(config.SettledCacheSize),
		handlers:  NewHandlerRegistry(),
		metrics:   m,
		gatherer:  gatherer,
		ctx:       ctx,
		cancel:    cancel,
	}

	transport.SetIncomingHandler(s.handleIncoming)

	logger.Debug("消息代理已创建", "context", config.ContextName, "timeout", config.Timeout)
	return s, nil
}

// ============================================================================
//                              出站请求
// ============================================================================

// SendToBackground 发送请求到后台并等待结果
func (s *Service) SendToBackground(ctx context.Context, action string, data *structpb.Value, opts ...interfaces.CallOption) (*structpb.Value, error) {
	return s.await(ctx, s.SendToBackgroundAsync(action, data, opts...))
}

// SendToContent 发送请求到指定前台上下文并等待结果
func (s *Service) SendToContent(ctx context.Context, destinationID, action string, data *structpb.Value, opts ...interfaces.CallOption) (*structpb.Value, error) {
	return s.await(ctx, s.SendToContentAsync(destinationID, action, data, opts...))
}

// SendToBackgroundAsync 异步发送请求到后台
func (s *Service) SendToBackgroundAsync(action string, data *structpb.Value, opts ...interfaces.CallOption) interfaces.Call {
	return s.send(types.ToBackground(), action, data, opts)
}

// SendToContentAsync 异步发送请求到指定前台上下文
func (s *Service) SendToContentAsync(destinationID, action string, data *structpb.Value, opts ...interfaces.CallOption) interfaces.Call {
	if destinationID == "" {
		return failedCall(fmt.Errorf("%w: empty content id", ErrInvalidDestination))
	}
	return s.send(types.ToContent(destinationID), action, data, opts)
}

// send 出站请求的公共流程
//
// 顺序：生成 ID → 登记条目并启动超时 → 调用传输。条目必须先于发送
// 登记，传输同步失败或立即回复时才能找到它。
func (s *Service) send(dest types.Destination, action string, data *structpb.Value, opts []interfaces.CallOption) *call {
	if s.closed.Load() {
		return failedCall(ErrClosed)
	}
	if err := validateAction(action); err != nil {
		return failedCall(err)
	}

	o := interfaces.CallOptions{Timeout: s.config.Timeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Timeout <= 0 {
		o.Timeout = s.config.Timeout
	}

	id := s.ids.Next()
	c := newCall(id)
	p := &pendingRequest{
		id:      id,
		dest:    dest,
		action:  action,
		timeout: o.Timeout,
		call:    c,
		started: s.clock.Now(),
	}

	s.pending.add(p, s.clock, func() { s.expire(id) })
	s.metrics.pending.Inc()

	// 与 Close 并发时，drain 可能早于登记完成
	if s.closed.Load() {
		if p, ok := s.pending.take(id); ok {
			s.finish(p, nil, ErrClosed, outcomeClosed)
		}
		return c
	}
	s.metrics.sent.WithLabelValues(dest.Kind.String()).Inc()

	logger.Debug("发送请求",
		"context", s.config.ContextName,
		"requestID", id,
		"action", action,
		"destination", dest.String())

	env := types.NewRequest(action, id, data)
	if err := s.sendSafe(dest, env, func(reply *types.Envelope, err error) {
		s.onReply(id, reply, err)
	}); err != nil {
		s.failTransport(id, err)
	}
	return c
}

// sendSafe 调用传输，把 panic 当作同步失败
func (s *Service) sendSafe(dest types.Destination, env *types.Envelope, onReply interfaces.ReplyFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()
	return s.transport.SendRequest(dest, env, onReply)
}

// onReply 传输层回复回调
//
// 成功确认与 response 信封走同一结束路径；失败确认和通道错误立即拒绝；
// 空回复不结束请求，等待异步 response 或超时。
func (s *Service) onReply(id string, reply *types.Envelope, err error) {
	switch {
	case err != nil:
		s.failTransport(id, err)
	case reply == nil:
		return
	default:
		s.settle(id, reply)
	}
}

// await 等待 call 结束；ctx 先结束时移除条目并以 ctx 错误拒绝
func (s *Service) await(ctx context.Context, c interfaces.Call) (*structpb.Value, error) {
	select {
	case <-c.Done():
		return c.Result()
	case <-ctx.Done():
		s.cancelPending(c.ID(), ctx.Err())
		// 其它路径可能刚刚取走条目，等待它完成结束
		<-c.Done()
		return c.Result()
	}
}

// ============================================================================
//                              处理器注册
// ============================================================================

// On 注册处理器
//
// 同一处理器注册两次会在每个请求上被调用两次。
func (s *Service) On(action string, handler interfaces.Handler) (interfaces.HandlerID, error) {
	if err := validateAction(action); err != nil {
		return 0, err
	}
	if handler == nil {
		return 0, ErrNilHandler
	}
	id := s.handlers.Add(action, handler)
	logger.Debug("注册处理程序", "context", s.config.ContextName, "action", action, "handlerID", id)
	return id, nil
}

// Off 注销处理器；不传 id 时移除该动作的全部处理器
func (s *Service) Off(action string, ids ...interfaces.HandlerID) {
	s.handlers.Remove(action, ids...)
}

// Handlers 返回处理器注册表
func (s *Service) Handlers() *HandlerRegistry {
	return s.handlers
}

// ============================================================================
//                              状态与生命周期
// ============================================================================

// ContextName 返回上下文名称
func (s *Service) ContextName() string {
	return s.config.ContextName
}

// PendingCount 当前等待中的出站请求数
func (s *Service) PendingCount() int {
	return s.pending.len()
}

// Gatherer 返回指标采集器；外部注册器不可采集时为 nil
func (s *Service) Gatherer() prometheus.Gatherer {
	return s.gatherer
}

// Close 关闭代理
//
// 全部待处理请求以 ErrClosed 拒绝，解除入站钩子；配置允许时关闭传输。
// 重复调用返回首次结果。
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		s.transport.SetIncomingHandler(nil)

		for _, p := range s.pending.drain() {
			s.finish(p, nil, ErrClosed, outcomeClosed)
		}
		s.handlers.Clear()

		var err error
		if s.config.CloseTransport {
			if closer, ok := s.transport.(io.Closer); ok {
				err = multierr.Append(err, closer.Close())
			}
		}
		err = multierr.Append(err, s.metrics.unregister())
		s.closeErr = err

		logger.Debug("消息代理已关闭", "context", s.config.ContextName)
	})
	return s.closeErr
}

// validateAction 校验动作名称
func validateAction(action string) error {
	if action == "" {
		return fmt.Errorf("%w: action is empty", ErrInvalidAction)
	}
	return nil
}
