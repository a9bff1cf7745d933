package proxy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-msgproxy/pkg/interfaces"
	"github.com/dep2p/go-msgproxy/pkg/lib/log"
	"github.com/dep2p/go-msgproxy/pkg/types"
)

// ============================================================================
//                              入站分发
// ============================================================================

// handleIncoming 入站信封的唯一入口
//
// 返回 true 表示稍后异步调用 respond。
func (s *Service) handleIncoming(env *types.Envelope, sender types.SenderInfo, respond interfaces.Responder) bool {
	if env == nil {
		return false
	}

	switch env.Type {
	case types.KindResponse:
		s.handleResponse(env)
		return false
	case types.KindRequest:
		return s.handleRequest(env, sender, respond)
	default:
		logger.Debug("忽略未知类型信封", "context", s.config.ContextName, "type", env.Type)
		return false
	}
}

// handleResponse 处理响应信封
func (s *Service) handleResponse(env *types.Envelope) {
	if env.RequestID == "" {
		s.dropResponse(env.RequestID)
		return
	}
	s.settle(env.RequestID, env)
}

// handleRequest 处理请求信封
func (s *Service) handleRequest(env *types.Envelope, sender types.SenderInfo, respond interfaces.Responder) bool {
	if env.Action == "" {
		logger.Debug("忽略缺少 action 的请求", "context", s.config.ContextName, "requestID", env.RequestID)
		return false
	}
	if respond == nil {
		respond = func(*types.Envelope) {}
	}

	handlers := s.handlers.Get(env.Action)
	if len(handlers) == 0 {
		s.metrics.inbound.WithLabelValues(inboundNoHandler).Inc()
		logger.Debug("未找到处理程序", "context", s.config.ContextName, "action", env.Action)
		respond(types.NewFailure(env.RequestID, fmt.Sprintf(noHandlerFormat, env.Action)))
		return false
	}

	go s.serveRequest(env, sender, handlers, respond)
	return true
}

// serveRequest 调用全部处理器并回复聚合结果
func (s *Service) serveRequest(env *types.Envelope, sender types.SenderInfo, handlers []interfaces.Handler, respond interfaces.Responder) {
	ctx, cancel := context.WithTimeout(s.ctx, s.config.HandlerTimeout)
	defer cancel()

	value, err := s.invokeAll(ctx, handlers, env.Data, sender)
	if err != nil {
		s.metrics.inbound.WithLabelValues(inboundFailed).Inc()
		logger.Debug("处理请求失败",
			"context", s.config.ContextName,
			"action", env.Action,
			"requestID", env.RequestID,
			"error", err)
		respond(types.NewFailure(env.RequestID, failureMessage(err)))
		return
	}

	s.metrics.inbound.WithLabelValues(inboundOK).Inc()
	respond(types.NewSuccess(env.RequestID, value))
}

// invokeAll 按注册顺序进入全部处理器并等待结果
//
// 处理器 i 在处理器 i-1 进入之后才进入，进入后并发运行。任一处理器
// 失败时组内 context 被取消，不等待后注册的处理器；回复的错误总是
// 最早注册的失败处理器的错误。只有一个处理器时直接返回其结果，否则
// 返回按注册顺序排列的列表值。
func (s *Service) invokeAll(ctx context.Context, handlers []interfaces.Handler, data *structpb.Value, sender types.SenderInfo) (*structpb.Value, error) {
	g, gctx := errgroup.WithContext(ctx)

	n := len(handlers)
	f := newFanOut(n)
	finished := make(chan struct{}, n)
	started := make([]chan struct{}, n)
	for i := range started {
		started[i] = make(chan struct{})
	}

	for i, h := range handlers {
		input := data
		if n > 1 && data != nil {
			// 每个处理器拿到独立副本
			input = proto.Clone(data).(*structpb.Value)
		}
		g.Go(func() error {
			if i > 0 {
				<-started[i-1]
			}
			close(started[i])

			v, err := invokeHandler(gctx, h, input, sender)
			err = f.record(i, v, err)
			finished <- struct{}{}
			return err
		})
	}

	for remaining := n; remaining > 0; {
		select {
		case <-finished:
			remaining--
			if err := f.firstFailure(true); err != nil {
				return nil, err
			}
		case <-ctx.Done():
			if err := f.firstFailure(false); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("handler did not finish: %w", ctx.Err())
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if n == 1 {
		return f.results[0], nil
	}
	return types.ListValue(f.results), nil
}

// fanOut 一次入站请求中各处理器的结果
type fanOut struct {
	mu      sync.Mutex
	results []*structpb.Value
	errs    []error
	done    []bool
	failed  bool
}

func newFanOut(n int) *fanOut {
	return &fanOut{
		results: make([]*structpb.Value, n),
		errs:    make([]error, n),
		done:    make([]bool, n),
	}
}

// record 记录处理器 i 的结果
//
// 已有处理器失败后，因组内取消而返回的 context.Canceled 不算失败。
func (f *fanOut) record(i int, v *structpb.Value, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.done[i] = true
	if err != nil && f.failed && errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		f.errs[i] = err
		f.failed = true
		return err
	}
	f.results[i] = v
	return nil
}

// firstFailure 返回注册顺序上最早的失败
//
// settled 为 true 时，只有其之前的处理器都已结束才返回该失败。
func (f *fanOut) firstFailure(settled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, err := range f.errs {
		if err != nil {
			return err
		}
		if settled && !f.done[i] {
			return nil
		}
	}
	return nil
}

// invokeHandler 调用单个处理器，把 panic 转为错误
func invokeHandler(ctx context.Context, h interfaces.Handler, data *structpb.Value, sender types.SenderInfo) (v *structpb.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			if e, ok := r.(error); ok {
				err = e
				return
			}
			logger.Warn("处理程序 panic", "value", fmt.Sprint(r))
			err = errHandlerPanic
		}
	}()
	return h(ctx, data, sender)
}

// failureMessage 失败回复中的错误文本
func failureMessage(err error) string {
	if err == nil || err.Error() == "" {
		return errHandlerPanic.Error()
	}
	return err.Error()
}

// ============================================================================
//                              出站结果
// ============================================================================

// settle 用响应或确认结束请求
func (s *Service) settle(id string, env *types.Envelope) {
	p, ok := s.pending.take(id)
	if !ok {
		s.dropResponse(id)
		return
	}

	if env.Failed() {
		msg := env.Error
		if msg == "" {
			msg = unknownErrorMessage
		}
		s.finish(p, nil, &RemoteError{Action: p.action, Message: msg}, outcomeRejected)
		return
	}
	s.finish(p, env.Data, nil, outcomeResolved)
}

// expire 超时定时器回调
func (s *Service) expire(id string) {
	p, ok := s.pending.take(id)
	if !ok {
		return
	}
	s.finish(p, nil, &TimeoutError{Destination: p.dest, Action: p.action, After: p.timeout}, outcomeTimeout)
}

// failTransport 传输层报告失败
func (s *Service) failTransport(id string, cause error) {
	p, ok := s.pending.take(id)
	if !ok {
		return
	}
	s.finish(p, nil, &TransportError{Destination: p.dest, Err: cause}, outcomeTransportError)
}

// cancelPending 调用方 ctx 结束
func (s *Service) cancelPending(id string, cause error) {
	p, ok := s.pending.take(id)
	if !ok {
		return
	}
	s.finish(p, nil, cause, outcomeCancelled)
}

// finish 结束已从表中取出的请求
func (s *Service) finish(p *pendingRequest, v *structpb.Value, err error, outcome string) {
	s.metrics.pending.Dec()
	s.metrics.settled.WithLabelValues(outcome).Inc()
	s.metrics.duration.Observe(s.clock.Since(p.started).Seconds())

	if err != nil {
		p.call.reject(err)
		level := logger.Debug
		if errors.Is(err, ErrTimeout) {
			level = logger.Warn
		}
		level("请求失败",
			"context", s.config.ContextName,
			"requestID", p.id,
			"action", p.action,
			"destination", p.dest.String(),
			"outcome", outcome,
			"error", err)
		return
	}

	p.call.resolve(v)
	logger.Debug("请求完成",
		"context", s.config.ContextName,
		"requestID", p.id,
		"action", p.action,
		"destination", p.dest.String())
}

// dropResponse 丢弃无法匹配的响应
func (s *Service) dropResponse(id string) {
	reason := dropUnknown
	if id != "" && s.pending.wasSettled(id) {
		reason = dropDuplicate
	}
	s.metrics.dropped.WithLabelValues(reason).Inc()
	logger.Debug("丢弃响应", "context", s.config.ContextName, "requestID", log.TruncateID(id, 32), "reason", reason)
}
