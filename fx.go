package msgproxy

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-msgproxy/config"
	"github.com/dep2p/go-msgproxy/internal/proxy"
	"github.com/dep2p/go-msgproxy/pkg/interfaces"
	"github.com/dep2p/go-msgproxy/pkg/lib/log"
)

var fxLogger = log.Logger("msgproxy/fx")

// App 一个执行上下文的 fx 应用
//
// 组装代理模块并把代理的关闭挂到 fx 生命周期上。
type App struct {
	app   *fx.App
	proxy *Proxy
}

// AppOption 应用选项
type AppOption func(*appOptions)

type appOptions struct {
	config *config.ProxyConfig
	zap    *zap.Logger
	extra  []fx.Option
}

// WithProxyConfig 使用给定的代理配置
func WithProxyConfig(cfg config.ProxyConfig) AppOption {
	return func(o *appOptions) {
		o.config = &cfg
	}
}

// WithFxLogger 输出 fx 事件日志；默认丢弃
func WithFxLogger(l *zap.Logger) AppOption {
	return func(o *appOptions) {
		o.zap = l
	}
}

// WithFxOptions 追加自定义 fx 选项
func WithFxOptions(opts ...fx.Option) AppOption {
	return func(o *appOptions) {
		o.extra = append(o.extra, opts...)
	}
}

// NewApp 构建 fx 应用
//
// 加载顺序：
//  1. 配置验证
//  2. 传输与配置注入
//  3. 代理模块（Provide + 生命周期）
//  4. 用户扩展选项
func NewApp(transport Transport, opts ...AppOption) (*App, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}

	o := &appOptions{zap: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.config == nil {
		cfg := config.DefaultProxyConfig()
		o.config = &cfg
	}
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	a := &App{}
	modules := []fx.Option{
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: o.zap}
		}),
		fx.Supply(fx.Annotate(transport, fx.As(new(interfaces.Transport)))),
		fx.Supply(o.config),
		proxy.Module(),
		fx.Populate(&a.proxy),
	}
	modules = append(modules, o.extra...)

	a.app = fx.New(modules...)
	if err := a.app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}

	fxLogger.Debug("fx 应用已构建", "context", o.config.ContextName)
	return a, nil
}

// Start 启动应用
func (a *App) Start(ctx context.Context) error {
	return a.app.Start(ctx)
}

// Stop 停止应用，代理随之关闭
func (a *App) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

// Proxy 返回本上下文的代理
func (a *App) Proxy() *Proxy {
	return a.proxy
}
