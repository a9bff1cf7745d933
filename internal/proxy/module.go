package proxy

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-msgproxy/config"
	"github.com/dep2p/go-msgproxy/pkg/interfaces"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Transport 宿主传输（必需）
	Transport interfaces.Transport

	// Config 代理配置（可选）
	Config *config.ProxyConfig `optional:"true"`

	// Registerer 指标注册器（可选）
	Registerer prometheus.Registerer `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Service 代理实现
	Service *Service

	// MessageProxy 面向应用代码的接口
	MessageProxy interfaces.MessageProxy
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	opts := OptionsFromConfig(input.Config)
	if input.Registerer != nil {
		opts = append(opts, WithRegisterer(input.Registerer))
	}

	svc, err := New(input.Transport, opts...)
	if err != nil {
		return ModuleOutput{}, err
	}

	return ModuleOutput{
		Service:      svc,
		MessageProxy: svc,
	}, nil
}

// OptionsFromConfig 将配置转换为选项
func OptionsFromConfig(cfg *config.ProxyConfig) []Option {
	if cfg == nil {
		return nil
	}
	return []Option{
		WithContextName(cfg.ContextName),
		WithTimeout(cfg.DefaultTimeout.Duration()),
		WithHandlerTimeout(cfg.HandlerTimeout.Duration()),
		WithSettledCacheSize(cfg.SettledCacheSize),
	}
}

// ============================================================================
//                              模块定义
// ============================================================================

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("proxy",
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC      fx.Lifecycle
	Service *Service
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("消息代理启动", "context", input.Service.ContextName())
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info("消息代理停止", "context", input.Service.ContextName())
			return input.Service.Close()
		},
	})
}
