package main

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-msgproxy"
	"github.com/dep2p/go-msgproxy/config"
)

// contexts 演示用的上下文集合
type contexts struct {
	background *msgproxy.App
	tabs       map[string]*msgproxy.App
	tabIDs     []string
}

// startContexts 为后台和每个页面各启动一个 fx 应用
func startContexts(ctx context.Context, hub *msgproxy.Hub, cfg *config.Config, zl *zap.Logger) (*contexts, error) {
	env := &contexts{tabs: make(map[string]*msgproxy.App)}

	bg, err := msgproxy.NewApp(hub.Background(),
		msgproxy.WithProxyConfig(cfg.Proxy.WithContextName("background")),
		msgproxy.WithFxLogger(zl),
	)
	if err != nil {
		return nil, fmt.Errorf("创建后台上下文失败: %w", err)
	}
	if err := bg.Start(ctx); err != nil {
		return nil, fmt.Errorf("启动后台上下文失败: %w", err)
	}
	env.background = bg
	if err := registerBackgroundHandlers(bg.Proxy()); err != nil {
		return nil, err
	}

	for i := 1; i <= *tabs; i++ {
		id := strconv.Itoa(i)
		app, err := msgproxy.NewApp(hub.Content(id, "https://example.com/tab/"+id),
			msgproxy.WithProxyConfig(cfg.Proxy.WithContextName("content-"+id)),
			msgproxy.WithFxLogger(zl),
		)
		if err != nil {
			return nil, fmt.Errorf("创建页面上下文 %s 失败: %w", id, err)
		}
		if err := app.Start(ctx); err != nil {
			return nil, fmt.Errorf("启动页面上下文 %s 失败: %w", id, err)
		}
		env.tabs[id] = app
		env.tabIDs = append(env.tabIDs, id)

		if err := registerContentHandlers(app.Proxy(), id); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// all 返回全部代理
func (c *contexts) all() []*msgproxy.Proxy {
	out := []*msgproxy.Proxy{c.background.Proxy()}
	for _, id := range c.tabIDs {
		out = append(out, c.tabs[id].Proxy())
	}
	return out
}

// stop 依次停止页面和后台
func (c *contexts) stop(ctx context.Context) error {
	var err error
	for _, id := range c.tabIDs {
		err = multierr.Append(err, c.tabs[id].Stop(ctx))
	}
	if c.background != nil {
		err = multierr.Append(err, c.background.Stop(ctx))
	}
	return err
}

// registerBackgroundHandlers 后台动作
func registerBackgroundHandlers(p *msgproxy.Proxy) error {
	handlers := map[string]msgproxy.Handler{
		"getVersion": func(context.Context, *structpb.Value, msgproxy.SenderInfo) (*structpb.Value, error) {
			return structpb.NewStringValue(msgproxy.Version), nil
		},
		"echo": func(_ context.Context, data *structpb.Value, _ msgproxy.SenderInfo) (*structpb.Value, error) {
			return data, nil
		},
		"ping": func(_ context.Context, _ *structpb.Value, sender msgproxy.SenderInfo) (*structpb.Value, error) {
			return structpb.NewStringValue("pong from background to " + sender.ContextID), nil
		},
	}
	for action, h := range handlers {
		if _, err := p.On(action, h); err != nil {
			return fmt.Errorf("注册 %s 失败: %w", action, err)
		}
	}
	return nil
}

// registerContentHandlers 页面动作
func registerContentHandlers(p *msgproxy.Proxy, id string) error {
	_, err := p.On("highlight", func(_ context.Context, data *structpb.Value, _ msgproxy.SenderInfo) (*structpb.Value, error) {
		return msgproxy.Value(map[string]any{
			"tab":      id,
			"selector": data.GetStringValue(),
			"count":    1,
		}), nil
	})
	if err != nil {
		return err
	}
	// 同一动作的第二个处理器：结果按注册顺序聚合成列表
	_, err = p.On("collect", func(context.Context, *structpb.Value, msgproxy.SenderInfo) (*structpb.Value, error) {
		return structpb.NewStringValue("title of tab " + id), nil
	})
	if err != nil {
		return err
	}
	_, err = p.On("collect", func(context.Context, *structpb.Value, msgproxy.SenderInfo) (*structpb.Value, error) {
		return structpb.NewStringValue("https://example.com/tab/" + id), nil
	})
	return err
}
