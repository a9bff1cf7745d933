package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-msgproxy"
)

// scenario 一个端到端场景
type scenario struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// runScenarios 依次执行场景并打印结果，返回失败数
func runScenarios(ctx context.Context, hub *msgproxy.Hub, env *contexts) int {
	bg := env.background.Proxy()

	var list []scenario
	for _, id := range env.tabIDs {
		tab := env.tabs[id].Proxy()
		list = append(list,
			scenario{
				name: "content " + id + " -> background getVersion",
				run: func(ctx context.Context) (string, error) {
					v, err := tab.SendToBackground(ctx, "getVersion", nil)
					return render(v), err
				},
			},
			scenario{
				name: "background -> content " + id + " highlight",
				run: func(ctx context.Context) (string, error) {
					v, err := bg.SendToContent(ctx, id, "highlight", structpb.NewStringValue("#main"))
					return render(v), err
				},
			},
			scenario{
				name: "background -> content " + id + " collect (two handlers)",
				run: func(ctx context.Context) (string, error) {
					v, err := bg.SendToContent(ctx, id, "collect", nil)
					return render(v), err
				},
			},
		)
	}

	if len(env.tabIDs) > 0 {
		tab := env.tabs[env.tabIDs[0]].Proxy()
		list = append(list,
			scenario{
				name: "concurrent echo {v:1} / {v:2}",
				run: func(ctx context.Context) (string, error) {
					return concurrentEcho(ctx, tab)
				},
			},
			scenario{
				name: "unknown action",
				run: func(ctx context.Context) (string, error) {
					_, err := tab.SendToBackground(ctx, "noSuchAction", nil)
					return expect(err, msgproxy.ErrRemote)
				},
			},
			scenario{
				name: "dropped request times out",
				run: func(ctx context.Context) (string, error) {
					hub.SetDropRequests(true)
					defer hub.SetDropRequests(false)
					_, err := tab.SendToBackground(ctx, "getVersion", nil, msgproxy.CallTimeout(100*time.Millisecond))
					return expect(err, msgproxy.ErrTimeout)
				},
			},
		)
	}

	list = append(list, scenario{
		name: "background -> missing content",
		run: func(ctx context.Context) (string, error) {
			_, err := bg.SendToContent(ctx, "404", "highlight", nil)
			return expect(err, msgproxy.ErrTransport)
		},
	})

	failed := 0
	for _, s := range list {
		out, err := s.run(ctx)
		if err != nil {
			failed++
			fmt.Printf("  ✗ %-48s %v\n", s.name, err)
			logger.Warn("场景失败", "scenario", s.name, "error", err)
			continue
		}
		fmt.Printf("  ✓ %-48s %s\n", s.name, out)
	}
	return failed
}

// concurrentEcho 两个并发请求各自拿到自己的结果
func concurrentEcho(ctx context.Context, p *msgproxy.Proxy) (string, error) {
	inputs := []*structpb.Value{
		msgproxy.Value(map[string]any{"v": 1}),
		msgproxy.Value(map[string]any{"v": 2}),
	}
	outputs := make([]*structpb.Value, len(inputs))
	errs := make([]error, len(inputs))

	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outputs[i], errs[i] = p.SendToBackground(ctx, "echo", in)
		}()
	}
	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return "", err
	}
	for i := range inputs {
		if !proto.Equal(inputs[i], outputs[i]) {
			return "", fmt.Errorf("reply %d mismatched: %s", i, render(outputs[i]))
		}
	}
	return render(outputs[0]) + " " + render(outputs[1]), nil
}

// expect 期望失败的场景：错误类别符合时视为通过
func expect(err, want error) (string, error) {
	if err == nil {
		return "", fmt.Errorf("expected %v, got success", want)
	}
	if !errors.Is(err, want) {
		return "", fmt.Errorf("expected %v, got %w", want, err)
	}
	return err.Error(), nil
}

func render(v *structpb.Value) string {
	if v == nil {
		return "null"
	}
	b, err := protojson.Marshal(v)
	if err != nil {
		return v.String()
	}
	return string(b)
}
