// Package proxy 实现跨执行上下文的请求/响应多路复用
//
// 前台页面脚本、后台 service worker 和特权面板之间只有一条共享的、
// 无序的、发出即忘的传输通道。proxy 在其上提供：
//
//  1. 请求 ID 生成 - 每个上下文生命周期内唯一
//  2. 待处理请求表 - 每个出站请求一个条目和一个独立的超时定时器
//  3. 处理器注册表 - 动作名 → 按注册顺序排列的处理器序列
//  4. 分发器 - 区分 request / response 并路由
//  5. 结果聚合 - 处理器按注册顺序进入，结果按注册顺序合并；失败时回复最早注册的失败
//
// # 使用示例
//
//	svc, err := proxy.New(transport, proxy.WithTimeout(2*time.Second))
//	if err != nil {
//	    return err
//	}
//	defer svc.Close()
//
//	// 注册处理器
//	svc.On("getVersion", func(ctx context.Context, data *structpb.Value, sender types.SenderInfo) (*structpb.Value, error) {
//	    return structpb.NewStringValue("1.0.0"), nil
//	})
//
//	// 向后台发送请求
//	v, err := svc.SendToBackground(ctx, "getVersion", nil)
//
//	// 向前台页面发送请求
//	v, err = svc.SendToContent(ctx, "42", "highlight", data, interfaces.WithTimeout(time.Second))
//
// # 结束保证
//
// 每个请求只会以下列方式之一结束一次：匹配的响应、同步确认、传输失败、
// 超时、调用方 ctx 结束或 Close。所有路径都先从表中原子地取出条目，
// 取出失败的一方什么也不做；迟到或重复的响应被静默丢弃。
//
// # 错误处理
//
//   - ErrTimeout: 超时窗口内没有结果（*TimeoutError）
//   - ErrTransport: 无接收方或通道出错（*TransportError）
//   - ErrRemote: 对端回复失败，包括对端没有处理器（*RemoteError）
//   - ErrClosed: 代理已关闭
//   - ErrInvalidAction / ErrInvalidDestination: 参数无效，不会触达传输层
//
// # Fx 集成
//
//	app := fx.New(
//	    fx.Supply(fx.Annotate(transport, fx.As(new(interfaces.Transport)))),
//	    proxy.Module(),
//	)
package proxy
