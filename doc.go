// Package msgproxy 提供隔离执行上下文之间的请求/响应消息代理
//
// 浏览器扩展一类的宿主只提供无序、发后即忘的消息通道：前台页面
// （content）、后台（background）和特权面板（panel）互不共享内存。
// msgproxy 在这样的通道上加上请求 ID、带超时的待处理表、按动作注册的
// 处理器以及结果聚合，使每次调用都得到且只得到一个结果。
//
// # 核心概念
//
//   - Proxy: 每个上下文一个实例，发送请求并分发入站请求
//   - Transport: 宿主通道的抽象（进程内 Hub、WebSocket 桥接）
//   - Handler: 某个动作的处理函数，同一动作可注册多个
//
// # 快速开始
//
//	hub := msgproxy.NewHub()
//
//	bg, _ := msgproxy.New(hub.Background(), msgproxy.WithContextName("background"))
//	defer bg.Close()
//	bg.On("getVersion", func(ctx context.Context, _ *structpb.Value, _ msgproxy.SenderInfo) (*structpb.Value, error) {
//	    return structpb.NewStringValue("1.2.3"), nil
//	})
//
//	tab, _ := msgproxy.New(hub.Content("42"), msgproxy.WithContextName("content-42"))
//	defer tab.Close()
//	v, err := tab.SendToBackground(ctx, "getVersion", nil, msgproxy.CallTimeout(time.Second))
//
// # 结果
//
// 每个请求恰好以下列之一结束：
//
//   - 对端成功：返回对端数据（多个处理器时为按注册顺序排列的列表）
//   - 对端失败：ErrRemote，错误文本来自对端
//   - 传输失败：ErrTransport（无接收方、通道出错）
//   - 超时：ErrTimeout，错误文本包含目标和动作
//   - 调用方 ctx 结束或代理关闭：ctx 错误 / ErrClosed
//
// # 依赖注入
//
// NewApp 使用 fx 组装单个上下文，Stop 时关闭代理：
//
//	app, _ := msgproxy.NewApp(hub.Content("42"),
//	    msgproxy.WithProxyConfig(cfg.Proxy),
//	)
//	app.Start(ctx)
//	defer app.Stop(ctx)
//	app.Proxy().SendToBackground(ctx, "ping", nil)
package msgproxy
