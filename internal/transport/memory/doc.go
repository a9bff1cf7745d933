// Package memory 提供进程内模拟宿主
//
// Hub 扮演浏览器运行时：一个后台上下文，任意数量的前台页面上下文
// （按 ID 区分）和面板上下文。每个上下文拿到自己的 *Transport，
// 实现 interfaces.Transport 和 io.Closer。
//
// 路由规则：
//
//	content/panel -> background        可达
//	background/panel -> content <id>   可达（页面需已挂接）
//	background -> background           无接收方
//	content -> content                 同步失败 ErrUnsupportedRoute
//
// 信封在跨越上下文时都经过 codec 编解码，双方不共享内存。
// 投递在独立 goroutine 中进行，不保证顺序。
//
// 使用示例：
//
//	hub := memory.NewHub()
//	bg, _ := proxy.New(hub.Background(), proxy.WithContextName("background"))
//	tab, _ := proxy.New(hub.Content("42"), proxy.WithContextName("content-42"))
package memory
