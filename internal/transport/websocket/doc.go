// Package websocket 提供跨进程桥接传输
//
// 后台进程运行 Server（http.Handler），外部页面或面板通过 Dial 连接，
// 连接时以 ?context=<id> 声明自己的页面 ID。之后：
//
//   - Server 实现后台上下文的 Transport，SendRequest(ToContent(id))
//     经该连接写出请求帧；
//   - Client 实现页面上下文的 Transport，SendRequest(ToBackground())
//     写出请求帧。
//
// 帧是 codec 编码的 JSON 信封。响应帧回到发送方的入站钩子，由代理的
// 响应路径关联，不经过 onReply；写失败以 onReply(nil, err) 报告。
package websocket
