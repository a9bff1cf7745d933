package msgproxy

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-msgproxy/internal/proxy"
	"github.com/dep2p/go-msgproxy/internal/transport/memory"
	"github.com/dep2p/go-msgproxy/pkg/interfaces"
	"github.com/dep2p/go-msgproxy/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              版本信息
// ════════════════════════════════════════════════════════════════════════════

// Version 当前版本
const Version = "v0.1.0"

// BuildInfo 构建信息（通过 ldflags 注入）
var (
	// GitCommit Git 提交哈希
	GitCommit string

	// BuildDate 构建日期
	BuildDate string
)

// VersionInfo 返回完整版本信息字符串
func VersionInfo() string {
	info := "msgproxy " + Version
	if GitCommit != "" {
		info += " (" + GitCommit[:min(8, len(GitCommit))] + ")"
	}
	if BuildDate != "" {
		info += " built " + BuildDate
	}
	return info
}

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

type (
	// Proxy 消息代理实现
	Proxy = proxy.Service

	// MessageProxy 应用代码面向的接口
	MessageProxy = interfaces.MessageProxy

	// Transport 宿主传输契约
	Transport = interfaces.Transport

	// Handler 动作处理器
	Handler = interfaces.Handler

	// HandlerID 处理器注册标识
	HandlerID = interfaces.HandlerID

	// Call 异步请求的结果
	Call = interfaces.Call

	// CallOption 单次请求选项
	CallOption = interfaces.CallOption

	// Envelope 线上信封
	Envelope = types.Envelope

	// Destination 请求目标
	Destination = types.Destination

	// SenderInfo 发送方信息
	SenderInfo = types.SenderInfo

	// Option 代理选项
	Option = proxy.Option

	// Hub 进程内模拟宿主
	Hub = memory.Hub
)

// ════════════════════════════════════════════════════════════════════════════
//                              构造
// ════════════════════════════════════════════════════════════════════════════

// New 在给定传输上创建消息代理
//
//	hub := msgproxy.NewHub()
//	bg, _ := msgproxy.New(hub.Background(), msgproxy.WithContextName("background"))
//	bg.On("getVersion", func(ctx context.Context, _ *structpb.Value, _ msgproxy.SenderInfo) (*structpb.Value, error) {
//	    return structpb.NewStringValue(msgproxy.Version), nil
//	})
func New(transport Transport, opts ...Option) (*Proxy, error) {
	return proxy.New(transport, opts...)
}

// NewHub 创建进程内模拟宿主
func NewHub(opts ...memory.Option) *Hub {
	return memory.NewHub(opts...)
}

// 代理选项
var (
	WithTimeout          = proxy.WithTimeout
	WithHandlerTimeout   = proxy.WithHandlerTimeout
	WithSettledCacheSize = proxy.WithSettledCacheSize
	WithContextName      = proxy.WithContextName
	WithClock            = proxy.WithClock
	WithRegisterer       = proxy.WithRegisterer
	WithCloseTransport   = proxy.WithCloseTransport
)

// CallTimeout 设置单次请求超时
func CallTimeout(d time.Duration) CallOption {
	return interfaces.WithTimeout(d)
}

// 目标构造
var (
	ToBackground = types.ToBackground
	ToContent    = types.ToContent
)

// Value 把 Go 值转换为载荷；不支持的类型 panic
func Value(v any) *structpb.Value {
	return types.MustValue(v)
}
