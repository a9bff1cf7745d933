package types

// ContextKind 执行上下文类型
type ContextKind string

const (
	// ContextBackground 后台 / service worker
	ContextBackground ContextKind = "background"

	// ContextContent 前台页面脚本
	ContextContent ContextKind = "content"

	// ContextPanel 特权面板（popup / 侧边栏）
	ContextPanel ContextKind = "panel"
)

// SenderInfo 入站信封的发送方元数据
//
// 由宿主（传输层）填充，原样交给处理器。
type SenderInfo struct {
	// ContextID 发送方上下文 ID（content 为页面 ID）
	ContextID string

	// Kind 发送方上下文类型
	Kind ContextKind

	// URL 发送方页面地址（可选）
	URL string
}
