package types

import "fmt"

// DestinationKind 发送目标类型
type DestinationKind int

const (
	// DestinationBackground 特权后台上下文（无需地址）
	DestinationBackground DestinationKind = iota

	// DestinationContent 由 ID 标识的前台页面上下文
	DestinationContent
)

// String 返回目标类型字符串
func (k DestinationKind) String() string {
	switch k {
	case DestinationBackground:
		return "background"
	case DestinationContent:
		return "content"
	default:
		return "unknown"
	}
}

// Destination 请求的发送目标
type Destination struct {
	Kind DestinationKind

	// ID 前台上下文 ID（仅 content）
	ID string
}

// ToBackground 返回后台目标
func ToBackground() Destination {
	return Destination{Kind: DestinationBackground}
}

// ToContent 返回指定前台上下文目标
func ToContent(id string) Destination {
	return Destination{Kind: DestinationContent, ID: id}
}

// IsBackground 是否为后台目标
func (d Destination) IsBackground() bool {
	return d.Kind == DestinationBackground
}

// String 返回用于日志和错误信息的描述
func (d Destination) String() string {
	if d.Kind == DestinationContent {
		return fmt.Sprintf("content %s", d.ID)
	}
	return d.Kind.String()
}
