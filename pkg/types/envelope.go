package types

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Kind 信封类型
type Kind string

const (
	// KindRequest 请求信封
	KindRequest Kind = "request"

	// KindResponse 响应信封
	KindResponse Kind = "response"
)

// String 返回类型字符串
func (k Kind) String() string {
	return string(k)
}

// Valid 检查是否为已知类型
func (k Kind) Valid() bool {
	return k == KindRequest || k == KindResponse
}

// ============================================================================
//                              Envelope
// ============================================================================

// Envelope 在传输层上交换的唯一消息单元
//
// 线上格式：
//
//	{ type, action?, data?, requestId, success?, error? }
//
// Action 仅出现在 request 上；Success/Error 仅出现在 response 上。
type Envelope struct {
	// Type 信封类型
	Type Kind

	// Action 操作名称（request）
	Action string

	// RequestID 请求 ID，用于关联请求与响应
	RequestID string

	// Data 请求负载或响应结果
	Data *structpb.Value

	// Success 处理是否成功（response）
	Success bool

	// Error 失败原因（response）
	Error string
}

// NewRequest 创建请求信封
func NewRequest(action, requestID string, data *structpb.Value) *Envelope {
	return &Envelope{
		Type:      KindRequest,
		Action:    action,
		RequestID: requestID,
		Data:      data,
	}
}

// NewSuccess 创建成功响应信封
func NewSuccess(requestID string, data *structpb.Value) *Envelope {
	return &Envelope{
		Type:      KindResponse,
		RequestID: requestID,
		Data:      data,
		Success:   true,
	}
}

// NewFailure 创建失败响应信封
func NewFailure(requestID, message string) *Envelope {
	return &Envelope{
		Type:      KindResponse,
		RequestID: requestID,
		Success:   false,
		Error:     message,
	}
}

// IsRequest 是否为请求信封
func (e *Envelope) IsRequest() bool {
	return e != nil && e.Type == KindRequest
}

// IsResponse 是否为响应信封
func (e *Envelope) IsResponse() bool {
	return e != nil && e.Type == KindResponse
}

// Failed 响应是否表示失败
//
// 携带错误文本或 Success 为 false 都视为失败。
func (e *Envelope) Failed() bool {
	return e.Error != "" || !e.Success
}

// Validate 校验信封
//
// 请求必须带 action 和 requestId；响应必须带 requestId。
func (e *Envelope) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil", ErrInvalidEnvelope)
	}
	switch e.Type {
	case KindRequest:
		if e.Action == "" {
			return fmt.Errorf("%w: request without action", ErrInvalidEnvelope)
		}
		if e.RequestID == "" {
			return fmt.Errorf("%w: request without requestId", ErrInvalidEnvelope)
		}
	case KindResponse:
		if e.RequestID == "" {
			return fmt.Errorf("%w: response without requestId", ErrInvalidEnvelope)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEnvelope, e.Type)
	}
	return nil
}

// Clone 深拷贝信封
func (e *Envelope) Clone() *Envelope {
	if e == nil {
		return nil
	}
	c := *e
	if e.Data != nil {
		c.Data = proto.Clone(e.Data).(*structpb.Value)
	}
	return &c
}
