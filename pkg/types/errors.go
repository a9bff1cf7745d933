package types

import "errors"

// 公共错误定义
var (
	// ErrInvalidEnvelope 信封格式无效
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// ErrUnsupportedValue 无法转换为负载值
	ErrUnsupportedValue = errors.New("unsupported payload value")
)
