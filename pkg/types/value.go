package types

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// NewValue 将 Go 值转换为负载值
//
// 支持 structpb.NewValue 可接受的类型（nil、bool、数字、string、
// []any、map[string]any 等）；*structpb.Value 原样返回。
func NewValue(v any) (*structpb.Value, error) {
	if pv, ok := v.(*structpb.Value); ok {
		return pv, nil
	}
	pv, err := structpb.NewValue(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	return pv, nil
}

// MustValue 同 NewValue，失败时 panic
//
// 仅用于常量负载和测试代码。
func MustValue(v any) *structpb.Value {
	pv, err := NewValue(v)
	if err != nil {
		panic(err)
	}
	return pv
}

// ListValue 将多个负载值按顺序组合为列表值
func ListValue(values []*structpb.Value) *structpb.Value {
	items := make([]*structpb.Value, len(values))
	for i, v := range values {
		if v == nil {
			v = structpb.NewNullValue()
		}
		items[i] = v
	}
	return structpb.NewListValue(&structpb.ListValue{Values: items})
}
