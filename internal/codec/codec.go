// Package codec 实现信封的线上编解码
//
// 线上格式为 JSON 对象：
//
//	{ "type": "request"|"response", "action"?: string, "data"?: any,
//	  "requestId": string, "success"?: bool, "error"?: string }
//
// action 仅出现在 request；success/error 仅出现在 response；
// data 使用 protojson 在 structpb.Value 与任意 JSON 值之间转换。
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dep2p/go-msgproxy/pkg/types"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrInvalidEnvelope 无效的信封
var ErrInvalidEnvelope = types.ErrInvalidEnvelope

// errEmpty 空数据
var errEmpty = errors.New("empty data")

// wireEnvelope 信封线上格式
type wireEnvelope struct {
	Type      string          `json:"type"`
	Action    string          `json:"action,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID string          `json:"requestId"`
	Success   *bool           `json:"success,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Encode 将信封编码为 JSON
func Encode(env *types.Envelope) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: envelope is nil", ErrInvalidEnvelope)
	}
	if !env.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidEnvelope, env.Type)
	}

	wire := wireEnvelope{
		Type:      string(env.Type),
		RequestID: env.RequestID,
	}

	switch env.Type {
	case types.KindRequest:
		if env.Action == "" {
			return nil, fmt.Errorf("%w: request without action", ErrInvalidEnvelope)
		}
		wire.Action = env.Action
	case types.KindResponse:
		success := env.Success
		wire.Success = &success
		wire.Error = env.Error
	}

	if env.Data != nil {
		data, err := protojson.Marshal(env.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}
		wire.Data = data
	}

	out, err := json.Marshal(&wire)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return out, nil
}

// Decode 从 JSON 解码信封
//
// 不认识的 type 和缺少 action 的 request 返回 ErrInvalidEnvelope。
// response 的 requestId 可以为空（通过回复回调送达的确认不需要关联）。
func Decode(data []byte) (*types.Envelope, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, errEmpty)
	}

	var wire wireEnvelope
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	env := &types.Envelope{
		Type:      types.Kind(wire.Type),
		RequestID: wire.RequestID,
	}

	switch env.Type {
	case types.KindRequest:
		if wire.Action == "" {
			return nil, fmt.Errorf("%w: request without action", ErrInvalidEnvelope)
		}
		env.Action = wire.Action
	case types.KindResponse:
		env.Success = wire.Success != nil && *wire.Success
		env.Error = wire.Error
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidEnvelope, wire.Type)
	}

	if len(wire.Data) > 0 {
		v := &structpb.Value{}
		if err := protojson.Unmarshal(wire.Data, v); err != nil {
			return nil, fmt.Errorf("%w: bad data: %v", ErrInvalidEnvelope, err)
		}
		env.Data = v
	}

	return env, nil
}

// Copy 通过一次编解码复制信封
//
// 用于模拟上下文之间不共享内存：接收方拿到的永远是独立副本。
func Copy(env *types.Envelope) (*types.Envelope, error) {
	data, err := Encode(env)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
