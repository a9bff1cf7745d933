package proxy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-msgproxy/pkg/interfaces"
	"github.com/dep2p/go-msgproxy/pkg/types"
)

func constHandler(s string) interfaces.Handler {
	return func(context.Context, *structpb.Value, types.SenderInfo) (*structpb.Value, error) {
		return structpb.NewStringValue(s), nil
	}
}

// call 按顺序执行处理器，返回结果文本
func callAll(handlers []interfaces.Handler) []string {
	out := make([]string, 0, len(handlers))
	for _, h := range handlers {
		v, _ := h(context.Background(), nil, types.SenderInfo{})
		out = append(out, v.GetStringValue())
	}
	return out
}

func TestHandlerRegistry_AddKeepsOrder(t *testing.T) {
	r := NewHandlerRegistry()
	r.Add("ping", constHandler("a"))
	r.Add("ping", constHandler("b"))
	r.Add("ping", constHandler("c"))

	assert.Equal(t, []string{"a", "b", "c"}, callAll(r.Get("ping")))
	assert.Equal(t, 3, r.Count("ping"))
}

func TestHandlerRegistry_IDsUnique(t *testing.T) {
	r := NewHandlerRegistry()
	h := constHandler("x")
	id1 := r.Add("ping", h)
	id2 := r.Add("ping", h)
	id3 := r.Add("pong", h)

	assert.NotEqual(t, id1, id2)
	assert.NotEqual(t, id2, id3)
}

func TestHandlerRegistry_Remove(t *testing.T) {
	t.Run("SingleRemovesActionEntry", func(t *testing.T) {
		r := NewHandlerRegistry()
		id := r.Add("ping", constHandler("a"))

		r.Remove("ping", id)
		assert.False(t, r.Has("ping"))
		assert.Nil(t, r.Get("ping"))
		assert.Empty(t, r.Actions())
	})

	t.Run("KeepsOthers", func(t *testing.T) {
		r := NewHandlerRegistry()
		r.Add("ping", constHandler("a"))
		id := r.Add("ping", constHandler("b"))
		r.Add("ping", constHandler("c"))

		r.Remove("ping", id)
		assert.Equal(t, []string{"a", "c"}, callAll(r.Get("ping")))
	})

	t.Run("MissingIsNoop", func(t *testing.T) {
		r := NewHandlerRegistry()
		r.Add("ping", constHandler("a"))

		r.Remove("ping", interfaces.HandlerID(999))
		r.Remove("other", interfaces.HandlerID(1))
		r.Remove("other")
		assert.Equal(t, 1, r.Count("ping"))
	})

	t.Run("AllWithoutID", func(t *testing.T) {
		r := NewHandlerRegistry()
		r.Add("ping", constHandler("a"))
		r.Add("ping", constHandler("b"))
		r.Add("pong", constHandler("c"))

		r.Remove("ping")
		assert.False(t, r.Has("ping"))
		assert.Equal(t, []string{"pong"}, r.Actions())
	})

	t.Run("DuplicateRegistrationRemovesOne", func(t *testing.T) {
		r := NewHandlerRegistry()
		h := constHandler("dup")
		first := r.Add("ping", h)
		second := r.Add("ping", h)

		r.Remove("ping", first)
		assert.Equal(t, []string{"dup"}, callAll(r.Get("ping")))

		// 同一个 id 再移除一次不影响剩余的注册
		r.Remove("ping", first)
		assert.Equal(t, 1, r.Count("ping"))

		r.Remove("ping", second)
		assert.False(t, r.Has("ping"))
	})
}

func TestHandlerRegistry_GetIsSnapshot(t *testing.T) {
	r := NewHandlerRegistry()
	r.Add("ping", constHandler("a"))

	snapshot := r.Get("ping")
	r.Add("ping", constHandler("b"))

	assert.Len(t, snapshot, 1)
	assert.Len(t, r.Get("ping"), 2)
}

func TestHandlerRegistry_Clear(t *testing.T) {
	r := NewHandlerRegistry()
	r.Add("b", constHandler("1"))
	r.Add("a", constHandler("2"))
	assert.Equal(t, []string{"a", "b"}, r.Actions())

	r.Clear()
	assert.Empty(t, r.Actions())
}
