package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dep2p/go-msgproxy/internal/codec"
	"github.com/dep2p/go-msgproxy/pkg/interfaces"
	"github.com/dep2p/go-msgproxy/pkg/lib/log"
	"github.com/dep2p/go-msgproxy/pkg/types"
)

var logger = log.Logger("transport/websocket")

// conn 一条桥接连接
//
// gorilla 连接只允许一个并发写者，写操作由 wmu 串行化。
type conn struct {
	id   string
	peer types.SenderInfo
	ws   *websocket.Conn

	writeTimeout time.Duration
	wmu          sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func newConn(ws *websocket.Conn, peer types.SenderInfo, o options) *conn {
	ws.SetReadLimit(o.readLimit)
	return &conn{
		id:           uuid.NewString(),
		peer:         peer,
		ws:           ws,
		writeTimeout: o.writeTimeout,
	}
}

// writeEnvelope 编码并写出一帧
func (c *conn) writeEnvelope(env *types.Envelope) error {
	data, err := codec.Encode(env)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// readLoop 读取帧并交给入站钩子，连接出错时返回
func (c *conn) readLoop(incoming func() interfaces.IncomingHandler) error {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.TextMessage {
			continue
		}

		env, err := codec.Decode(data)
		if err != nil {
			logger.Debug("丢弃无效帧", "conn", log.TruncateID(c.id, 8), "error", err)
			continue
		}
		c.dispatch(incoming(), env)
	}
}

// dispatch 把信封交给入站钩子；请求的回复写回同一连接
func (c *conn) dispatch(h interfaces.IncomingHandler, env *types.Envelope) {
	if h == nil {
		if env.IsRequest() {
			c.reply(types.NewFailure(env.RequestID, ErrNoReceiver.Error()))
		}
		return
	}

	var once sync.Once
	respond := func(reply *types.Envelope) {
		once.Do(func() {
			if reply == nil || !env.IsRequest() {
				return
			}
			if reply.RequestID == "" {
				reply = reply.Clone()
				reply.RequestID = env.RequestID
			}
			c.reply(reply)
		})
	}
	h(env, c.peer, respond)
}

func (c *conn) reply(env *types.Envelope) {
	if err := c.writeEnvelope(env); err != nil {
		logger.Debug("写回复失败", "conn", log.TruncateID(c.id, 8), "requestID", env.RequestID, "error", err)
	}
}

// close 发送关闭帧并关闭底层连接
func (c *conn) close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// isNormalClose 是否为正常断开
func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
