package websocket

import (
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"

	"github.com/dep2p/go-msgproxy/pkg/interfaces"
	"github.com/dep2p/go-msgproxy/pkg/lib/log"
	"github.com/dep2p/go-msgproxy/pkg/types"
)

// Server 后台侧桥接传输
//
// 作为 http.Handler 接受页面连接，同时作为后台上下文的 Transport。
// 同一页面 ID 的新连接会替换旧连接。
type Server struct {
	opts     options
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	conns   map[string]*conn
	handler interfaces.IncomingHandler
	closed  bool

	wg sync.WaitGroup
}

var (
	_ interfaces.Transport = (*Server)(nil)
	_ http.Handler         = (*Server)(nil)
)

// NewServer 创建桥接服务
func NewServer(opts ...Option) *Server {
	o := buildOptions(opts)
	return &Server{
		opts: o,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: o.handshakeTimeout,
		},
		conns: make(map[string]*conn),
	}
}

// ServeHTTP 升级连接并运行读循环直到断开
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	contextID := r.URL.Query().Get("context")
	if contextID == "" {
		http.Error(w, ErrMissingContext.Error(), http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		http.Error(w, ErrClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已写出错误响应
		logger.Debug("升级连接失败", "context", contextID, "error", err)
		return
	}

	peer := types.SenderInfo{ContextID: contextID, Kind: types.ContextContent, URL: r.Header.Get("Origin")}
	c := newConn(ws, peer, s.opts)
	if !s.attach(c) {
		_ = c.close()
		return
	}
	defer s.wg.Done()

	logger.Info("页面已连接", "context", contextID, "conn", log.TruncateID(c.id, 8))

	err = c.readLoop(s.incoming)
	s.detach(c)
	_ = c.close()

	if err != nil && !isNormalClose(err) {
		logger.Debug("连接读取结束", "context", contextID, "conn", log.TruncateID(c.id, 8), "error", err)
	}
	logger.Info("页面已断开", "context", contextID, "conn", log.TruncateID(c.id, 8))
}

// attach 登记连接，替换同 ID 的旧连接
func (s *Server) attach(c *conn) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	old := s.conns[c.peer.ContextID]
	s.conns[c.peer.ContextID] = c
	s.wg.Add(1)
	s.mu.Unlock()

	if old != nil {
		_ = old.close()
	}
	return true
}

func (s *Server) detach(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns[c.peer.ContextID] == c {
		delete(s.conns, c.peer.ContextID)
	}
}

func (s *Server) incoming() interfaces.IncomingHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler
}

// SendRequest 向已连接页面写出请求帧
//
// 后台不能给自己发消息；页面未连接或写失败都经 onReply 报告。
func (s *Server) SendRequest(dest types.Destination, env *types.Envelope, onReply interfaces.ReplyFunc) error {
	if onReply == nil {
		onReply = func(*types.Envelope, error) {}
	}

	s.mu.RLock()
	closed := s.closed
	var c *conn
	if dest.Kind == types.DestinationContent {
		c = s.conns[dest.ID]
	}
	s.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if c == nil {
		go onReply(nil, ErrNoReceiver)
		return nil
	}
	if err := c.writeEnvelope(env); err != nil {
		go onReply(nil, err)
	}
	return nil
}

// SetIncomingHandler 设置入站钩子
func (s *Server) SetIncomingHandler(h interfaces.IncomingHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// ContentIDs 返回已连接的页面 ID（排序）
func (s *Server) ContentIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.conns))
	for id := range s.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close 关闭全部连接并等待读循环退出
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	var err error
	for _, c := range conns {
		err = multierr.Append(err, c.close())
	}
	s.wg.Wait()
	return err
}
