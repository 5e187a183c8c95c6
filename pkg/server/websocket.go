package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/gorilla/websocket"
)

// WebSocketHandler WebSocket处理器接口；返回时连接由包装器关闭
type WebSocketHandler interface {
	HandleConnection(c *gin.Context, conn *websocket.Conn)
}

// WebSocketHandlerFunc WebSocket处理器函数类型
type WebSocketHandlerFunc func(c *gin.Context, conn *websocket.Conn)

// HandleConnection WebSocketHandler接口实现
func (f WebSocketHandlerFunc) HandleConnection(c *gin.Context, conn *websocket.Conn) {
	f(c, conn)
}

// WebSocketServerWrapper WebSocket服务器包装器。
// 连接依附于HTTP服务器，但 http.Server.Shutdown 不会关闭已劫持的连接，所以这里自己跟踪。
type WebSocketServerWrapper struct {
	upgrader websocket.Upgrader
	logger   kratoslog.Logger
	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	closed   bool
}

// NewWebSocketServerWrapper 创建WebSocket服务器包装器
func NewWebSocketServerWrapper(logger kratoslog.Logger) *WebSocketServerWrapper {
	return &WebSocketServerWrapper{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Handle 把处理器包装成 gin 路由
func (ws *WebSocketServerWrapper) Handle(handler WebSocketHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws.handleWebSocket(c, handler)
	}
}

// handleWebSocket 处理WebSocket连接
func (ws *WebSocketServerWrapper) handleWebSocket(c *gin.Context, handler WebSocketHandler) {
	conn, err := ws.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ws.logger.Log(kratoslog.LevelError, "msg", "WebSocket upgrade failed", "error", err)
		return
	}
	if !ws.track(conn) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
		conn.Close()
		return
	}
	defer ws.untrack(conn)

	handler.HandleConnection(c, conn)
}

func (ws *WebSocketServerWrapper) track(conn *websocket.Conn) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return false
	}
	ws.conns[conn] = struct{}{}
	return true
}

func (ws *WebSocketServerWrapper) untrack(conn *websocket.Conn) {
	ws.mu.Lock()
	delete(ws.conns, conn)
	ws.mu.Unlock()
	conn.Close()
}

// ActiveConnections 当前连接数
func (ws *WebSocketServerWrapper) ActiveConnections() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.conns)
}

// Start WebSocket服务器启动（实际上是依赖HTTP服务器，先留在这打个日志）
func (ws *WebSocketServerWrapper) Start(ctx context.Context) error {
	ws.logger.Log(kratoslog.LevelInfo, "msg", "WebSocket server ready")
	return nil
}

// Stop 向所有连接发送关闭帧；读循环随之退出
func (ws *WebSocketServerWrapper) Stop(ctx context.Context) error {
	ws.mu.Lock()
	ws.closed = true
	conns := make([]*websocket.Conn, 0, len(ws.conns))
	for conn := range ws.conns {
		conns = append(conns, conn)
	}
	ws.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"), deadline)
		conn.Close()
	}
	ws.logger.Log(kratoslog.LevelInfo, "msg", "WebSocket server stopping", "connections", len(conns))
	return nil
}
