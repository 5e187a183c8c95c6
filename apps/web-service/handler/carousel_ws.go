package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cih-portal/apps/web-service/model"
	"cih-portal/pkg/carousel"
	tracecontext "cih-portal/pkg/context"
	"cih-portal/pkg/logger"
	"cih-portal/pkg/uilock"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsQueueSize  = 32
)

// 客户端命令
const (
	CmdNext  = "next"
	CmdPrev  = "prev"
	CmdPause = "pause"
	CmdJump  = "jump"
	CmdOpen  = "open"
	CmdClose = "close"
	CmdKey   = "key"
)

// 服务端事件
const (
	EventState    = "state"
	EventLightbox = "lightbox"
	EventUILock   = "ui_lock"
	EventError    = "error"
)

// WSCommand 客户端发来的命令
type WSCommand struct {
	Type  string `json:"type"`
	Index *int   `json:"index,omitempty"`
	Key   string `json:"key,omitempty"`
}

// WSEvent 推送给客户端的事件
type WSEvent struct {
	Type    string          `json:"type"`
	State   *carousel.State `json:"state,omitempty"`
	Open    *bool           `json:"open,omitempty"`
	Slide   *carousel.Slide `json:"slide,omitempty"`
	Index   *int            `json:"index,omitempty"`
	Locked  *bool           `json:"locked,omitempty"`
	Message string          `json:"message,omitempty"`
}

// CarouselSocket 轮播图 websocket：推送状态变化，接收导航与灯箱命令
type CarouselSocket struct {
	carousels *carousel.Registry
	logger    logger.Logger
}

// NewCarouselSocket 创建轮播图 websocket 处理器
func NewCarouselSocket(carousels *carousel.Registry, log logger.Logger) *CarouselSocket {
	return &CarouselSocket{carousels: carousels, logger: log}
}

// HandleConnection 每个连接一个会话；引擎、灯箱与界面锁都归会话所有，断开时释放
func (s *CarouselSocket) HandleConnection(c *gin.Context, conn *websocket.Conn) {
	name := c.Param("name")
	ctx := tracecontext.WithCarousel(c.Request.Context(), name)
	ctx = tracecontext.WithSessionID(ctx, uuid.NewString())

	e, err := s.carousels.Open(name)
	if err != nil {
		s.logger.Warn(ctx, "Carousel socket rejected", logger.F("error", err.Error()))
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		_ = conn.WriteJSON(WSEvent{Type: EventError, Message: model.MsgCarouselAbsent})
		return
	}
	defer s.carousels.Release(e)

	sess := newSocketSession(conn, e, s.logger)
	s.logger.Info(ctx, "Carousel socket connected")
	sess.run(ctx)
	s.logger.Info(ctx, "Carousel socket closed")
}

type socketSession struct {
	conn     *websocket.Conn
	engine   *carousel.Engine
	lightbox *carousel.Lightbox
	logger   logger.Logger

	out  chan WSEvent
	done chan struct{}
	once sync.Once
}

func newSocketSession(conn *websocket.Conn, e *carousel.Engine, log logger.Logger) *socketSession {
	sess := &socketSession{
		conn:   conn,
		engine: e,
		logger: log,
		out:    make(chan WSEvent, wsQueueSize),
		done:   make(chan struct{}),
	}
	lock := uilock.New(uilock.Hooks{
		OnAcquire: func() { sess.push(WSEvent{Type: EventUILock, Locked: boolPtr(true)}) },
		OnRelease: func() { sess.push(WSEvent{Type: EventUILock, Locked: boolPtr(false)}) },
	})
	sess.lightbox = carousel.NewLightbox(lock)
	return sess
}

func (s *socketSession) run(ctx context.Context) {
	cancel := s.engine.OnChange(func(st carousel.State) {
		s.push(WSEvent{Type: EventState, State: &st})
	})
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx)
	}()

	st := s.engine.State()
	s.push(WSEvent{Type: EventState, State: &st})

	s.readLoop(ctx)

	// 任何退出路径都释放灯箱持有的界面锁
	s.lightbox.Close()
	s.stop()
	<-writerDone
}

func (s *socketSession) stop() {
	s.once.Do(func() { close(s.done) })
}

// push 入队；队列满时丢弃，客户端会在下一次变化时拿到完整状态
func (s *socketSession) push(ev WSEvent) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.out <- ev:
	default:
		s.logger.Debug(context.Background(), "Carousel socket queue full, event dropped", logger.F("type", ev.Type))
	}
}

func (s *socketSession) readLoop(ctx context.Context) {
	_ = s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var cmd WSCommand
		if err := s.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn(ctx, "Carousel socket read failed", logger.F("error", err.Error()))
			}
			return
		}
		s.route(ctx, cmd)
	}
}

// route 路由命令到引擎或灯箱
func (s *socketSession) route(ctx context.Context, cmd WSCommand) {
	switch cmd.Type {
	case CmdNext:
		s.engine.Next()
	case CmdPrev:
		s.engine.Previous()
	case CmdPause:
		s.engine.TogglePause()
	case CmdJump:
		if cmd.Index == nil {
			s.push(WSEvent{Type: EventError, Message: model.MsgInvalidRequest})
			return
		}
		if err := s.engine.JumpTo(*cmd.Index); err != nil {
			s.pushError(err)
		}
	case CmdOpen:
		index := -1
		if cmd.Index != nil {
			index = *cmd.Index
		}
		slide, err := s.lightbox.Open(s.engine, index)
		if err != nil {
			s.pushError(err)
			return
		}
		_, opened, _ := s.lightbox.Current()
		s.push(WSEvent{Type: EventLightbox, Open: boolPtr(true), Slide: &slide, Index: &opened})
	case CmdClose:
		if s.lightbox.Close() {
			s.push(WSEvent{Type: EventLightbox, Open: boolPtr(false)})
		}
	case CmdKey:
		if s.lightbox.HandleKey(cmd.Key) {
			s.push(WSEvent{Type: EventLightbox, Open: boolPtr(false)})
		}
	default:
		s.logger.Warn(ctx, "Unknown carousel command", logger.F("type", cmd.Type))
		s.push(WSEvent{Type: EventError, Message: model.MsgInvalidRequest})
	}
}

func (s *socketSession) pushError(err error) {
	msg := model.MsgInvalidRequest
	switch {
	case errors.Is(err, carousel.ErrIndexOutOfRange):
		msg = model.MsgInvalidIndex
	case errors.Is(err, carousel.ErrDisposed):
		msg = model.MsgCarouselAbsent
	}
	s.push(WSEvent{Type: EventError, Message: msg})
}

func (s *socketSession) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteJSON(ev); err != nil {
				s.logger.Warn(ctx, "Carousel socket write failed", logger.F("error", err.Error()))
				s.conn.Close()
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				s.conn.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func boolPtr(b bool) *bool {
	return &b
}
