package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cih-portal/apps/web-service/model"
	"cih-portal/apps/web-service/service"
	"cih-portal/pkg/carousel"
	"cih-portal/pkg/contentapi"
	tracecontext "cih-portal/pkg/context"
	"cih-portal/pkg/httpx"
	"cih-portal/pkg/logger"
	"cih-portal/pkg/server"
)

// HTTPHandler HTTP处理器
type HTTPHandler struct {
	svc       *service.Service
	carousels *carousel.Registry
	ws        *server.WebSocketServerWrapper
	socket    *CarouselSocket
	logger    logger.Logger
}

// NewHTTPHandler 创建HTTP处理器；ws 为 nil 时不注册 websocket 路由
func NewHTTPHandler(svc *service.Service, carousels *carousel.Registry, ws *server.WebSocketServerWrapper, log logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:       svc,
		carousels: carousels,
		ws:        ws,
		socket:    NewCarouselSocket(carousels, log),
		logger:    log,
	}
}

// RegisterRoutes 注册HTTP路由
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// 博客
		api.GET("/blog", h.GetBlogList)       // 列表页
		api.POST("/blog/retry", h.RetryBlog)  // 手动重试
		api.GET("/blog/:slug", h.GetBlogPost) // 详情页

		// 轮播图；导航命令只走 websocket，每个连接独占一个引擎
		api.GET("/carousels/:name", h.GetCarousel)
		if h.ws != nil {
			api.GET("/carousels/:name/ws", h.ws.Handle(h.socket))
		}

		// 服务线
		api.GET("/service-lines", h.GetServiceLines)
	}
}

// GetBlogList 博客列表
func (h *HTTPHandler) GetBlogList(c *gin.Context) {
	view, err := h.svc.ListView(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.writeListError(c, err)
		return
	}
	httpx.WriteObject(c, view)
}

// RetryBlog 解除暂停后重新加载列表
func (h *HTTPHandler) RetryBlog(c *gin.Context) {
	view, err := h.svc.Retry(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.writeListError(c, err)
		return
	}
	httpx.WriteObject(c, view)
}

// GetBlogPost 文章详情
func (h *HTTPHandler) GetBlogPost(c *gin.Context) {
	slug := c.Param("slug")
	ctx := tracecontext.WithPostSlug(c.Request.Context(), slug)

	view, err := h.svc.DetailView(ctx, slug)
	switch {
	case err == nil:
		httpx.WriteObject(c, view)
	case errors.Is(err, contentapi.ErrNotFound):
		httpx.WriteError(c, http.StatusNotFound, model.MsgPostNotFound, httpx.WithRedirect(model.BlogListPath))
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(httpx.StatusClientClosedRequest)
	default:
		httpx.WriteError(c, http.StatusBadGateway, model.MsgPostFailed, httpx.WithRetry(c.Request.URL.Path))
	}
}

// GetCarousel 图库定义与 websocket 地址
func (h *HTTPHandler) GetCarousel(c *gin.Context) {
	name := c.Param("name")
	g, ok := h.carousels.Get(name)
	if !ok {
		httpx.WriteError(c, http.StatusNotFound, model.MsgCarouselAbsent)
		return
	}
	interval := g.Interval
	if interval <= 0 {
		interval = carousel.DefaultInterval
	}
	httpx.WriteObject(c, model.GalleryView{
		Name:       g.Name,
		IntervalMs: interval.Milliseconds(),
		Count:      len(g.Slides),
		Slides:     g.Slides,
		Socket:     model.CarouselSocketPath(g.Name),
	})
}

// GetServiceLines 服务线目录
func (h *HTTPHandler) GetServiceLines(c *gin.Context) {
	httpx.WriteObject(c, h.svc.ServiceLines())
}

func (h *HTTPHandler) writeListError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) {
		c.AbortWithStatus(httpx.StatusClientClosedRequest)
		return
	}
	halted := h.svc.Halted()
	if halted {
		h.logger.Warn(c.Request.Context(), "Blog list served while content API is halted")
	}
	httpx.WriteError(c, http.StatusBadGateway, model.MsgListFailed,
		httpx.WithRetry(model.BlogRetryPath),
		httpx.WithHalted(halted))
}
