package context

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// 上下文键类型
type contextKey string

const (
	TraceIDKey   contextKey = "trace_id"
	RequestIDKey contextKey = "request_id"
	SessionIDKey contextKey = "session_id"

	// 业务相关的上下文键
	PostSlugKey contextKey = "post_slug"
	CategoryKey contextKey = "category"
	CarouselKey contextKey = "carousel"

	// 客户端
	ClientIPKey contextKey = "client_ip"
)

// TraceContext 业务追踪上下文
type TraceContext struct {
	TraceID   string
	RequestID string
	SessionID string
	PostSlug  string
	Category  string
	Carousel  string
	ClientIP  string
}

// setSpanString 同步写入当前 span
func setSpanString(ctx context.Context, key, value string) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.String(key, value))
	}
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithTraceID 在context中设置TraceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = GenerateTraceID()
	}
	setSpanString(ctx, "trace.id", traceID)
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID 从context中获取TraceID，优先使用 OpenTelemetry span
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return getString(ctx, TraceIDKey)
}

// WithRequestID 在context中设置RequestID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = GenerateRequestID()
	}
	setSpanString(ctx, "request.id", requestID)
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID 从context中获取RequestID
func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey)
}

// WithSessionID 在context中设置SessionID（websocket 会话）
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if sessionID == "" {
		return ctx
	}
	setSpanString(ctx, "session.id", sessionID)
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// GetSessionID 从context中获取SessionID
func GetSessionID(ctx context.Context) string {
	return getString(ctx, SessionIDKey)
}

// WithPostSlug 在context中设置文章slug
func WithPostSlug(ctx context.Context, slug string) context.Context {
	if slug == "" {
		return ctx
	}
	setSpanString(ctx, "post.slug", slug)
	return context.WithValue(ctx, PostSlugKey, slug)
}

// GetPostSlug 从context中获取文章slug
func GetPostSlug(ctx context.Context) string {
	return getString(ctx, PostSlugKey)
}

// WithCategory 在context中设置分类筛选
func WithCategory(ctx context.Context, category string) context.Context {
	if category == "" {
		return ctx
	}
	setSpanString(ctx, "post.category", category)
	return context.WithValue(ctx, CategoryKey, category)
}

// GetCategory 从context中获取分类筛选
func GetCategory(ctx context.Context) string {
	return getString(ctx, CategoryKey)
}

// WithCarousel 在context中设置轮播图名称
func WithCarousel(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	setSpanString(ctx, "carousel.name", name)
	return context.WithValue(ctx, CarouselKey, name)
}

// GetCarousel 从context中获取轮播图名称
func GetCarousel(ctx context.Context) string {
	return getString(ctx, CarouselKey)
}

// WithServiceInfo 在当前 span 上记录服务名
func WithServiceInfo(ctx context.Context, serviceName string) context.Context {
	setSpanString(ctx, "service.name", serviceName)
	return ctx
}

// WithClientInfo 在context中设置客户端IP；用户代理只记录到 span
func WithClientInfo(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ClientIPKey, clientIP)

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("client.ip", clientIP),
			attribute.String("client.user_agent", userAgent),
		)
	}

	return ctx
}

// GetClientIP 从context中获取客户端IP
func GetClientIP(ctx context.Context) string {
	return getString(ctx, ClientIPKey)
}

// GenerateTraceID 生成TraceID
func GenerateTraceID() string {
	return uuid.New().String()
}

// GenerateRequestID 生成RequestID
func GenerateRequestID() string {
	return uuid.New().String()
}

// ExtractTraceContext 从context中提取业务追踪信息
func ExtractTraceContext(ctx context.Context) *TraceContext {
	return &TraceContext{
		TraceID:   GetTraceID(ctx),
		RequestID: GetRequestID(ctx),
		SessionID: GetSessionID(ctx),
		PostSlug:  GetPostSlug(ctx),
		Category:  GetCategory(ctx),
		Carousel:  GetCarousel(ctx),
		ClientIP:  GetClientIP(ctx),
	}
}

// ToMap 将TraceContext转换为map，用于日志输出
func (tc *TraceContext) ToMap() map[string]interface{} {
	result := make(map[string]interface{})

	if tc.TraceID != "" {
		result["trace_id"] = tc.TraceID
	}
	if tc.RequestID != "" {
		result["request_id"] = tc.RequestID
	}
	if tc.SessionID != "" {
		result["session_id"] = tc.SessionID
	}
	if tc.PostSlug != "" {
		result["post_slug"] = tc.PostSlug
	}
	if tc.Category != "" {
		result["category"] = tc.Category
	}
	if tc.Carousel != "" {
		result["carousel"] = tc.Carousel
	}
	if tc.ClientIP != "" {
		result["client_ip"] = tc.ClientIP
	}

	return result
}
