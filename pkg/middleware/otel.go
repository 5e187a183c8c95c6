package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	tracecontext "cih-portal/pkg/context"
)

// RequestIDHeader 请求ID头
const RequestIDHeader = "X-Request-ID"

// OTelMiddleware OpenTelemetry中间件配置
type OTelMiddleware struct {
	serviceName string
}

// NewOTelMiddleware 创建OpenTelemetry中间件
func NewOTelMiddleware(serviceName string) *OTelMiddleware {
	return &OTelMiddleware{serviceName: serviceName}
}

// GinMiddleware 返回Gin的中间件链：官方otelgin在前，业务上下文增强在后
func (m *OTelMiddleware) GinMiddleware() gin.HandlersChain {
	return gin.HandlersChain{
		otelgin.Middleware(m.serviceName),
		m.enrich,
	}
}

// enrich 写入请求ID、TraceID与客户端信息，并回写请求ID响应头
func (m *OTelMiddleware) enrich(c *gin.Context) {
	ctx := m.enhanceContext(c.Request.Context(), c)
	c.Request = c.Request.WithContext(ctx)
	c.Header(RequestIDHeader, tracecontext.GetRequestID(ctx))
	c.Next()
}

// enhanceContext 增强context，添加业务追踪信息
func (m *OTelMiddleware) enhanceContext(ctx context.Context, c *gin.Context) context.Context {
	traceID := c.GetHeader("X-Trace-ID")
	if traceID == "" {
		if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		}
	}
	ctx = tracecontext.WithTraceID(ctx, traceID)
	ctx = tracecontext.WithRequestID(ctx, c.GetHeader(RequestIDHeader))
	ctx = tracecontext.WithServiceInfo(ctx, m.serviceName)
	ctx = tracecontext.WithClientInfo(ctx, c.ClientIP(), c.GetHeader("User-Agent"))

	if category := c.Query("category"); category != "" {
		ctx = tracecontext.WithCategory(ctx, category)
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("http.route", c.FullPath()),
			attribute.String("http.method", c.Request.Method),
		)
	}
	return ctx
}

// GRPCUnaryServerInterceptor 返回gRPC一元服务器拦截器
func (m *OTelMiddleware) GRPCUnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		return handler(m.enhanceGRPCContext(ctx, info.FullMethod), req)
	}
}

// enhanceGRPCContext 从metadata提取请求ID与TraceID
func (m *OTelMiddleware) enhanceGRPCContext(ctx context.Context, method string) context.Context {
	var traceID, requestID string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("x-trace-id"); len(v) > 0 {
			traceID = v[0]
		}
		if v := md.Get("x-request-id"); len(v) > 0 {
			requestID = v[0]
		}
	}
	ctx = tracecontext.WithTraceID(ctx, traceID)
	ctx = tracecontext.WithRequestID(ctx, requestID)
	ctx = tracecontext.WithServiceInfo(ctx, m.serviceName)

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("rpc.method", method),
			attribute.String("rpc.service", m.serviceName),
		)
	}
	return ctx
}
