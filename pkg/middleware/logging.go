package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	kratoslog "github.com/go-kratos/kratos/v2/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	tracecontext "cih-portal/pkg/context"
)

// LoggingMiddleware 日志中间件
type LoggingMiddleware struct {
	logger    kratoslog.Logger
	skipPaths []string
}

// NewLoggingMiddleware 创建日志中间件，skipPaths 中的路径不记访问日志（例如 /health）
func NewLoggingMiddleware(logger kratoslog.Logger, skipPaths ...string) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger:    logger,
		skipPaths: skipPaths,
	}
}

// GinLogging Gin日志中间件
func (lm *LoggingMiddleware) GinLogging() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: lm.skipPaths,
		Formatter: func(param gin.LogFormatterParams) string {
			level := kratoslog.LevelInfo
			if param.StatusCode >= 500 {
				level = kratoslog.LevelWarn
			}
			lm.logger.Log(level,
				"msg", "HTTP request",
				"method", param.Method,
				"path", param.Path,
				"status", param.StatusCode,
				"latency", param.Latency.String(),
				"client_ip", param.ClientIP,
				"request_id", tracecontext.GetRequestID(param.Request.Context()),
				"error", param.ErrorMessage,
			)
			return ""
		},
	})
}

// GRPCLogging gRPC日志拦截器
func (lm *LoggingMiddleware) GRPCLogging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		st := status.Convert(err)
		if err != nil {
			lm.logger.Log(kratoslog.LevelError,
				"msg", "gRPC request completed with error",
				"method", info.FullMethod,
				"duration", duration.String(),
				"code", st.Code().String(),
				"error", err.Error(),
			)
		} else {
			lm.logger.Log(kratoslog.LevelDebug,
				"msg", "gRPC request completed",
				"method", info.FullMethod,
				"duration", duration.String(),
			)
		}
		return resp, err
	}
}

// GRPCRecovery gRPC恢复拦截器
func (lm *LoggingMiddleware) GRPCRecovery() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				lm.logger.Log(kratoslog.LevelError,
					"msg", "gRPC request panic recovered",
					"method", info.FullMethod,
					"panic", r,
				)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()

		return handler(ctx, req)
	}
}
