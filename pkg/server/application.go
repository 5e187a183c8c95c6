package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	kratoslog "github.com/go-kratos/kratos/v2/log"
	"google.golang.org/grpc"

	"cih-portal/pkg/cache"
	"cih-portal/pkg/config"
	"cih-portal/pkg/lifecycle"
	"cih-portal/pkg/logger"
	"cih-portal/pkg/middleware"
	"cih-portal/pkg/redis"
	"cih-portal/pkg/telemetry"
)

// Application 应用程序框架
type Application struct {
	serviceName    string
	config         *config.Config
	logger         kratoslog.Logger
	originalLogger logger.Logger
	serverManager  *ServerManager
	lifecycle      *lifecycle.LifecycleManager
	websocket      *WebSocketServerWrapper

	// 基础设施组件
	redisClient *redis.RedisClient
	cache       cache.Store

	// 中间件
	loggingMiddleware *middleware.LoggingMiddleware
	otelMiddleware    *middleware.OTelMiddleware

	// 注册函数
	httpRouteRegister   func(*gin.Engine)
	grpcServiceRegister func(*grpc.Server)
}

// NewApplication 创建应用程序
func NewApplication(cfg *config.Config) (*Application, error) {
	originalLogger, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	kratosLogger := logger.NewInfraLogger(cfg.Log.Output, cfg.App.Name, cfg.App.Version, originalLogger)

	app := &Application{
		serviceName:       cfg.App.Name,
		config:            cfg,
		logger:            kratosLogger,
		originalLogger:    originalLogger,
		serverManager:     NewServerManager(cfg, kratosLogger),
		lifecycle:         lifecycle.NewLifecycleManager(kratosLogger),
		loggingMiddleware: middleware.NewLoggingMiddleware(kratosLogger, HealthPath),
		otelMiddleware:    middleware.NewOTelMiddleware(cfg.App.Name),
	}

	if cfg.App.ShutdownTimeout > 0 {
		app.lifecycle.SetStopTimeout(cfg.App.ShutdownTimeout)
	}
	app.initInfrastructure()

	return app, nil
}

// initInfrastructure 初始化基础设施组件；Redis 未配置时使用进程内缓存
func (app *Application) initInfrastructure() {
	if app.config.Redis.Addr == "" {
		app.cache = cache.NewMemoryStore(cache.DefaultMemorySize, app.config.Redis.TTL)
		return
	}
	app.redisClient = redis.NewRedisClient(redis.Options{
		Addr:     app.config.Redis.Addr,
		Password: app.config.Redis.Password,
		DB:       app.config.Redis.DB,
	})
	app.cache = cache.NewRedisStore(app.redisClient, app.serviceName+":")
}

// EnableHTTP 启用HTTP服务器
func (app *Application) EnableHTTP() HTTPServer {
	// websocket 连接先于HTTP服务器关闭
	if app.websocket == nil {
		app.websocket = NewWebSocketServerWrapper(app.logger)
		app.serverManager.AddServer(app.websocket)
	}

	httpServer := app.serverManager.EnableHTTP()
	httpServer.RegisterRoutes(func(engine *gin.Engine) {
		engine.Use(middleware.Recovery(app.originalLogger))
		engine.Use(app.otelMiddleware.GinMiddleware()...)
		engine.Use(app.loggingMiddleware.GinLogging())
	})

	return httpServer
}

// EnableGRPC 启用gRPC服务器（健康检查）
func (app *Application) EnableGRPC() GRPCServer {
	return app.serverManager.EnableGRPC(grpc.ChainUnaryInterceptor(
		app.loggingMiddleware.GRPCRecovery(),
		app.otelMiddleware.GRPCUnaryServerInterceptor(),
		app.loggingMiddleware.GRPCLogging(),
	))
}

// RegisterHTTPRoutes 注册HTTP路由
func (app *Application) RegisterHTTPRoutes(registerFunc func(*gin.Engine)) {
	app.httpRouteRegister = registerFunc
}

// RegisterGRPCService 注册gRPC服务
func (app *Application) RegisterGRPCService(registerFunc func(*grpc.Server)) {
	app.grpcServiceRegister = registerFunc
}

// AddHook 注册业务组件的生命周期钩子
func (app *Application) AddHook(hook lifecycle.Hook) {
	app.lifecycle.AddHook(hook)
}

// GetWebSocket 获取WebSocket包装器，EnableHTTP 之前为 nil
func (app *Application) GetWebSocket() *WebSocketServerWrapper {
	return app.websocket
}

// GetCache 获取缓存
func (app *Application) GetCache() cache.Store {
	return app.cache
}

// GetLogger 获取原有日志器
func (app *Application) GetLogger() logger.Logger {
	return app.originalLogger
}

// Run 运行应用程序，直到收到信号、ctx 结束或服务器异常退出
func (app *Application) Run(ctx context.Context) error {
	if err := app.registerLifecycleHooks(); err != nil {
		return err
	}

	if err := app.lifecycle.Start(); err != nil {
		return fmt.Errorf("failed to start lifecycle: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- app.lifecycle.Wait(ctx)
	}()

	select {
	case err := <-waitErr:
		return err
	case err := <-app.serverManager.Errors():
		stopErr := app.lifecycle.Stop()
		<-waitErr
		return errors.Join(err, stopErr)
	}
}

// registerLifecycleHooks 注册生命周期钩子
func (app *Application) registerLifecycleHooks() error {
	if app.httpRouteRegister != nil {
		if err := app.serverManager.RegisterHTTPRoutes(app.httpRouteRegister); err != nil {
			return err
		}
	}

	if app.grpcServiceRegister != nil {
		if err := app.serverManager.RegisterGRPCService(app.grpcServiceRegister); err != nil {
			return err
		}
	}

	// 链路追踪钩子
	app.lifecycle.AddHook(lifecycle.Hook{
		Name:     "telemetry",
		Priority: 10,
		OnStart: func(ctx context.Context) error {
			return telemetry.InitGlobal(ctx, &telemetry.Config{
				ServiceName:    app.config.App.Name,
				ServiceVersion: app.config.App.Version,
				Environment:    app.config.App.Environment,
				ExporterType:   app.config.Telemetry.Exporter,
				OTLPEndpoint:   app.config.Telemetry.OTLPEndpoint,
				SampleRate:     app.config.Telemetry.SampleRate,
			})
		},
		OnStop: telemetry.ShutdownGlobal,
	})

	// 缓存钩子；Redis 不可用只告警，缓存读写失败时服务直接回源
	app.lifecycle.AddHook(lifecycle.Hook{
		Name:     "cache",
		Priority: 20,
		OnStart: func(ctx context.Context) error {
			if app.redisClient == nil {
				return nil
			}
			if err := app.redisClient.Ping(ctx); err != nil {
				app.logger.Log(kratoslog.LevelWarn, "msg", "Redis unreachable, continuing without warm cache", "addr", app.config.Redis.Addr, "error", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.cache.Close()
		},
	})

	// 服务器启动钩子
	app.lifecycle.AddHook(lifecycle.Hook{
		Name:     "servers",
		Priority: 100,
		OnStart: func(ctx context.Context) error {
			return app.serverManager.StartAll(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return app.serverManager.StopAll(ctx)
		},
	})

	return nil
}
