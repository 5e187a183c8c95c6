package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"cih-portal/apps/web-service/converter"
	"cih-portal/apps/web-service/handler"
	"cih-portal/apps/web-service/service"
	"cih-portal/pkg/cache"
	"cih-portal/pkg/carousel"
	"cih-portal/pkg/config"
	"cih-portal/pkg/contentapi"
	"cih-portal/pkg/lifecycle"
	"cih-portal/pkg/logger"
	"cih-portal/pkg/server"
)

const serviceName = "cih-web"

var configFile string

func main() {
	root := &cobra.Command{
		Use:          serviceName,
		Short:        "Sitio web del Consejo Intermunicipal Higuito",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml)")
	root.AddCommand(serveCmd(), checkCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, websocket and gRPC health servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(serviceName, configFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func checkCmd() *cobra.Command {
	var category string
	c := &cobra.Command{
		Use:   "check",
		Short: "Fetch published posts once and print the blog list view",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(serviceName, configFile)
			if err != nil {
				return err
			}
			log, err := logger.NewLogger(cfg.Log.Level)
			if err != nil {
				return err
			}
			svc, err := newService(cfg, nil, log)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ContentAPI.Timeout+5*time.Second)
			defer cancel()
			view, err := svc.ListView(ctx, category)
			if err != nil {
				return fmt.Errorf("content api check: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}
	c.Flags().StringVar(&category, "category", "", "category filter")
	return c
}

func serve(ctx context.Context, cfg *config.Config) error {
	// 创建应用程序
	app, err := server.NewApplication(cfg)
	if err != nil {
		return err
	}
	log := app.GetLogger()

	// 启用HTTP和gRPC服务器
	app.EnableHTTP()
	if cfg.Server.GRPC.Enabled {
		app.EnableGRPC()
	}

	// 初始化Service层
	svc, err := newService(cfg, app.GetCache(), log)
	if err != nil {
		return err
	}

	// 轮播图注册表
	registry, err := newRegistry(cfg, log)
	if err != nil {
		return err
	}
	app.AddHook(lifecycle.Hook{
		Name:     "carousels",
		Priority: 200,
		OnStop: func(ctx context.Context) error {
			return registry.Close()
		},
	})

	// 初始化Handler
	httpHandler := handler.NewHTTPHandler(svc, registry, app.GetWebSocket(), log)

	// 注册HTTP路由
	app.RegisterHTTPRoutes(func(engine *gin.Engine) {
		httpHandler.RegisterRoutes(engine)
	})

	// 运行应用程序
	return app.Run(ctx)
}

func newService(cfg *config.Config, store cache.Store, log logger.Logger) (*service.Service, error) {
	client, err := contentapi.New(contentapi.Options{
		BaseURL:       cfg.ContentAPI.BaseURL,
		PostsPath:     cfg.ContentAPI.PostsPath,
		Timeout:       cfg.ContentAPI.Timeout,
		HaltThreshold: cfg.ContentAPI.HaltThreshold,
		HaltCooldown:  cfg.ContentAPI.HaltCooldown,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}

	lines, err := service.BuildServiceLines(cfg.ServiceLines)
	if err != nil {
		return nil, err
	}

	loc := cfg.Site.Location()
	conv := converter.NewConverter(cfg.ContentAPI.AssetBaseURL, cfg.ContentAPI.FallbackImage, loc)
	return service.NewService(client, store, conv, service.Options{
		RecentLimit:  cfg.Site.RecentLimit,
		RelatedLimit: cfg.Site.RelatedLimit,
		CacheTTL:     cfg.Redis.TTL,
		Location:     loc,
		ServiceLines: lines,
	}, log), nil
}

func newRegistry(cfg *config.Config, log logger.Logger) (*carousel.Registry, error) {
	registry := carousel.NewRegistry(cfg.Site.ShuffleSeed, log)
	for _, cc := range cfg.Carousels {
		slides := make([]carousel.Slide, 0, len(cc.Slides))
		for _, s := range cc.Slides {
			slides = append(slides, carousel.Slide{Source: s.Source, AltText: s.AltText})
		}
		if err := registry.Add(carousel.Gallery{
			Name:     cc.Name,
			Interval: cc.Interval,
			Shuffle:  cc.Shuffle,
			Slides:   slides,
		}); err != nil {
			_ = registry.Close()
			return nil, fmt.Errorf("carousel %q: %w", cc.Name, err)
		}
	}
	return registry, nil
}
