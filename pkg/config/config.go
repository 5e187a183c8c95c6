package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata" // 容器镜像里可能没有 zoneinfo

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 CIH_CONTENT_API_BASE_URL
const EnvPrefix = "CIH"

// Config 应用配置
type Config struct {
	App          AppConfig           `mapstructure:"app"`
	Log          LogConfig           `mapstructure:"log"`
	Server       ServerConfig        `mapstructure:"server"`
	Redis        RedisConfig         `mapstructure:"redis"`
	ContentAPI   ContentAPIConfig    `mapstructure:"content_api"`
	Site         SiteConfig          `mapstructure:"site"`
	Telemetry    TelemetryConfig     `mapstructure:"telemetry"`
	Carousels    []CarouselConfig    `mapstructure:"carousels"`
	ServiceLines []ServiceLineConfig `mapstructure:"service_lines"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`

	// ShutdownTimeout 停止钩子的总超时
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"` // "zap" 或 "stdout"
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// HTTPConfig HTTP服务配置
type HTTPConfig struct {
	Network string        `mapstructure:"network"`
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// GRPCConfig gRPC服务配置，仅承载健康检查
type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Network string `mapstructure:"network"`
	Addr    string `mapstructure:"addr"`
}

// RedisConfig Redis配置，Addr 为空时使用进程内缓存
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ContentAPIConfig 内容API配置
type ContentAPIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	AssetBaseURL  string        `mapstructure:"asset_base_url"`
	PostsPath     string        `mapstructure:"posts_path"`
	Timeout       time.Duration `mapstructure:"timeout"`
	HaltThreshold int           `mapstructure:"halt_threshold"`
	HaltCooldown  time.Duration `mapstructure:"halt_cooldown"`
	FallbackImage string        `mapstructure:"fallback_image"`
}

// SiteConfig 站点展示配置
type SiteConfig struct {
	TimeZone     string `mapstructure:"time_zone"`
	RecentLimit  int    `mapstructure:"recent_limit"`
	RelatedLimit int    `mapstructure:"related_limit"`
	ShuffleSeed  int64  `mapstructure:"shuffle_seed"`
}

// TelemetryConfig 链路追踪配置
type TelemetryConfig struct {
	Exporter     string  `mapstructure:"exporter"` // "stdout", "otlp", "none"
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// CarouselConfig 轮播图配置
type CarouselConfig struct {
	Name     string        `mapstructure:"name"`
	Interval time.Duration `mapstructure:"interval"`
	Shuffle  bool          `mapstructure:"shuffle"`
	Slides   []SlideConfig `mapstructure:"slides"`
}

// SlideConfig 单张幻灯片
type SlideConfig struct {
	Source  string `mapstructure:"source"`
	AltText string `mapstructure:"alt_text"`
}

// ServiceLineConfig 服务线配置，Theme 在启动时校验
type ServiceLineConfig struct {
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Theme       string `mapstructure:"theme"`
}

// LoadConfig 加载配置：.env -> 默认值 -> 配置文件 -> CIH_* 环境变量
func LoadConfig(serviceName, configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, serviceName)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper, serviceName string) {
	v.SetDefault("app.name", serviceName)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.shutdown_timeout", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "zap")

	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":21001")
	v.SetDefault("server.http.timeout", 30*time.Second)
	v.SetDefault("server.grpc.enabled", true)
	v.SetDefault("server.grpc.network", "tcp")
	v.SetDefault("server.grpc.addr", ":22001")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Minute)

	v.SetDefault("content_api.base_url", "http://localhost:8080/api")
	v.SetDefault("content_api.asset_base_url", "http://localhost:8080")
	v.SetDefault("content_api.posts_path", "/posts")
	v.SetDefault("content_api.timeout", 10*time.Second)
	v.SetDefault("content_api.halt_threshold", 5)
	v.SetDefault("content_api.halt_cooldown", 30*time.Second)
	v.SetDefault("content_api.fallback_image", "/images/blog-placeholder.jpg")

	v.SetDefault("site.time_zone", "America/Tegucigalpa")
	v.SetDefault("site.recent_limit", 5)
	v.SetDefault("site.related_limit", 4)
	v.SetDefault("site.shuffle_seed", 20251101)

	v.SetDefault("telemetry.exporter", "none")
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.sample_rate", 1.0)
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.ContentAPI.BaseURL == "" {
		return errors.New("content_api.base_url is required")
	}
	if c.ContentAPI.HaltThreshold <= 0 {
		return fmt.Errorf("content_api.halt_threshold must be positive, got %d", c.ContentAPI.HaltThreshold)
	}
	if c.Site.RecentLimit <= 0 || c.Site.RelatedLimit <= 0 {
		return errors.New("site.recent_limit and site.related_limit must be positive")
	}
	if c.Site.TimeZone != "" {
		if _, err := time.LoadLocation(c.Site.TimeZone); err != nil {
			return fmt.Errorf("site.time_zone %q: %w", c.Site.TimeZone, err)
		}
	}
	seen := make(map[string]struct{}, len(c.Carousels))
	for _, cc := range c.Carousels {
		if cc.Name == "" {
			return errors.New("carousel name is required")
		}
		if _, ok := seen[cc.Name]; ok {
			return fmt.Errorf("duplicate carousel %q", cc.Name)
		}
		seen[cc.Name] = struct{}{}
	}
	return nil
}

// Location 返回站点时区，未配置时为 UTC；时区名已由 Validate 校验
func (s SiteConfig) Location() *time.Location {
	if s.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
