package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	DefaultThumbBaseURL    = "http://127.0.0.1:5001"
	DefaultEnqueueEndpoint = "/enqueue"
	DefaultHealthEndpoint  = "/health"
	DefaultThumbExtension  = ".webp"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值、规范化与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := resolvePaths(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_port", 5000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file_path", "")
	v.SetDefault("log_max_size", 100)
	v.SetDefault("log_max_backups", 10)
	v.SetDefault("log_compress", true)
	v.SetDefault("public_dir", "./public")
	v.SetDefault("public_url", "")
	v.SetDefault("image_dir", "img")
	v.SetDefault("image_group", "entities")
	v.SetDefault("ca_bundle", "")
	v.SetDefault("user_agent", "Mozilla/5.0")
	v.SetDefault("download_timeout", "60s")
	v.SetDefault("thumb_base_url", DefaultThumbBaseURL)
	v.SetDefault("enqueue_endpoint", DefaultEnqueueEndpoint)
	v.SetDefault("health_endpoint", DefaultHealthEndpoint)
	v.SetDefault("thumb_extension", DefaultThumbExtension)
	v.SetDefault("health_timeout", "500ms")
	v.SetDefault("enqueue_timeout", "200ms")
	v.SetDefault("thumb_width", 480)
	v.SetDefault("thumb_height", 600)
	v.SetDefault("database_path", "./data/catalog.db")
	v.SetDefault("seed_path", "")
}

// applyDefaults 兜底零值字段，适用于测试中直接构造的 Config。
func applyDefaults(c *Config) {
	if c.ListenPort == 0 {
		c.ListenPort = 5000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ImageDir == "" {
		c.ImageDir = "img"
	}
	if c.ImageGroup == "" {
		c.ImageGroup = "entities"
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0"
	}
	if c.DownloadTimeout.DurationValue() == 0 {
		c.DownloadTimeout = Duration(60 * time.Second)
	}
	if c.HealthTimeout.DurationValue() == 0 {
		c.HealthTimeout = Duration(500 * time.Millisecond)
	}
	if c.EnqueueTimeout.DurationValue() == 0 {
		c.EnqueueTimeout = Duration(200 * time.Millisecond)
	}
	if c.ThumbWidth == 0 {
		c.ThumbWidth = 480
	}
	if c.ThumbHeight == 0 {
		c.ThumbHeight = 600
	}
}

// normalize 统一 URL/endpoint/扩展名格式，调用方无需再做拼接判断。
func normalize(c *Config) {
	base := strings.TrimSpace(c.ThumbBaseURL)
	if base == "" {
		base = DefaultThumbBaseURL
	}
	c.ThumbBaseURL = strings.TrimRight(base, "/")
	c.EnqueueEndpoint = normalizeEndpoint(c.EnqueueEndpoint, DefaultEnqueueEndpoint)
	c.HealthEndpoint = normalizeEndpoint(c.HealthEndpoint, DefaultHealthEndpoint)
	c.ThumbExtension = normalizeExtension(c.ThumbExtension, DefaultThumbExtension)
	c.PublicURL = normalizePublicURL(c.PublicURL)
	c.ImageDir = strings.Trim(strings.TrimSpace(c.ImageDir), "/")
	c.ImageGroup = strings.Trim(strings.TrimSpace(c.ImageGroup), "/")
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Normalize 对外暴露默认值填充与规范化，供直接构造 Config 的调用方使用。
func Normalize(c *Config) {
	applyDefaults(c)
	normalize(c)
}

func resolvePaths(c *Config) error {
	abs, err := filepath.Abs(c.PublicDir)
	if err != nil {
		return fmt.Errorf("无法解析 public 目录: %w", err)
	}
	c.PublicDir = abs

	if c.DatabasePath != "" {
		dbPath, err := filepath.Abs(c.DatabasePath)
		if err != nil {
			return fmt.Errorf("无法解析数据库路径: %w", err)
		}
		c.DatabasePath = dbPath
	}

	if c.HasCABundle() {
		bundle, err := filepath.Abs(c.CABundle)
		if err != nil {
			return fmt.Errorf("无法解析 CA 证书路径: %w", err)
		}
		c.CABundle = bundle
	}
	return nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
