package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "500ms"、"60s" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// Config 是 TOML 文件映射的整体结构，进程内只构建一次并显式传递给各组件。
type Config struct {
	ListenPort    int    `mapstructure:"listen_port"`
	LogLevel      string `mapstructure:"log_level"`
	LogFilePath   string `mapstructure:"log_file_path"`
	LogMaxSize    int    `mapstructure:"log_max_size"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogCompress   bool   `mapstructure:"log_compress"`

	PublicDir  string `mapstructure:"public_dir"`
	PublicURL  string `mapstructure:"public_url"`
	ImageDir   string `mapstructure:"image_dir"`
	ImageGroup string `mapstructure:"image_group"`

	CABundle        string   `mapstructure:"ca_bundle"`
	UserAgent       string   `mapstructure:"user_agent"`
	DownloadTimeout Duration `mapstructure:"download_timeout"`

	ThumbBaseURL    string   `mapstructure:"thumb_base_url"`
	EnqueueEndpoint string   `mapstructure:"enqueue_endpoint"`
	HealthEndpoint  string   `mapstructure:"health_endpoint"`
	ThumbExtension  string   `mapstructure:"thumb_extension"`
	HealthTimeout   Duration `mapstructure:"health_timeout"`
	EnqueueTimeout  Duration `mapstructure:"enqueue_timeout"`
	ThumbWidth      int      `mapstructure:"thumb_width"`
	ThumbHeight     int      `mapstructure:"thumb_height"`

	DatabasePath string `mapstructure:"database_path"`
	SeedPath     string `mapstructure:"seed_path"`
}

// HealthURL 返回渲染 worker 的健康检查地址。
func (c *Config) HealthURL() string {
	return c.ThumbBaseURL + c.HealthEndpoint
}

// EnqueueURL 返回渲染 worker 的任务提交地址。
func (c *Config) EnqueueURL() string {
	return c.ThumbBaseURL + c.EnqueueEndpoint
}

// HasCABundle 表示是否为出站 HTTPS 配置了自定义 CA。
func (c *Config) HasCABundle() bool {
	return strings.TrimSpace(c.CABundle) != ""
}

// normalizePublicURL 将 public_url 规范化为 "" 或 "/a/b" 形式，便于直接拼接。
func normalizePublicURL(raw string) string {
	value := strings.Trim(strings.TrimSpace(raw), "/")
	if value == "" {
		return ""
	}
	return "/" + value
}

// normalizeEndpoint 保证 endpoint 总是以 "/" 开头。
func normalizeEndpoint(raw, fallback string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = fallback
	}
	return "/" + strings.TrimLeft(value, "/")
}

// normalizeExtension 保证扩展名总是以 "." 开头。
func normalizeExtension(raw, fallback string) string {
	value := strings.TrimSpace(raw)
	if strings.Trim(value, ".") == "" {
		value = fallback
	}
	return "." + strings.TrimLeft(value, ".")
}
