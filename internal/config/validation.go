package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return newFieldError("listen_port", "必须在 1-65535")
	}
	if strings.TrimSpace(c.PublicDir) == "" {
		return newFieldError("public_dir", "不能为空")
	}
	if c.ImageDir == "" || strings.Contains(c.ImageDir, "..") {
		return newFieldError("image_dir", "不能为空且不能包含 ..")
	}
	if !isPlainSegment(c.ImageGroup) {
		return newFieldError("image_group", "只能包含字母、数字、- 与 _")
	}
	if err := validateWorkerURL(c.ThumbBaseURL); err != nil {
		return newFieldError("thumb_base_url", err.Error())
	}
	if !isPlainSegment(strings.TrimPrefix(c.ThumbExtension, ".")) {
		return newFieldError("thumb_extension", "只能包含字母、数字、- 与 _")
	}
	if c.DownloadTimeout.DurationValue() <= 0 {
		return newFieldError("download_timeout", "必须大于 0")
	}
	if d := c.HealthTimeout.DurationValue(); d <= 0 || d >= time.Second {
		return newFieldError("health_timeout", "必须在 (0, 1s) 之间")
	}
	if d := c.EnqueueTimeout.DurationValue(); d <= 0 || d >= time.Second {
		return newFieldError("enqueue_timeout", "必须在 (0, 1s) 之间")
	}
	if c.ThumbWidth <= 0 {
		return newFieldError("thumb_width", "必须大于 0")
	}
	if c.ThumbHeight <= 0 {
		return newFieldError("thumb_height", "必须大于 0")
	}
	if c.HasCABundle() {
		if _, err := os.Stat(c.CABundle); err != nil {
			return newFieldError("ca_bundle", fmt.Sprintf("无法读取: %v", err))
		}
	}

	return nil
}

func validateWorkerURL(raw string) error {
	if raw == "" {
		return errors.New("缺少 worker 地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，worker: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("worker 缺少 Host: %s", raw)
	}
	return nil
}

func isPlainSegment(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
