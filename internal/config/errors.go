package config

import "fmt"

// FieldError 指出出错的配置键（如 thumb_base_url、image_group）及原因，check-config 与启动失败时原样输出。
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// newFieldError 以扁平配置键构造 FieldError。
func newFieldError(field, reason string) error {
	return FieldError{Field: field, Reason: reason}
}
