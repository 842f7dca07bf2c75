package cache

import (
	"mime"
	"strings"
)

// UnknownExtension 是无法识别的 Content-Type 对应的哨兵扩展名，永远不会写入缓存。
const UnknownExtension = "bin"

// imageExtensions 是允许缓存的图片类型白名单。
var imageExtensions = map[string]string{
	"image/jpeg":               "jpg",
	"image/png":                "png",
	"image/webp":               "webp",
	"image/gif":                "gif",
	"image/bmp":                "bmp",
	"image/svg+xml":            "svg",
	"image/avif":               "avif",
	"image/apng":               "apng",
	"image/x-icon":             "ico",
	"image/vnd.microsoft.icon": "ico",
	"image/tiff":               "tif",
	"image/heic":               "heic",
	"image/heif":               "heif",
	"image/jxl":                "jxl",
}

// ExtensionForContentType 将响应头声明的 Content-Type 映射为文件扩展名，未知类型返回 UnknownExtension。
func ExtensionForContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if ext, ok := imageExtensions[mediaType]; ok {
		return ext
	}
	return UnknownExtension
}
