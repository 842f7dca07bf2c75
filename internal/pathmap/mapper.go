package pathmap

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/charhub/charhub/internal/config"
)

// Mapper 负责 web 路径与系统路径之间的双向转换，publicURL 为 "" 或 "/a/b" 形式。
type Mapper struct {
	publicDir string
	publicURL string
	imageDir  string
}

// NewMapper 以 public 目录、public URL 前缀和图片子目录构建 Mapper。
func NewMapper(publicDir, publicURL, imageDir string) *Mapper {
	prefix := strings.Trim(strings.TrimSpace(publicURL), "/")
	if prefix != "" {
		prefix = "/" + prefix
	}
	return &Mapper{
		publicDir: filepath.Clean(publicDir),
		publicURL: prefix,
		imageDir:  strings.Trim(imageDir, "/"),
	}
}

// FromConfig 使用已加载的配置构建 Mapper。
func FromConfig(cfg *config.Config) *Mapper {
	return NewMapper(cfg.PublicDir, cfg.PublicURL, cfg.ImageDir)
}

// PublicDir 返回 public 根目录的系统路径。
func (m *Mapper) PublicDir() string { return m.publicDir }

// PublicURL 返回 public 根目录的 web 前缀。
func (m *Mapper) PublicURL() string { return m.publicURL }

// ImageDir 返回图片根目录的系统路径。
func (m *Mapper) ImageDir() string {
	return filepath.Join(m.publicDir, filepath.FromSlash(m.imageDir))
}

// ImageURL 返回图片根目录的 web 路径。
func (m *Mapper) ImageURL() string {
	return m.publicURL + "/" + m.imageDir
}

// ImagePaths 返回图片根目录下某个子目录的系统路径与 web 路径。
func (m *Mapper) ImagePaths(sub string) (sysDir, webDir string) {
	return filepath.Join(m.ImageDir(), sub), m.ImageURL() + "/" + sub
}

// ToSystemPath 将以 public 前缀开头的 web 路径转换为系统路径。
// 前缀比较在解码后的路径上进行；前缀为空时要求 webPath 以 "/" 开头。
func (m *Mapper) ToSystemPath(webPath string) (string, bool) {
	if webPath == "" {
		return "", false
	}
	decoded, err := url.PathUnescape(webPath)
	if err != nil || strings.ContainsRune(decoded, 0) {
		return "", false
	}

	var rest string
	switch {
	case m.publicURL == "":
		if !strings.HasPrefix(decoded, "/") {
			return "", false
		}
		rest = decoded
	case decoded == m.publicURL:
		rest = "/"
	case strings.HasPrefix(decoded, m.publicURL+"/"):
		rest = strings.TrimPrefix(decoded, m.publicURL)
	default:
		return "", false
	}

	clean := path.Clean("/" + rest)
	return filepath.Join(m.publicDir, filepath.FromSlash(clean)), true
}

// ToWebPath 将 public 目录下的系统路径转换为 web 路径，目录之外的路径返回 false。
func (m *Mapper) ToWebPath(sysPath string) (string, bool) {
	rel, err := filepath.Rel(m.publicDir, filepath.Clean(sysPath))
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if rel == "." {
		if m.publicURL == "" {
			return "/", true
		}
		return m.publicURL, true
	}
	return m.publicURL + "/" + filepath.ToSlash(rel), true
}
