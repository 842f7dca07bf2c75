package pathmap

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// EnsureDir 递归创建目录，已存在时不做任何事。
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// CreateOrReplaceSymlink 让 link 指向 target。target 不存在时返回 false 且不触碰 link；
// link 已解析到 target 时直接成功；否则先在同目录创建临时链接再 rename 覆盖，失败时清理临时链接。
func CreateOrReplaceSymlink(target, link string) bool {
	if _, err := os.Stat(target); err != nil {
		return false
	}

	if resolved, err := filepath.EvalSymlinks(link); err == nil {
		if want, err := filepath.EvalSymlinks(target); err == nil && resolved == want {
			return true
		}
	}

	tmp := filepath.Join(filepath.Dir(link), ".link-"+uuid.NewString())
	if err := os.Symlink(target, tmp); err != nil {
		return false
	}
	if err := os.Rename(tmp, link); err != nil {
		_ = os.Remove(tmp)
		return false
	}
	return true
}
