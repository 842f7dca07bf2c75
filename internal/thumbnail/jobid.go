package thumbnail

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/charhub/charhub/internal/pathmap"
)

// aliasPrefixLen 是别名中保留的 jobId 前缀长度。
const aliasPrefixLen = 13

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// BuildJobID 计算 md5("<resolved>|<mtime>|<w>x<h>")。源文件更新后 mtime 变化，jobId 随之失效。
func BuildJobID(srcPath string, width, height int) string {
	resolved := srcPath
	if target, err := filepath.EvalSymlinks(srcPath); err == nil {
		resolved = target
	}
	var mtime int64
	if info, err := os.Stat(resolved); err == nil && info.Mode().IsRegular() {
		mtime = info.ModTime().Unix()
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d|%dx%d", resolved, mtime, width, height)))
	return hex.EncodeToString(sum[:])
}

// AliasStem 返回 slug(displayName + "_" + jobId 前 13 位)，无名称或无法 slug 化时返回 ""。
func AliasStem(displayName, jobID string) string {
	if displayName == "" || jobID == "" {
		return ""
	}
	prefix := jobID
	if len(prefix) > aliasPrefixLen {
		prefix = prefix[:aliasPrefixLen]
	}
	stem, ok := pathmap.Slugify(displayName + "_" + prefix)
	if !ok {
		return ""
	}
	return stem
}

// ValidJobID 判断客户端提交的 jobId 是否为安全的文件名片段。
func ValidJobID(id string) bool {
	return jobIDPattern.MatchString(id)
}
