package thumbnail

import (
	"os"
	"path/filepath"

	"github.com/charhub/charhub/internal/pathmap"
)

const (
	outputDirName = "thumbs_cache"
	aliasDirName  = "thumbs"
)

// Layout 描述缩略图输出与别名在磁盘和 URL 上的位置。
type Layout struct {
	mapper    *pathmap.Mapper
	extension string
}

// NewLayout 以路径映射与缩略图扩展名（含点）构建 Layout。
func NewLayout(mapper *pathmap.Mapper, extension string) Layout {
	return Layout{mapper: mapper, extension: extension}
}

// Extension 返回缩略图扩展名。
func (l Layout) Extension() string { return l.extension }

// OutputPath 返回 worker 写入的缩略图路径及其 URL。
func (l Layout) OutputPath(jobID string) (sysPath, webPath string) {
	sysDir, webDir := l.mapper.ImagePaths(outputDirName)
	name := jobID + l.extension
	return filepath.Join(sysDir, name), webDir + "/" + name
}

// AliasPath 返回别名符号链接路径及其 URL。
func (l Layout) AliasPath(stem string) (sysPath, webPath string) {
	sysDir, webDir := l.mapper.ImagePaths(aliasDirName)
	name := stem + l.extension
	return filepath.Join(sysDir, name), webDir + "/" + name
}

// Ready 判断 jobId 的输出文件是否已存在。
func (l Layout) Ready(jobID string) bool {
	sysPath, _ := l.OutputPath(jobID)
	info, err := os.Stat(sysPath)
	return err == nil && info.Mode().IsRegular()
}

// Publish 返回已生成缩略图的 URL：stem 非空且别名创建成功时返回别名 URL，否则返回输出 URL。
func (l Layout) Publish(jobID, stem string) (string, bool) {
	outSys, outWeb := l.OutputPath(jobID)
	if stem == "" {
		return outWeb, false
	}
	linkSys, linkWeb := l.AliasPath(stem)
	if err := pathmap.EnsureDir(filepath.Dir(linkSys)); err != nil {
		return outWeb, false
	}
	if !pathmap.CreateOrReplaceSymlink(outSys, linkSys) {
		return outWeb, false
	}
	return linkWeb, true
}
