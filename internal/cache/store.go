package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"time"
)

// Store 负责管理内容寻址缓存的读写。磁盘布局遵循：
//
//	<root>/<group>_cache/<key>.<ext>    # 原始图片
//	<root>/<group>/<slug>.<ext>         # 可读别名（符号链接，由调用方维护）
//
// 每个 key 最多对应一个文件，文件的 ModTime/Size 由文件系统提供。
type Store interface {
	// Lookup 通过 glob <key>.* 查找已缓存的条目，不发起任何网络请求。若不存在则返回 ErrNotFound。
	Lookup(ctx context.Context, locator Locator) (*Entry, error)

	// Put 将正文写入 <key>.<ext>。实现需通过临时文件 + rename 保证写入原子性，
	// 并在失败时清理临时文件。
	Put(ctx context.Context, locator Locator, ext string, body io.Reader) (*Entry, error)

	// StoreDir 返回 group 的内容寻址目录，必要时创建。
	StoreDir(group string) (string, error)

	// LinkDir 返回 group 的别名目录，必要时创建。
	LinkDir(group string) (string, error)
}

// Locator 唯一定位一个缓存条目（group + key）。
type Locator struct {
	Group string
	Key   string
}

// Entry 表示一次缓存命中或写入结果，包含绝对文件路径及文件信息。
type Entry struct {
	Locator   Locator   `json:"locator"`
	Ext       string    `json:"ext"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// FileName 返回条目在 store 目录内的文件名。
func (e Entry) FileName() string {
	return e.Locator.Key + "." + e.Ext
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")

// ErrUnknownType 表示响应的 Content-Type 不在允许列表内。
var ErrUnknownType = errors.New("unsupported content type")

// KeyFor 返回源 URL 对应的缓存 key（md5 十六进制）。
func KeyFor(sourceURL string) string {
	sum := md5.Sum([]byte(sourceURL))
	return hex.EncodeToString(sum[:])
}
