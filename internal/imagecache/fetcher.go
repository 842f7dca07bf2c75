package imagecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/charhub/charhub/internal/cache"
	"github.com/charhub/charhub/internal/logging"
	"github.com/charhub/charhub/internal/pathmap"
)

// DefaultGroup 是未指定 group 时使用的缓存分组。
const DefaultGroup = "store"

const defaultUserAgent = "Mozilla/5.0"

// Options 描述 Cache 的依赖，全部由调用方在进程启动时注入。
type Options struct {
	Store     cache.Store
	Mapper    *pathmap.Mapper
	Client    *http.Client
	Logger    *logrus.Logger
	UserAgent string
}

// Cache 负责远程图片的去重下载与本地 URL 生成。
type Cache struct {
	store     cache.Store
	mapper    *pathmap.Mapper
	client    *http.Client
	logger    *logrus.Logger
	userAgent string

	// 同一进程内对同一 key 的并发下载只发起一次；跨进程仍依赖 rename 的幂等性。
	inflight singleflight.Group
}

// New 构造 Cache。
func New(opts Options) (*Cache, error) {
	if opts.Store == nil {
		return nil, errors.New("cache store is required")
	}
	if opts.Mapper == nil {
		return nil, errors.New("path mapper is required")
	}
	if opts.Client == nil {
		return nil, errors.New("http client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Cache{
		store:     opts.Store,
		mapper:    opts.Mapper,
		client:    opts.Client,
		logger:    logger,
		userAgent: ua,
	}, nil
}

// Fetch 返回 rawURL 在本地缓存中的公开 URL。已缓存时不访问网络；
// displayName 可 slug 化时优先返回别名 URL。任何失败都返回 false。
func (c *Cache) Fetch(ctx context.Context, rawURL, displayName, group string) (string, bool) {
	if !isDownloadableURL(rawURL) {
		return "", false
	}
	group = strings.Trim(strings.TrimSpace(group), "/")
	if group == "" {
		group = DefaultGroup
	}

	locator := cache.Locator{Group: group, Key: cache.KeyFor(rawURL)}
	entry, err := c.store.Lookup(ctx, locator)
	switch {
	case err == nil:
		c.logger.WithFields(logging.ImageFields("image_cache", group, rawURL)).Debug("image_cache_hit")
	case errors.Is(err, cache.ErrNotFound):
		entry, err = c.download(ctx, rawURL, locator)
		if err != nil {
			c.logger.WithError(err).WithFields(logging.ImageFields("image_download", group, rawURL)).Warn("image_download_failed")
			return "", false
		}
	default:
		c.logger.WithError(err).WithFields(logging.ImageFields("image_cache", group, rawURL)).Warn("image_cache_lookup_failed")
		return "", false
	}

	if displayName != "" {
		if aliasURL, ok := c.alias(entry, displayName); ok {
			return aliasURL, true
		}
	}

	publicURL, ok := c.mapper.ToWebPath(entry.FilePath)
	if !ok {
		c.logger.WithFields(logging.ImageFields("image_cache", group, rawURL)).
			WithField("path", entry.FilePath).Warn("image_outside_public_dir")
		return "", false
	}
	return publicURL, true
}

// MaterializeForEntities 将实体的远程图片替换为本地缓存 URL，返回成功替换的数量。
func (c *Cache) MaterializeForEntities(ctx context.Context, entities []ImageEntity, group string) int {
	replaced := 0
	for _, entity := range entities {
		if entity == nil {
			continue
		}
		localURL, ok := c.Fetch(ctx, entity.ImageURL(), aliasName(entity), group)
		if !ok {
			continue
		}
		entity.SetImageURL(localURL)
		replaced++
	}
	return replaced
}

func (c *Cache) download(ctx context.Context, rawURL string, locator cache.Locator) (*cache.Entry, error) {
	flightKey := locator.Group + "/" + locator.Key
	// 共享下载不跟随任何单个调用方的取消，只受 download_timeout 约束；
	// 每个调用方各自等待自己的 ctx。
	shared := context.WithoutCancel(ctx)
	results := c.inflight.DoChan(flightKey, func() (interface{}, error) {
		// 另一个请求可能刚刚完成写入。
		if entry, err := c.store.Lookup(shared, locator); err == nil {
			return entry, nil
		}
		return c.fetchRemote(shared, rawURL, locator)
	})

	select {
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*cache.Entry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) fetchRemote(ctx context.Context, rawURL string, locator cache.Locator) (*cache.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/*,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	ext := cache.ExtensionForContentType(contentType)
	if ext == cache.UnknownExtension {
		return nil, fmt.Errorf("%w: %q", cache.ErrUnknownType, contentType)
	}

	entry, err := c.store.Put(ctx, locator, ext, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	c.logger.WithFields(logging.ImageFields("image_download", locator.Group, rawURL)).
		WithField("size_bytes", entry.SizeBytes).
		WithField("file", entry.FileName()).
		Info("image_cached")
	return entry, nil
}

// alias 维护 <group>/<slug>.<ext> → <group>_cache/<key>.<ext> 的符号链接。
func (c *Cache) alias(entry *cache.Entry, displayName string) (string, bool) {
	slug, ok := pathmap.Slugify(displayName)
	if !ok {
		return "", false
	}
	linkDir, err := c.store.LinkDir(entry.Locator.Group)
	if err != nil {
		c.logger.WithError(err).WithField("group", entry.Locator.Group).Warn("image_alias_dir_failed")
		return "", false
	}
	link := filepath.Join(linkDir, slug+"."+entry.Ext)
	if !pathmap.CreateOrReplaceSymlink(entry.FilePath, link) {
		return "", false
	}
	return c.mapper.ToWebPath(link)
}

func isDownloadableURL(raw string) bool {
	if strings.TrimSpace(raw) != raw || raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
