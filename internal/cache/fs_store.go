package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const storeDirSuffix = "_cache"

// NewStore 以 root 为图片根目录构建磁盘缓存，整站复用一份实例。
func NewStore(root string) (Store, error) {
	if root == "" {
		return nil, errors.New("image root required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve image root: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create image root: %w", err)
	}

	return &fileStore{basePath: abs}, nil
}

// fileStore 不做进程内加锁：同一 key 的并发写入内容一致，rename 谁后完成谁生效。
type fileStore struct {
	basePath string
}

func (s *fileStore) Lookup(ctx context.Context, locator Locator) (*Entry, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	dir, err := s.groupDir(locator.Group, storeDirSuffix)
	if err != nil {
		return nil, err
	}
	if !isHexKey(locator.Key) {
		return nil, errors.New("invalid cache key")
	}

	matches, err := filepath.Glob(filepath.Join(dir, locator.Key+".*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		return &Entry{
			Locator:   locator,
			Ext:       strings.TrimPrefix(filepath.Ext(match), "."),
			FilePath:  match,
			SizeBytes: info.Size(),
			ModTime:   info.ModTime(),
		}, nil
	}
	return nil, ErrNotFound
}

func (s *fileStore) Put(ctx context.Context, locator Locator, ext string, body io.Reader) (*Entry, error) {
	if ext == "" || ext == UnknownExtension {
		return nil, ErrUnknownType
	}
	if !isHexKey(locator.Key) {
		return nil, errors.New("invalid cache key")
	}

	dir, err := s.StoreDir(locator.Group)
	if err != nil {
		return nil, err
	}
	filePath := filepath.Join(dir, locator.Key+"."+ext)

	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, err
	}
	tempName := tempFile.Name()

	written, err := copyWithContext(ctx, tempFile, body)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return nil, err
	}

	if err := os.Chmod(tempName, 0o644); err != nil {
		os.Remove(tempName)
		return nil, err
	}
	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}

	return &Entry{
		Locator:   locator,
		Ext:       ext,
		FilePath:  filePath,
		SizeBytes: written,
		ModTime:   info.ModTime(),
	}, nil
}

func (s *fileStore) StoreDir(group string) (string, error) {
	dir, err := s.groupDir(group, storeDirSuffix)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func (s *fileStore) LinkDir(group string) (string, error) {
	dir, err := s.groupDir(group, "")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func (s *fileStore) groupDir(group, suffix string) (string, error) {
	group = strings.Trim(group, "/")
	if group == "" || group == "." || strings.Contains(group, "..") || strings.ContainsAny(group, `/\`) {
		return "", errors.New("invalid cache group")
	}
	return filepath.Join(s.basePath, group+suffix), nil
}

func isHexKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}
