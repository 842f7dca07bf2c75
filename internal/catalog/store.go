package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound 表示指定 ID 的角色不存在。
var ErrNotFound = errors.New("character not found")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const selectColumns = `id, name, element, unitclass, origin, rarity, image_url, description`

// Store 基于 SQLite 持久化角色目录。
type Store struct {
	db   *sql.DB
	path string
}

// Open 打开（必要时创建）数据库文件并执行迁移。path 为 ":memory:" 时使用内存库。
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// 每个连接都是独立的内存库。
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close 关闭底层连接。
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path 返回数据库文件路径。
func (s *Store) Path() string { return s.path }

// List 按名称排序返回全部角色。
func (s *Store) List(ctx context.Context) ([]*Character, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM characters ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	out := make([]*Character, 0)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	return out, nil
}

// Get 按 ID 查询角色，不存在时返回 ErrNotFound。
func (s *Store) Get(ctx context.Context, id string) (*Character, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM characters WHERE id = ?`, id)
	c, err := scanCharacter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get character: %w", err)
	}
	return c, nil
}

// Count 返回角色总数。
func (s *Store) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM characters`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count characters: %w", err)
	}
	return total, nil
}

// Create 校验并写入新角色；ID 为空时自动生成。
func (s *Store) Create(ctx context.Context, c *Character) (*Character, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}
	record := *c
	if record.ID == "" {
		record.ID = NewID()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.execWithRetry(ctx,
		`INSERT INTO characters (id, name, element, unitclass, origin, rarity, image_url, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		strings.TrimSpace(record.Name),
		record.Element,
		record.UnitClass,
		nullableString(record.Origin),
		record.Rarity,
		record.Image,
		nullableString(record.Description),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert character: %w", err)
	}
	return s.Get(ctx, record.ID)
}

// Update 校验并覆盖已有角色，不存在时返回 ErrNotFound。
func (s *Store) Update(ctx context.Context, c *Character) (*Character, error) {
	if c.ID == "" {
		return nil, ErrNotFound
	}
	if err := Validate(c); err != nil {
		return nil, err
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE characters
		 SET name = ?, element = ?, unitclass = ?, origin = ?, rarity = ?, image_url = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		strings.TrimSpace(c.Name),
		c.Element,
		c.UnitClass,
		nullableString(c.Origin),
		c.Rarity,
		c.Image,
		nullableString(c.Description),
		time.Now().UTC().Format(time.RFC3339Nano),
		c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update character: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, c.ID)
}

// Delete 删除角色，不存在时返回 ErrNotFound。
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM characters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row rowScanner) (*Character, error) {
	var (
		c           Character
		origin      sql.NullString
		description sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Element, &c.UnitClass, &origin, &c.Rarity, &c.Image, &description); err != nil {
		return nil, err
	}
	c.Origin = origin.String
	c.Description = description.String
	return &c, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}
