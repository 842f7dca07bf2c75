package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "catalog.db"))
	if err != nil {
		t.Fatalf("Open 失败: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	created, err := store.Create(ctx, validCharacter())
	if err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("应生成 ID")
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if got.Name != "Diluc" || got.Origin != "Mondstadt" || got.Rarity != 5 {
		t.Fatalf("读取内容错误: %+v", got)
	}

	got.Origin = ""
	got.Description = "Darknight Hero"
	updated, err := store.Update(ctx, got)
	if err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if updated.Origin != "" || updated.Description != "Darknight Hero" {
		t.Fatalf("更新未生效: %+v", updated)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("删除后应返回 ErrNotFound，得到 %v", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("重复删除应返回 ErrNotFound，得到 %v", err)
	}
}

func TestStoreRejectsInvalidCharacter(t *testing.T) {
	store := openTestStore(t)
	c := validCharacter()
	c.Rarity = 1
	_, err := store.Create(context.Background(), c)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("应返回校验错误，得到 %v", err)
	}
}

func TestStoreUpdateMissing(t *testing.T) {
	store := openTestStore(t)
	c := validCharacter()
	c.ID = "missing"
	if _, err := store.Update(context.Background(), c); !errors.Is(err, ErrNotFound) {
		t.Fatalf("更新不存在的角色应返回 ErrNotFound，得到 %v", err)
	}
}

func TestStoreListSortedByName(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	for _, name := range []string{"xiangling", "Albedo", "Diluc"} {
		c := validCharacter()
		c.Name = name
		if _, err := store.Create(ctx, c); err != nil {
			t.Fatalf("Create 失败: %v", err)
		}
	}
	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(list) != 3 || list[0].Name != "Albedo" || list[1].Name != "Diluc" || list[2].Name != "xiangling" {
		t.Fatalf("排序错误: %v", names(list))
	}
}

func TestSeedFromFileOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	inserted, skipped, err := store.SeedFromFile(ctx, filepath.Join("testdata", "seed.json"))
	if err != nil {
		t.Fatalf("SeedFromFile 失败: %v", err)
	}
	if inserted != 2 || skipped != 1 {
		t.Fatalf("应写入 2 条跳过 1 条，得到 %d/%d", inserted, skipped)
	}

	list, _ := store.List(ctx)
	if list[0].Image != "https://images.example.com/diluc.png" {
		t.Fatalf("urlImg 字段应被兼容: %+v", list[0])
	}

	inserted, _, err = store.SeedFromFile(ctx, filepath.Join("testdata", "seed.json"))
	if err != nil || inserted != 0 {
		t.Fatalf("非空表不应再次导入，得到 %d (%v)", inserted, err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("首次 Open 失败: %v", err)
	}
	if _, err := first.Create(context.Background(), validCharacter()); err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("重复 Open 失败: %v", err)
	}
	defer second.Close()
	if n, _ := second.Count(context.Background()); n != 1 {
		t.Fatalf("数据应保留，得到 %d", n)
	}
}

func names(list []*Character) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Name)
	}
	return out
}
