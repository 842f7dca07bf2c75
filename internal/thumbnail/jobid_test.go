package thumbnail

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuildJobIDIsStable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	first := BuildJobID(src, 480, 600)
	if first != BuildJobID(src, 480, 600) {
		t.Fatalf("相同输入应得到相同 jobId")
	}
	if len(first) != 32 || !ValidJobID(first) {
		t.Fatalf("jobId 应为 32 位十六进制: %s", first)
	}
	if first == BuildJobID(src, 240, 300) {
		t.Fatalf("尺寸变化应改变 jobId")
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(src, later, later); err != nil {
		t.Fatalf("修改 mtime 失败: %v", err)
	}
	if first == BuildJobID(src, 480, 600) {
		t.Fatalf("mtime 变化应改变 jobId")
	}
}

func TestBuildJobIDResolvesSymlinks(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "real.png")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	link := filepath.Join(dir, "alias.png")
	if err := os.Symlink(src, link); err != nil {
		t.Fatalf("创建符号链接失败: %v", err)
	}
	resolved, _ := filepath.EvalSymlinks(src)
	if BuildJobID(link, 10, 10) != BuildJobID(resolved, 10, 10) {
		t.Fatalf("别名与真实文件应得到相同 jobId")
	}
}

func TestAliasStem(t *testing.T) {
	jobID := "0123456789abcdef0123456789abcdef"
	if got := AliasStem("Diluc", jobID); got != "diluc_0123456789abc" {
		t.Fatalf("AliasStem 错误: %s", got)
	}
	if got := AliasStem("", jobID); got != "" {
		t.Fatalf("无名称时应为空，得到 %q", got)
	}
	if got := AliasStem("北斗", jobID); !strings.HasPrefix(got, "0123456789abc") {
		t.Fatalf("无法转写的名称应仅保留 jobId 前缀，得到 %q", got)
	}
}

func TestValidJobID(t *testing.T) {
	valid := []string{"abc", "A-b_9", strings.Repeat("a", 128)}
	for _, id := range valid {
		if !ValidJobID(id) {
			t.Fatalf("%q 应合法", id)
		}
	}
	invalid := []string{"", "../etc", "a b", "a/b", "a.b", strings.Repeat("a", 129)}
	for _, id := range invalid {
		if ValidJobID(id) {
			t.Fatalf("%q 应非法", id)
		}
	}
}
