package thumbnail

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charhub/charhub/internal/config"
	"github.com/charhub/charhub/internal/pathmap"
)

// fakeWorker 记录 health 探测次数与收到的任务。
type fakeWorker struct {
	srv           *httptest.Server
	healthHits    int32
	enqueueStatus int

	mu   sync.Mutex
	jobs []Job
}

func newFakeWorker(t *testing.T, enqueueStatus int) *fakeWorker {
	t.Helper()
	w := &fakeWorker{enqueueStatus: enqueueStatus}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&w.healthHits, 1)
		rw.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/enqueue", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		var job Job
		if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		w.mu.Lock()
		w.jobs = append(w.jobs, job)
		w.mu.Unlock()
		rw.WriteHeader(w.enqueueStatus)
	})
	w.srv = httptest.NewServer(mux)
	t.Cleanup(w.srv.Close)
	return w
}

func (w *fakeWorker) received() []Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Job(nil), w.jobs...)
}

func newTestDispatcher(t *testing.T, workerURL string) (*Dispatcher, string) {
	t.Helper()
	publicDir := t.TempDir()
	cfg := &config.Config{
		ListenPort:   5000,
		PublicDir:    publicDir,
		ThumbBaseURL: workerURL,
	}
	config.Normalize(cfg)

	d, err := NewDispatcher(Options{
		Config: cfg,
		Mapper: pathmap.FromConfig(cfg),
		Client: &http.Client{},
	})
	if err != nil {
		t.Fatalf("NewDispatcher 失败: %v", err)
	}
	return d, publicDir
}

// writePublicFile 在 public 目录下写入文件并返回其 web 路径。
func writePublicFile(t *testing.T, publicDir, rel string) string {
	t.Helper()
	full := filepath.Join(publicDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.WriteFile(full, []byte("image-bytes"), 0o644); err != nil {
		t.Fatalf("写入文件失败: %v", err)
	}
	return "/" + rel
}

// closedServerURL 返回一个已关闭端口的地址，连接会被拒绝。
func closedServerURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}
