package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/charhub/charhub/internal/cache"
	"github.com/charhub/charhub/internal/config"
	"github.com/charhub/charhub/internal/imagecache"
	"github.com/charhub/charhub/internal/logging"
	"github.com/charhub/charhub/internal/pathmap"
	"github.com/charhub/charhub/internal/server"
	"github.com/charhub/charhub/internal/server/routes"
	"github.com/charhub/charhub/internal/thumbnail"
)

// renderingWorker 模拟外部缩略图 worker：收到任务后立即把输出文件写到 dst。
type renderingWorker struct {
	srv  *httptest.Server
	mu   sync.Mutex
	jobs []thumbnail.Job
}

func newRenderingWorker(t *testing.T) *renderingWorker {
	t.Helper()
	w := &renderingWorker{}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(rw, "ok")
	})
	mux.HandleFunc("/enqueue", func(rw http.ResponseWriter, r *http.Request) {
		var job thumbnail.Job
		if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		w.mu.Lock()
		w.jobs = append(w.jobs, job)
		w.mu.Unlock()
		rw.WriteHeader(http.StatusAccepted)
	})
	w.srv = httptest.NewServer(mux)
	t.Cleanup(w.srv.Close)
	return w
}

// renderAll 为已收到的任务写出缩略图文件。
func (w *renderingWorker) renderAll(t *testing.T) int {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, job := range w.jobs {
		if err := os.WriteFile(job.Dst, []byte("webp-thumb"), 0o644); err != nil {
			t.Fatalf("写入缩略图失败: %v", err)
		}
	}
	return len(w.jobs)
}

type character struct {
	id, name, image string
}

func (c *character) ImageURL() string     { return c.image }
func (c *character) SetImageURL(u string) { c.image = u }
func (c *character) DisplayName() string  { return c.name }
func (c *character) EntityID() string     { return c.id }

func TestRemoteImageToThumbnailFlow(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer origin.Close()
	worker := newRenderingWorker(t)

	publicDir := t.TempDir()
	cfg := &config.Config{ListenPort: 5000, PublicDir: publicDir, ThumbBaseURL: worker.srv.URL}
	config.Normalize(cfg)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("配置无效: %v", err)
	}
	logger := logging.Discard()
	mapper := pathmap.FromConfig(cfg)

	store, err := cache.NewStore(mapper.ImageDir())
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	downloadClient, _ := server.NewDownloadClient(cfg)
	images, err := imagecache.New(imagecache.Options{Store: store, Mapper: mapper, Client: downloadClient, Logger: logger})
	if err != nil {
		t.Fatalf("imagecache error: %v", err)
	}
	workerClient, _ := server.NewWorkerClient(cfg)
	dispatcher, err := thumbnail.NewDispatcher(thumbnail.Options{Config: cfg, Mapper: mapper, Client: workerClient, Logger: logger})
	if err != nil {
		t.Fatalf("dispatcher error: %v", err)
	}

	ctx := context.Background()
	diluc := &character{id: "1", name: "Diluc", image: origin.URL + "/diluc.jpg"}
	if n := images.MaterializeForEntities(ctx, []imagecache.ImageEntity{diluc}, cfg.ImageGroup); n != 1 {
		t.Fatalf("图片应被缓存")
	}
	if diluc.image != "/img/entities/diluc_1.jpg" {
		t.Fatalf("应得到本地别名，得到 %s", diluc.image)
	}

	batch := dispatcher.PrepareForEntities(ctx, []thumbnail.Entity{diluc}, cfg.ThumbWidth, cfg.ThumbHeight)
	pending, ok := batch.Pending["1"]
	if !ok {
		t.Fatalf("首次应入队: %+v", batch)
	}
	if rendered := worker.renderAll(t); rendered != 1 {
		t.Fatalf("worker 应收到 1 个任务，实际 %d", rendered)
	}

	app, err := server.NewApp(server.AppOptions{Logger: logger, ImageDir: mapper.ImageDir(), ImageURL: mapper.ImageURL()})
	if err != nil {
		t.Fatalf("app error: %v", err)
	}
	routes.RegisterThumbStatusRoutes(app, thumbnail.NewReconciler(dispatcher.Layout(), logger), logger)

	body := `{"jobs":[{"jobId":"` + pending.JobID + `","stem":"` + pending.AliasStem + `"}]}`
	req := httptest.NewRequest(http.MethodPost, routes.ThumbStatusPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("status 请求失败: %v", err)
	}
	var status struct {
		Items map[string]struct {
			Status string `json:"status"`
			WebURL string `json:"webUrl"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	item := status.Items[pending.JobID]
	wantThumb := "/img/thumbs/" + pending.AliasStem + ".webp"
	if item.Status != "ready" || item.WebURL != wantThumb {
		t.Fatalf("缩略图应就绪并返回别名: %+v", item)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, wantThumb, nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("缩略图别名应可访问: %v (%v)", err, resp)
	}

	// 第二次渲染直接命中已存在的缩略图，不再入队。
	again := dispatcher.PrepareForEntities(ctx, []thumbnail.Entity{diluc}, cfg.ThumbWidth, cfg.ThumbHeight)
	existing, ok := again.Existing["1"]
	if !ok || existing.WebURL != wantThumb || existing.JobID != pending.JobID {
		t.Fatalf("第二次应返回已有缩略图: %+v", again)
	}
	if rendered := worker.renderAll(t); rendered != 1 {
		t.Fatalf("已存在的缩略图不应再次入队，任务数 %d", rendered)
	}
}
