package routes

import (
	"context"

	"github.com/gofiber/fiber/v3"
)

// WorkerProbe 报告缩略图 worker 是否可达。
type WorkerProbe interface {
	IsWorkerReachable(ctx context.Context) bool
}

// CatalogCounter 报告目录中的角色数量。
type CatalogCounter interface {
	Count(ctx context.Context) (int, error)
}

// DiagnosticsInfo 汇总 /-/status 需要展示的运行时信息。
type DiagnosticsInfo struct {
	Version        string
	ImageDir       string
	ImageURL       string
	ImageGroup     string
	ThumbExtension string
	Worker         WorkerProbe
	Catalog        CatalogCounter
}

type statusPayload struct {
	Version         string `json:"version"`
	ImageDir        string `json:"image_dir"`
	ImageURL        string `json:"image_url"`
	ImageGroup      string `json:"image_group"`
	ThumbExtension  string `json:"thumb_extension"`
	WorkerReachable bool   `json:"worker_reachable"`
	Characters      *int   `json:"characters"`
}

// RegisterDiagnosticsRoutes 暴露 /-/status 诊断接口，供运维确认 worker 与目录状态。
func RegisterDiagnosticsRoutes(app *fiber.App, info DiagnosticsInfo) {
	if app == nil {
		return
	}

	app.Get("/-/status", func(c fiber.Ctx) error {
		ctx := c.Context()
		payload := statusPayload{
			Version:        info.Version,
			ImageDir:       info.ImageDir,
			ImageURL:       info.ImageURL,
			ImageGroup:     info.ImageGroup,
			ThumbExtension: info.ThumbExtension,
		}
		if info.Worker != nil {
			payload.WorkerReachable = info.Worker.IsWorkerReachable(ctx)
		}
		if info.Catalog != nil {
			if n, err := info.Catalog.Count(ctx); err == nil {
				payload.Characters = &n
			}
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(payload)
	})
}
