package routes

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/charhub/charhub/internal/server"
	"github.com/charhub/charhub/internal/thumbnail"
)

// ThumbStatusPath 是前端轮询缩略图状态的端点。
const ThumbStatusPath = "/api/thumb_status"

// StatusReconciler 将 jobId 列表与磁盘上的缩略图对账。
type StatusReconciler interface {
	Reconcile(jobs []thumbnail.JobRef) map[string]thumbnail.Status
}

// RegisterThumbStatusRoutes 注册 POST /api/thumb_status；其他方法返回 405。
func RegisterThumbStatusRoutes(app *fiber.App, reconciler StatusReconciler, logger *logrus.Logger) {
	if app == nil || reconciler == nil {
		return
	}

	app.All(ThumbStatusPath, func(c fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")

		if c.Method() != fiber.MethodPost {
			c.Set(fiber.HeaderAllow, fiber.MethodPost)
			return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
				"error": "method not allowed, use POST with a JSON body",
			})
		}

		refs, problem := decodeJobRefs(c.Get(fiber.HeaderContentType), c.Body())
		if problem != "" {
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"action":     "thumb_status",
					"request_id": server.RequestID(c),
					"reason":     problem,
				}).Debug("thumb_status_rejected")
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": problem})
		}

		return c.JSON(fiber.Map{"items": reconciler.Reconcile(refs)})
	})
}

// decodeJobRefs 解析 {"jobs":[{"jobId":"...","stem":"..."}]}，返回非空的问题描述表示 400。
// 缺少字符串 jobId 的条目被静默跳过（jobId 恒为十六进制字符串，数字形式不会由前端产生）。
func decodeJobRefs(contentType string, body []byte) ([]thumbnail.JobRef, string) {
	if !strings.Contains(strings.ToLower(contentType), fiber.MIMEApplicationJSON) {
		return nil, "invalid content type, expected application/json"
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, "empty request body"
	}

	var payload struct {
		Jobs json.RawMessage `json:"jobs"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, "malformed json: " + err.Error()
	}

	var entries []json.RawMessage
	if len(payload.Jobs) == 0 || json.Unmarshal(payload.Jobs, &entries) != nil || len(entries) == 0 {
		return nil, `missing or invalid "jobs" array`
	}

	refs := make([]thumbnail.JobRef, 0, len(entries))
	for _, raw := range entries {
		var entry struct {
			JobID json.RawMessage `json:"jobId"`
			Stem  json.RawMessage `json:"stem"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		var ref thumbnail.JobRef
		// jobId 只接受 JSON 字符串；数字等其他类型不做转换，直接跳过。
		if err := json.Unmarshal(entry.JobID, &ref.JobID); err != nil || ref.JobID == "" {
			continue
		}
		// stem 非字符串时按未提供处理。
		_ = json.Unmarshal(entry.Stem, &ref.Stem)
		refs = append(refs, ref)
	}
	return refs, ""
}
