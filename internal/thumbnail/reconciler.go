package thumbnail

import (
	"github.com/sirupsen/logrus"

	"github.com/charhub/charhub/internal/logging"
	"github.com/charhub/charhub/internal/pathmap"
)

const (
	StatusReady   = "ready"
	StatusPending = "pending"
)

// JobRef 是客户端轮询时提交的一条记录。
type JobRef struct {
	JobID string
	Stem  string
}

// Status 是单个 jobId 的轮询结果，WebURL 仅在 ready 时非空。
type Status struct {
	Status string  `json:"status"`
	WebURL *string `json:"webUrl"`
}

// Reconciler 将客户端持有的 jobId 与磁盘上的输出文件对账，不访问 worker。
type Reconciler struct {
	layout Layout
	logger *logrus.Logger
}

// NewReconciler 以共享的磁盘布局构建 Reconciler。
func NewReconciler(layout Layout, logger *logrus.Logger) *Reconciler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Reconciler{layout: layout, logger: logger}
}

// Reconcile 返回每个合法 jobId 的状态。非法 jobId 被丢弃；非法 stem 视为未提供。
// 输出已存在时会顺带创建别名并返回别名 URL。
func (r *Reconciler) Reconcile(jobs []JobRef) map[string]Status {
	items := make(map[string]Status, len(jobs))
	for _, job := range jobs {
		if !ValidJobID(job.JobID) {
			continue
		}
		stem := job.Stem
		if stem != "" && !pathmap.IsSlug(stem) {
			stem = ""
		}

		if !r.layout.Ready(job.JobID) {
			items[job.JobID] = Status{Status: StatusPending}
			continue
		}
		webURL, _ := r.layout.Publish(job.JobID, stem)
		items[job.JobID] = Status{Status: StatusReady, WebURL: &webURL}
	}
	r.logger.WithFields(logrus.Fields{
		"action":    "thumb_status",
		"requested": len(jobs),
		"resolved":  len(items),
	}).Debug("thumb_status_reconciled")
	return items
}
