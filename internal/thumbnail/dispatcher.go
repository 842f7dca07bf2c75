package thumbnail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charhub/charhub/internal/config"
	"github.com/charhub/charhub/internal/logging"
	"github.com/charhub/charhub/internal/pathmap"
)

// Job 是投递给 worker 的任务描述，src/dst 均为绝对系统路径。
type Job struct {
	ID     string `json:"job_id"`
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Options 描述 Dispatcher 的依赖。
type Options struct {
	Config *config.Config
	Mapper *pathmap.Mapper
	Client *http.Client
	Logger *logrus.Logger
}

// Dispatcher 负责探测 worker、投递任务以及为单张图片决定缩略图状态。
type Dispatcher struct {
	layout         Layout
	mapper         *pathmap.Mapper
	client         *http.Client
	logger         *logrus.Logger
	healthURL      string
	enqueueURL     string
	healthTimeout  time.Duration
	enqueueTimeout time.Duration

	probeOnce sync.Once
	reachable bool
}

// NewDispatcher 构造 Dispatcher；worker 的可达性在首次使用时才探测。
func NewDispatcher(opts Options) (*Dispatcher, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
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
	cfg := opts.Config
	return &Dispatcher{
		layout:         NewLayout(opts.Mapper, cfg.ThumbExtension),
		mapper:         opts.Mapper,
		client:         opts.Client,
		logger:         logger,
		healthURL:      cfg.HealthURL(),
		enqueueURL:     cfg.EnqueueURL(),
		healthTimeout:  cfg.HealthTimeout.DurationValue(),
		enqueueTimeout: cfg.EnqueueTimeout.DurationValue(),
	}, nil
}

// Layout 返回 Dispatcher 使用的磁盘布局，供 Reconciler 共享。
func (d *Dispatcher) Layout() Layout { return d.layout }

// IsWorkerReachable 在进程内只探测一次 worker 健康端点，之后复用结果。
// 任何 HTTP 响应都视为可达；连接被拒绝视为静默不可用。
func (d *Dispatcher) IsWorkerReachable(ctx context.Context) bool {
	d.probeOnce.Do(func() {
		d.reachable = d.probe(ctx)
	})
	return d.reachable
}

func (d *Dispatcher) probe(ctx context.Context) bool {
	// 结果会被缓存，不能受单个请求取消的影响。
	probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, d.healthURL, nil)
	if err != nil {
		d.logger.WithError(err).WithField("url", d.healthURL).Warn("thumb_worker_probe_invalid")
		return false
	}
	resp, err := d.client.Do(req)
	if err != nil {
		entry := d.logger.WithError(err).WithField("url", d.healthURL)
		if isConnectionRefused(err) {
			entry.Debug("thumb_worker_unavailable")
		} else {
			entry.Warn("thumb_worker_probe_failed")
		}
		return false
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	_ = resp.Body.Close()

	d.logger.WithFields(logrus.Fields{
		"url":    d.healthURL,
		"status": resp.StatusCode,
	}).Info("thumb_worker_reachable")
	return true
}

// Enqueue 将任务 POST 给 worker，仅 2xx 视为成功；不重试。
func (d *Dispatcher) Enqueue(ctx context.Context, job Job) bool {
	if !d.IsWorkerReachable(ctx) {
		return false
	}
	fields := logging.JobFields("thumb_enqueue", job.ID, job.Width, job.Height)

	payload, err := json.Marshal(job)
	if err != nil {
		d.logger.WithError(err).WithFields(fields).Warn("thumb_enqueue_encode_failed")
		return false
	}

	enqueueCtx, cancel := context.WithTimeout(ctx, d.enqueueTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(enqueueCtx, http.MethodPost, d.enqueueURL, bytes.NewReader(payload))
	if err != nil {
		d.logger.WithError(err).WithFields(fields).Warn("thumb_enqueue_failed")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.WithError(err).WithFields(fields).Warn("thumb_enqueue_failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		d.logger.WithFields(fields).WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Warn("thumb_enqueue_rejected")
		return false
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	d.logger.WithFields(fields).Debug("thumb_enqueued")
	return true
}

// GetOrQueue 为 public 目录下的图片返回缩略图状态：已存在则直接返回缩略图 URL，
// 否则尝试入队；源不在本地时原样返回 webURL。
func (d *Dispatcher) GetOrQueue(ctx context.Context, webURL string, width, height int, displayName string) Result {
	if width <= 0 || height <= 0 {
		return notNeeded(webURL)
	}
	srcPath, ok := d.mapper.ToSystemPath(webURL)
	if !ok {
		return notNeeded(webURL)
	}
	info, err := os.Stat(srcPath)
	if err != nil || !info.Mode().IsRegular() {
		return notNeeded(webURL)
	}

	jobID := BuildJobID(srcPath, width, height)
	outSys, _ := d.layout.OutputPath(jobID)
	if err := pathmap.EnsureDir(filepath.Dir(outSys)); err != nil {
		d.logger.WithError(err).WithFields(logging.JobFields("thumb_prepare", jobID, width, height)).Warn("thumb_output_dir_failed")
	}
	stem := AliasStem(displayName, jobID)

	if d.layout.Ready(jobID) {
		thumbURL, aliased := d.layout.Publish(jobID, stem)
		result := Result{State: JobReady, WebURL: thumbURL, JobID: jobID}
		if aliased {
			result.AliasStem = stem
		}
		return result
	}

	job := Job{ID: jobID, Src: srcPath, Dst: outSys, Width: width, Height: height}
	if !d.Enqueue(ctx, job) {
		return Result{State: JobFailed, WebURL: webURL}
	}
	return Result{State: JobPending, WebURL: webURL, JobID: jobID, AliasStem: stem}
}

func isConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}

