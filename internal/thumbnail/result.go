package thumbnail

import "encoding/json"

// JobState 描述一次 GetOrQueue 的结果类别。
type JobState int

const (
	// JobNotNeeded 表示源不在本地 public 目录下，无需也无法生成缩略图。
	JobNotNeeded JobState = iota
	// JobFailed 表示需要缩略图但 worker 不可达或拒绝入队。
	JobFailed
	// JobPending 表示任务已入队，等待 worker 写出文件。
	JobPending
	// JobReady 表示缩略图已存在。
	JobReady
)

func (s JobState) String() string {
	switch s {
	case JobFailed:
		return "failed"
	case JobPending:
		return "pending"
	case JobReady:
		return "ready"
	default:
		return "not_needed"
	}
}

// MarshalText 使状态在 JSON 中以字符串出现。
func (s JobState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result 是 GetOrQueue 的返回值。只有 JobReady/JobPending 携带 JobID。
type Result struct {
	State     JobState
	WebURL    string
	JobID     string
	AliasStem string
}

// ThumbExists 表示 WebURL 已指向缩略图本身。
func (r Result) ThumbExists() bool { return r.State == JobReady }

// HasJob 表示结果关联了一个有效的 jobId。
func (r Result) HasJob() bool {
	return r.State == JobReady || r.State == JobPending
}

type resultPayload struct {
	ThumbExists bool     `json:"thumbExists"`
	WebURL      string   `json:"webUrl"`
	JobID       *string  `json:"jobId"`
	AliasStem   *string  `json:"aliasStem"`
	State       JobState `json:"state"`
}

// MarshalJSON 输出前端使用的 {thumbExists, webUrl, jobId, aliasStem}，缺省字段为 null。
func (r Result) MarshalJSON() ([]byte, error) {
	payload := resultPayload{
		ThumbExists: r.ThumbExists(),
		WebURL:      r.WebURL,
		State:       r.State,
	}
	if r.HasJob() {
		payload.JobID = &r.JobID
	}
	if r.AliasStem != "" {
		payload.AliasStem = &r.AliasStem
	}
	return json.Marshal(payload)
}

func notNeeded(webURL string) Result {
	return Result{State: JobNotNeeded, WebURL: webURL}
}
