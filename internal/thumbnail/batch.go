package thumbnail

import "context"

// Entity 是批量准备缩略图时需要的最小能力；实现 Named 时别名会带上名称。
type Entity interface {
	ImageURL() string
	EntityID() string
}

// Named 是可选能力：提供用于别名的可读名称。
type Named interface {
	DisplayName() string
}

// Batch 按实体 ID 分组的批量结果。
type Batch struct {
	Existing map[string]Result `json:"existing"`
	Pending  map[string]Result `json:"pending"`
	Errors   map[string]Result `json:"errors"`
}

// JobIDs 返回所有待生成任务的 jobId，供页面轮询使用。
func (b Batch) JobIDs() map[string]string {
	ids := make(map[string]string, len(b.Pending))
	for entityID, result := range b.Pending {
		ids[entityID] = result.JobID
	}
	return ids
}

// PrepareForEntities 对每个实体调用 GetOrQueue，按结果归入 existing/pending/errors。
// 缺少 ID 的实体被跳过。
func (d *Dispatcher) PrepareForEntities(ctx context.Context, entities []Entity, width, height int) Batch {
	batch := Batch{
		Existing: make(map[string]Result),
		Pending:  make(map[string]Result),
		Errors:   make(map[string]Result),
	}
	for _, entity := range entities {
		if entity == nil {
			continue
		}
		id := entity.EntityID()
		if id == "" {
			continue
		}
		var name string
		if named, ok := entity.(Named); ok {
			name = named.DisplayName()
		}

		result := d.GetOrQueue(ctx, entity.ImageURL(), width, height, name)
		switch result.State {
		case JobReady:
			batch.Existing[id] = result
		case JobPending:
			batch.Pending[id] = result
		default:
			batch.Errors[id] = result
		}
	}
	return batch
}
