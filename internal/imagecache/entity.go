package imagecache

// ImageEntity 由持有图片 URL 的实体实现，MaterializeForEntities 会原地替换其 URL。
type ImageEntity interface {
	ImageURL() string
	SetImageURL(string)
}

// Named 是可选能力：提供用于别名的可读名称。
type Named interface {
	DisplayName() string
}

// Identified 是可选能力：提供实体 ID，与名称组合后避免别名冲突。
type Identified interface {
	EntityID() string
}

// aliasName 组合别名来源：name_id > name > id。
func aliasName(entity ImageEntity) string {
	var name, id string
	if named, ok := entity.(Named); ok {
		name = named.DisplayName()
	}
	if identified, ok := entity.(Identified); ok {
		id = identified.EntityID()
	}
	switch {
	case name != "" && id != "":
		return name + "_" + id
	case name != "":
		return name
	default:
		return id
	}
}
