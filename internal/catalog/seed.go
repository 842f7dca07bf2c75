package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// seedRecord 兼容历史数据文件中的 urlImg 字段名。
type seedRecord struct {
	Name        string `json:"name"`
	Element     string `json:"element"`
	UnitClass   string `json:"unitclass"`
	Origin      string `json:"origin"`
	Rarity      int    `json:"rarity"`
	URLImg      string `json:"urlImg"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
}

// SeedFromFile 在表为空时导入 JSON 数组中的角色，返回写入条数。
// 校验失败的记录被跳过并计入 skipped。
func (s *Store) SeedFromFile(ctx context.Context, path string) (inserted, skipped int, err error) {
	total, err := s.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	if total > 0 {
		return 0, 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read seed file: %w", err)
	}
	var records []seedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, 0, fmt.Errorf("decode seed file: %w", err)
	}

	for _, rec := range records {
		image := rec.ImageURL
		if image == "" {
			image = rec.URLImg
		}
		c := &Character{
			Name:        rec.Name,
			Element:     rec.Element,
			UnitClass:   rec.UnitClass,
			Origin:      rec.Origin,
			Rarity:      rec.Rarity,
			Image:       image,
			Description: rec.Description,
		}
		if _, err := s.Create(ctx, c); err != nil {
			var vErr *ValidationError
			if errors.As(err, &vErr) {
				skipped++
				continue
			}
			return inserted, skipped, err
		}
		inserted++
	}
	return inserted, skipped, nil
}
