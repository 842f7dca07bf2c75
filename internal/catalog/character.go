package catalog

import "github.com/google/uuid"

// Character 是目录中的一条角色记录。Origin 为空表示未知。
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Element     string `json:"element"`
	UnitClass   string `json:"unitclass"`
	Origin      string `json:"origin,omitempty"`
	Rarity      int    `json:"rarity"`
	Image       string `json:"imageUrl"`
	Description string `json:"description,omitempty"`
}

// NewID 生成新的角色 ID。
func NewID() string {
	return uuid.NewString()
}

// *Character 满足 imagecache.ImageEntity/Named/Identified 与 thumbnail.Entity。

func (c *Character) ImageURL() string       { return c.Image }
func (c *Character) SetImageURL(url string) { c.Image = url }
func (c *Character) DisplayName() string    { return c.Name }
func (c *Character) EntityID() string       { return c.ID }
