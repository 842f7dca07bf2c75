package catalog

import (
	"net/url"
	"strings"
)

var (
	validElements = []string{"Anémo", "Géo", "Électro", "Dendro", "Hydro", "Pyro", "Cryo", "Adaptatif"}
	validClasses  = []string{"Épée à une main", "Épée à deux mains", "Arme d'hast", "Catalyseur", "Arc"}
	validOrigins  = []string{"Mondstadt", "Liyue", "Inazuma", "Sumeru", "Fontaine", "Natlan", "Nod-Krai", "Snezhnaya"}
)

const (
	minRarity = 4
	maxRarity = 5
)

// ValidationError 汇总一条记录的全部校验失败原因。
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, " ; ")
}

// Elements 返回允许的元素列表，供表单渲染使用。
func Elements() []string { return append([]string(nil), validElements...) }

// Classes 返回允许的武器类型列表。
func Classes() []string { return append([]string(nil), validClasses...) }

// Origins 返回允许的地区列表（不含空值）。
func Origins() []string { return append([]string(nil), validOrigins...) }

// Validate 检查角色字段；返回 *ValidationError 或 nil。
func Validate(c *Character) error {
	var problems []string

	if strings.TrimSpace(c.Name) == "" {
		problems = append(problems, "the name of the character cannot be empty")
	}

	switch {
	case strings.TrimSpace(c.Element) == "":
		problems = append(problems, "the element of the character cannot be empty")
	case !contains(validElements, c.Element):
		problems = append(problems, "the element of the character is invalid")
	}

	switch {
	case strings.TrimSpace(c.UnitClass) == "":
		problems = append(problems, "the class of the character cannot be empty")
	case !contains(validClasses, c.UnitClass):
		problems = append(problems, "the class of the character is invalid")
	}

	if c.Rarity < minRarity || c.Rarity > maxRarity {
		problems = append(problems, "the rarity of the character must be between 4 and 5")
	}

	if c.Origin != "" && !contains(validOrigins, c.Origin) {
		problems = append(problems, "the origin of the character is invalid")
	}

	switch {
	case strings.TrimSpace(c.Image) == "":
		problems = append(problems, "the image URL cannot be empty")
	case !isImageReference(c.Image):
		problems = append(problems, "the image URL must be an http(s) URL or an absolute path")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// isImageReference 接受 http(s) 绝对 URL 或站内绝对路径。
func isImageReference(raw string) bool {
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
