package pathmap

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldLetters 处理 NFKD 无法拆解的拉丁字母。
var foldLetters = strings.NewReplacer(
	"ß", "ss", "ẞ", "SS",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"ł", "l", "Ł", "L",
	"þ", "th", "Þ", "TH",
	"ı", "i",
)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

const slugSeparator = "_"

// ToASCII 将任意字符串转写为 ASCII：先拆解重音符号，再丢弃无法表示的字符。
func ToASCII(value string) (string, bool) {
	chain := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, foldLetters.Replace(value))
	if err != nil {
		return "", false
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	return out, out != ""
}

// Slugify 生成只包含 [a-z0-9_] 的名称片段，可直接用作文件名与 URL 段。
func Slugify(name string) (string, bool) {
	ascii, ok := ToASCII(name)
	if !ok {
		return "", false
	}
	s := slugSeparators.ReplaceAllString(strings.ToLower(ascii), slugSeparator)
	s = strings.Trim(s, slugSeparator)
	return s, s != ""
}

// IsSlug 判断 value 是否已经是 Slugify 的输出形式。
func IsSlug(value string) bool {
	if value == "" {
		return false
	}
	slug, ok := Slugify(value)
	return ok && slug == value
}
