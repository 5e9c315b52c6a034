// Package fonts 提供内置字体数据，按 family/粗细/斜体选择 Latin Modern 字形。
package fonts

import (
	"fmt"
	"strings"

	"github.com/go-fonts/latin-modern/lmmono10italic"
	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmsans10bold"
	"github.com/go-fonts/latin-modern/lmsans10oblique"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// Generic 是 CSS 通用字体族。
type Generic string

const (
	SansSerif Generic = "sans-serif"
	Serif     Generic = "serif"
	Monospace Generic = "monospace"
)

// Variant 选择同一字体族中的具体字形。
type Variant struct {
	Bold   bool
	Italic bool
}

type faceSet struct {
	regular, bold, italic, boldItalic []byte
}

var builtin = map[Generic]faceSet{
	SansSerif: {
		regular:    lmsans10regular.TTF,
		bold:       lmsans10bold.TTF,
		italic:     lmsans10oblique.TTF,
		boldItalic: lmsans10oblique.TTF, // Latin Modern Sans 没有粗斜体
	},
	Serif: {
		regular:    lmroman10regular.TTF,
		bold:       lmroman10bold.TTF,
		italic:     lmroman10italic.TTF,
		boldItalic: lmroman10bolditalic.TTF,
	},
	Monospace: {
		regular:    lmmono10regular.TTF,
		bold:       lmmono10regular.TTF,
		italic:     lmmono10italic.TTF,
		boldItalic: lmmono10italic.TTF,
	},
}

// Normalize 将 CSS family 名映射到内置通用族，无法识别时归为 sans-serif。
func Normalize(family string) Generic {
	f := strings.ToLower(strings.Trim(strings.TrimSpace(family), `"'`))
	switch {
	case f == "serif", strings.Contains(f, "roman"), strings.Contains(f, "times"), strings.Contains(f, "song"):
		return Serif
	case f == "monospace", strings.Contains(f, "mono"), strings.Contains(f, "courier"):
		return Monospace
	default:
		return SansSerif
	}
}

// Load 返回内置字体的 TTF 字节数据。
func Load(family string, v Variant) ([]byte, error) {
	set, ok := builtin[Normalize(family)]
	if !ok {
		return nil, fmt.Errorf("找不到内置字体 %s", family)
	}
	switch {
	case v.Bold && v.Italic:
		return set.boldItalic, nil
	case v.Bold:
		return set.bold, nil
	case v.Italic:
		return set.italic, nil
	default:
		return set.regular, nil
	}
}
