package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Font 描述文本字体，Size 为设备像素。
type Font struct {
	Style  string  `json:"style"`
	Weight string  `json:"weight"`
	Size   float64 `json:"size"`
	Family string  `json:"family"`
}

// String 生成 CSS font 简写，例如 "normal bold 24px sans-serif"。
func (f Font) String() string {
	style, weight, family := f.Style, f.Weight, f.Family
	if style == "" {
		style = "normal"
	}
	if weight == "" {
		weight = "normal"
	}
	if family == "" {
		family = "sans-serif"
	}
	return fmt.Sprintf("%s %s %spx %s", style, weight, strconv.FormatFloat(f.Size, 'f', -1, 64), family)
}

// IsBold 判断字重是否按粗体渲染。
func (f Font) IsBold() bool {
	switch strings.ToLower(f.Weight) {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	default:
		return false
	}
}

// IsItalic 判断是否为斜体。
func (f Font) IsItalic() bool {
	s := strings.ToLower(f.Style)
	return s == "italic" || s == "oblique"
}

// ParseFont 解析 CSS font 简写：[style] [weight] <size>px <family...>。
func ParseFont(value string) (Font, error) {
	fields := strings.Fields(value)
	font := Font{Style: "normal", Weight: "normal", Family: "sans-serif"}
	sizeIdx := -1
	for i, f := range fields {
		if strings.HasSuffix(f, "px") {
			size, err := strconv.ParseFloat(strings.TrimSuffix(f, "px"), 64)
			if err != nil {
				return Font{}, fmt.Errorf("字号 %q 无法解析: %w", f, err)
			}
			font.Size = size
			sizeIdx = i
			break
		}
	}
	if sizeIdx < 0 {
		return Font{}, fmt.Errorf("font %q 缺少以 px 结尾的字号", value)
	}
	for _, f := range fields[:sizeIdx] {
		switch strings.ToLower(f) {
		case "italic", "oblique":
			font.Style = strings.ToLower(f)
		case "normal":
			// style 与 weight 的默认值
		default:
			font.Weight = strings.ToLower(f)
		}
	}
	if family := strings.Join(fields[sizeIdx+1:], " "); family != "" {
		font.Family = strings.Trim(family, `"'`)
	}
	return font, nil
}
