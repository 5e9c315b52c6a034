package layout

import "github.com/ByLCY/freeposter/renderer"

// Ellipsis 是行数超限时替换行尾字符的截断标记。
const Ellipsis = "..."

// TextLayout 是一次排版的结果，Width 为设计单位。
type TextLayout struct {
	Lines   []string `json:"lines"`
	Width   float64  `json:"width"`
	Wrapped bool     `json:"wrapped"`
}

// LayoutText 在宽度为 boxWidth（设计单位）的盒子内排版 text，最多保留 lineNum 行。
//
// 整段文本放得下时原样返回单行与自然宽度；否则逐字符贪心累积，每累积一个字符测量一次，
// 宽度达到或超过 boxWidth 即收行。第 lineNum 行收行时若文本尚未耗尽，则把该行最后一个字符
// 替换为 Ellipsis；超出 lineNum 的行继续扫描但不会输出。发生折行时返回的宽度为 boxWidth。
//
// 测量次数与字符数成正比，每次测量的代价又与当前行长度成正比，长文本需要注意开销。
func LayoutText(m renderer.Measurer, conv Converter, text string, boxWidth float64, lineNum int) TextLayout {
	natural := conv.ToRpx(m.MeasureText(text))
	if natural <= boxWidth {
		return TextLayout{Lines: []string{text}, Width: natural}
	}

	runes := []rune(text)
	last := len(runes) - 1
	var (
		lines     []string
		candidate []rune
	)
	line := 1
	for i, r := range runes {
		candidate = append(candidate, r)
		if conv.ToRpx(m.MeasureText(string(candidate))) >= boxWidth {
			closed := string(candidate)
			// 恰好在最后一个字符收满最后一行时不加省略号
			if line == lineNum && i != last {
				closed = string(candidate[:len(candidate)-1]) + Ellipsis
			}
			if line <= lineNum {
				lines = append(lines, closed)
			}
			candidate = candidate[:0]
			line++
			continue
		}
		if line <= lineNum && i == last {
			lines = append(lines, string(candidate))
		}
	}
	return TextLayout{Lines: lines, Width: boxWidth, Wrapped: true}
}
