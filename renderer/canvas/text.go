package canvasrenderer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/freeposter/fonts"
	"github.com/ByLCY/freeposter/layout"
)

// 画布单位是像素（按 1 px = 1 mm 光栅化），字体系统使用 pt。
const mmPerPt = 0.3527777777777778

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

func (s *Surface) SetFont(value string) {
	f, err := layout.ParseFont(value)
	if err != nil {
		s.log.Debug("忽略无效的 font", "value", value, "err", err)
		return
	}
	s.state.font = f
}

func (s *Surface) SetTextBaseline(baseline string) {
	s.state.baseline = strings.ToLower(baseline)
}

func (s *Surface) SetTextAlign(align string) {
	s.state.align = strings.ToLower(align)
}

// MeasureText 立即返回 text 在当前字体下的像素宽度。
func (s *Surface) MeasureText(text string) float64 {
	face, err := s.fontFace(s.state.font, color.Black)
	if err != nil {
		s.log.Warn("测量文本失败", "font", s.state.font.String(), "err", err)
		return 0
	}
	return face.TextWidth(text)
}

func (s *Surface) FillText(text string, x, y float64) {
	if text == "" {
		return
	}
	st := s.state
	face, err := s.fontFace(st.font, withAlpha(st.fill, st.alpha))
	if err != nil {
		s.errs = append(s.errs, err)
		return
	}
	var halign canvas.TextAlign
	switch st.align {
	case "center":
		halign = canvas.Center
	case "right", "end":
		halign = canvas.Right
	default:
		halign = canvas.Left
	}
	baseline := baselineY(face.Metrics(), st.baseline, y)
	s.pending = append(s.pending, func(dst *image.RGBA) error {
		c, ctx := s.newContext()
		ctx.DrawText(x, baseline, canvas.NewTextLine(face, text, halign))
		composite(dst, rasterize(c), st.clip)
		return nil
	})
}

// baselineY 把 textBaseline 换算为字母基线所在的 y。
func baselineY(m canvas.FontMetrics, baseline string, y float64) float64 {
	ascent, descent := math.Abs(m.Ascent), math.Abs(m.Descent)
	switch baseline {
	case "top", "hanging":
		return y + ascent
	case "middle":
		return y + (ascent-descent)/2
	case "bottom", "ideographic":
		return y - descent
	default: // normal / alphabetic
		return y
	}
}

func (s *Surface) fontFace(f layout.Font, col color.Color) (*canvas.FontFace, error) {
	family, style, err := s.ensureFontFamily(f)
	if err != nil {
		return nil, err
	}
	size := f.Size
	if size <= 0 {
		size = 10
	}
	return family.Face(size/mmPerPt, col, style, canvas.FontNormal), nil
}

func (s *Surface) ensureFontFamily(f layout.Font) (*canvas.FontFamily, canvas.FontStyle, error) {
	style := fontStyle(f)
	key := fmt.Sprintf("%s|%d", strings.ToLower(f.Family), style)
	s.fontMu.Lock()
	defer s.fontMu.Unlock()

	if entry, ok := s.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}
	data, err := s.loadFontBytes(f)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily(f.Family)
	if err := family.LoadFont(data, 0, style); err != nil {
		return nil, canvas.FontRegular, fmt.Errorf("加载字体 %s 失败: %w", f.Family, err)
	}
	s.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

// loadFontBytes 先查找注入的字体，再退回内置字体。
func (s *Surface) loadFontBytes(f layout.Font) ([]byte, error) {
	for _, name := range strings.Split(f.Family, ",") {
		name = strings.Trim(strings.TrimSpace(name), `"'`)
		res, ok := s.opts.Fonts[name]
		if !ok {
			continue
		}
		if len(res.Bytes) > 0 {
			return res.Bytes, nil
		}
		path := res.Path
		if !filepath.IsAbs(path) && s.opts.BaseDir != "" {
			path = filepath.Join(s.opts.BaseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取字体 %s 失败: %w", name, err)
		}
		return data, nil
	}
	return fonts.Load(f.Family, fonts.Variant{Bold: f.IsBold(), Italic: f.IsItalic()})
}

func fontStyle(f layout.Font) canvas.FontStyle {
	style := canvas.FontRegular
	switch strings.ToLower(f.Weight) {
	case "900", "black":
		style = canvas.FontBlack
	case "800", "extrabold":
		style = canvas.FontExtraBold
	case "700", "bold", "bolder":
		style = canvas.FontBold
	case "600", "semibold":
		style = canvas.FontSemiBold
	case "500", "medium":
		style = canvas.FontMedium
	case "300", "light", "lighter":
		style = canvas.FontLight
	}
	if f.IsItalic() {
		style |= canvas.FontItalic
	}
	return style
}
