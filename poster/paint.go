package poster

import (
	"context"

	"github.com/ByLCY/freeposter/layout"
)

// clipRoundRect 在当前表面状态上按圆角矩形建立裁剪区域，返回使用的路径。
func (e *Engine) clipRoundRect(box layout.Box, r layout.Radius) layout.RoundRectPath {
	path := layout.RoundRect(e.conv, box.X, box.Y, box.Width, box.Height, r)
	path.Apply(e.surface)
	e.surface.Clip()
	return path
}

// PaintImage 绘制按圆角裁剪的图片。
//
// 图片地址解析失败时跳过本次绘制，只记录日志并返回 nil，保证海报其余部分照常输出。
func (e *Engine) PaintImage(ctx context.Context, item layout.ImageItem) error {
	defer e.timed("绘制图片时间")()
	e.log.Debug("开始绘制图片", "src", item.Src, "x", item.X, "y", item.Y, "width", item.Width, "height", item.Height)

	// 下载在加锁之前完成，不同图片可以并发解析
	src, err := e.cache.Resolve(ctx, item.Src)
	if err != nil {
		e.log.Warn("图片下载失败，跳过渲染", "src", item.Src, "err", err)
		e.record(item, nil, &traceSkip{Reason: err.Error()})
		return nil
	}

	e.paintMu.Lock()
	defer e.paintMu.Unlock()
	s := e.surface
	s.Save()
	defer s.Restore()
	path := e.clipRoundRect(item.Box, item.Radius)
	if item.BackgroundColor != "" {
		s.SetFillStyle(item.BackgroundColor)
		s.Fill()
	}
	s.DrawImage(src,
		e.conv.ToPx(item.X), e.conv.ToPx(item.Y),
		e.conv.ToPx(item.Width), e.conv.ToPx(item.Height))
	e.record(item, &path, nil)
	return s.Commit(ctx, true)
}

// PaintShape 绘制圆角矩形：有 FillStyle 时填充，同时有 StrokeStyle 与 LineWidth 时描边。
func (e *Engine) PaintShape(ctx context.Context, item layout.ShapeItem) error {
	defer e.timed("绘制图形时间")()
	e.log.Debug("开始绘制图形", "x", item.X, "y", item.Y, "width", item.Width, "height", item.Height,
		"fillStyle", item.FillStyle, "strokeStyle", item.StrokeStyle)

	e.paintMu.Lock()
	defer e.paintMu.Unlock()
	s := e.surface
	s.Save()
	defer s.Restore()
	path := e.clipRoundRect(item.Box, item.Radius)
	if item.FillStyle != "" {
		s.SetFillStyle(item.FillStyle)
		s.Fill()
	}
	if item.LineWidth != 0 && item.StrokeStyle != "" {
		s.SetStrokeStyle(item.StrokeStyle)
		s.SetLineWidth(item.LineWidth)
		s.Stroke()
	}
	e.record(item, &path, nil)
	return s.Commit(ctx, true)
}

// PaintText 在盒子内排版并绘制文本，返回渲染宽度（设计单位）。
//
// 第 i 行绘制在 y + i*lineHeight 处，lineHeight 为 0 时取字号。
func (e *Engine) PaintText(ctx context.Context, item layout.TextItem) (float64, error) {
	defer e.timed("绘制文字时间")()
	item = item.WithDefaults()
	e.log.Debug("开始绘制文字", "text", item.Text, "x", item.X, "y", item.Y, "width", item.Width,
		"fontSize", item.FontSize, "lineNum", item.LineNum)

	e.paintMu.Lock()
	defer e.paintMu.Unlock()
	s := e.surface
	s.Save()
	defer s.Restore()
	font := layout.Font{
		Style:  item.FontStyle,
		Weight: item.FontWeight,
		Size:   e.conv.ToPx(item.FontSize),
		Family: item.FontFamily,
	}
	s.SetFont(font.String())
	s.SetGlobalAlpha(item.Opacity)
	s.SetFillStyle(item.Color)
	s.SetTextBaseline(item.BaseLine)
	s.SetTextAlign(item.TextAlign)

	tl := layout.LayoutText(s, e.conv, item.Text, item.Width, item.LineNum)
	lineHeight := item.EffectiveLineHeight()
	for i, line := range tl.Lines {
		s.FillText(line, e.conv.ToPx(item.X), e.conv.ToPx(item.Y+lineHeight*float64(i)))
	}
	e.record(item, nil, &traceText{Font: font.String(), Layout: tl})
	if err := s.Commit(ctx, true); err != nil {
		return 0, err
	}
	return tl.Width, nil
}
