package renderer

import "context"

// PathBuilder 是构造路径所需的最小接口，圆角矩形裁剪路径只依赖它。
type PathBuilder interface {
	BeginPath()
	MoveTo(x, y float64)
	// ArcTo 与 HTML canvas 的 arcTo 语义一致：以当前点、(x1,y1)、(x2,y2) 三点确定的切线圆弧拐角。
	ArcTo(x1, y1, x2, y2, radius float64)
	ClosePath()
}

// Measurer 返回文本在当前字体下的宽度（设备像素）。
type Measurer interface {
	MeasureText(text string) float64
}

// Surface 是宿主绘图表面，所有坐标均为设备像素。
//
// 绘制调用只进入队列，Commit 时才真正落到画布上；reserve 为 false 时先清空已有内容。
// Surface 的 save/clip/restore 状态栈没有内部锁，调用方需要串行化绘制。
type Surface interface {
	PathBuilder
	Measurer

	Save()
	Restore()
	Clip()

	SetFillStyle(color string)
	SetStrokeStyle(color string)
	SetLineWidth(width float64)
	SetGlobalAlpha(alpha float64)
	Fill()
	Stroke()
	FillRect(x, y, width, height float64)
	ClearRect(x, y, width, height float64)

	// SetFont 接收 CSS font 简写，例如 "normal bold 24px sans-serif"。
	SetFont(font string)
	SetTextBaseline(baseline string)
	SetTextAlign(align string)
	FillText(text string, x, y float64)

	// DrawImage 绘制本地资源路径指向的图片，并缩放到 (x, y, width, height)。
	DrawImage(src string, x, y, width, height float64)

	Commit(ctx context.Context, reserve bool) error
	Snapshot(ctx context.Context, opts SnapshotOptions) (string, error)
}

// Flusher 由能够给出"绘制队列已清空"信号的表面实现，导出前优先使用它而不是固定等待。
type Flusher interface {
	Flush(ctx context.Context) error
}

// SnapshotOptions 描述导出快照的参数。
type SnapshotOptions struct {
	CanvasID string
	Quality  float64 // 0..1，仅对 jpg 生效
	FileType string  // png（默认）或 jpg
}
