// Package canvasrenderer 使用 github.com/tdewolff/canvas 实现 renderer.Surface，
// 所有绘制先进入队列，Commit 时光栅化到内存位图。
package canvasrenderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"sync"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/freeposter/layout"
	"github.com/ByLCY/freeposter/renderer"
)

// Surface 是基于内存位图的绘图表面，1 个画布单位等于 1 个设备像素。
type Surface struct {
	width, height int
	opts          Options
	log           *slog.Logger

	// 绘制状态只在调用方串行的绘制流程中访问
	state   drawState
	stack   []drawState
	path    *canvas.Path
	cur     layout.Point
	hasCur  bool
	pending []op
	errs    []error

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry

	imageMu sync.Mutex
	images  map[string]image.Image

	mu     sync.Mutex // 保护 raster
	raster *image.RGBA
}

var (
	_ renderer.Surface = (*Surface)(nil)
	_ renderer.Flusher = (*Surface)(nil)
)

// Options 配置画布表面。
type Options struct {
	BaseDir string              // 相对路径与 wxfile:// 资源的根目录
	TempDir string              // Snapshot 写入的目录，默认 os.TempDir()
	Fonts   map[string]Resource // 按 family 名注入的字体，优先于内置字体
	Images  map[string]Resource // 通过 built-in:<name> 访问的图片
	Logger  *slog.Logger
}

// Resource 可以由 Bytes 或 Path 提供。
type Resource struct {
	Bytes []byte
	Path  string
}

type drawState struct {
	fill, stroke color.NRGBA
	lineWidth    float64
	alpha        float64
	font         layout.Font
	baseline     string
	align        string
	clip         *image.Alpha // nil 表示不裁剪
}

type op func(dst *image.RGBA) error

// NewSurface 创建 width×height 像素的透明画布。
func NewSurface(width, height int, opts Options) *Surface {
	if width <= 0 || height <= 0 {
		width, height = 1, 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Surface{
		width:  width,
		height: height,
		opts:   opts,
		log:    logger,
		state: drawState{
			fill:      color.NRGBA{A: 255},
			stroke:    color.NRGBA{A: 255},
			lineWidth: 1,
			alpha:     1,
			font:      layout.Font{Style: "normal", Weight: "normal", Size: 10, Family: "sans-serif"},
			baseline:  "alphabetic",
			align:     "left",
		},
		path:         &canvas.Path{},
		fontFamilies: map[string]*fontFamilyEntry{},
		images:       map[string]image.Image{},
		raster:       image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Bounds 返回画布像素范围。
func (s *Surface) Bounds() image.Rectangle { return image.Rect(0, 0, s.width, s.height) }

// Image 返回当前已提交内容的拷贝。
func (s *Surface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.raster.Bounds())
	copy(out.Pix, s.raster.Pix)
	return out
}

// Pending 返回尚未提交的绘制指令数量。
func (s *Surface) Pending() int { return len(s.pending) }

func (s *Surface) Save() {
	s.stack = append(s.stack, s.state)
}

func (s *Surface) Restore() {
	if len(s.stack) == 0 {
		return
	}
	s.state = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *Surface) BeginPath() {
	s.path = &canvas.Path{}
	s.hasCur = false
}

func (s *Surface) MoveTo(x, y float64) {
	s.path.MoveTo(x, y)
	s.cur, s.hasCur = layout.Point{X: x, Y: y}, true
}

func (s *Surface) lineTo(x, y float64) {
	if !s.hasCur {
		s.MoveTo(x, y)
		return
	}
	s.path.LineTo(x, y)
	s.cur = layout.Point{X: x, Y: y}
}

// ArcTo 与 HTML canvas 的 arcTo 一致：先连线到第一个切点，再以三次贝塞尔近似圆弧到第二个切点。
func (s *Surface) ArcTo(x1, y1, x2, y2, radius float64) {
	if !s.hasCur {
		s.MoveTo(x1, y1)
	}
	seg, ok := tangentArc(s.cur, layout.Point{X: x1, Y: y1}, layout.Point{X: x2, Y: y2}, radius)
	if !ok {
		s.lineTo(x1, y1)
		return
	}
	s.lineTo(seg.start.X, seg.start.Y)
	s.path.CubeTo(seg.c1.X, seg.c1.Y, seg.c2.X, seg.c2.Y, seg.end.X, seg.end.Y)
	s.cur = seg.end
}

func (s *Surface) ClosePath() {
	if s.path.Empty() {
		return
	}
	s.path.Close()
}

// Clip 把当前路径与已有裁剪区域求交，作为新的裁剪区域。
func (s *Surface) Clip() {
	mask := s.rasterMask(s.path)
	s.state.clip = intersectMask(s.state.clip, mask)
}

func (s *Surface) SetFillStyle(value string) {
	if c, err := layout.ParseColor(value); err == nil {
		s.state.fill = c
	} else {
		s.log.Debug("忽略无效的 fillStyle", "value", value, "err", err)
	}
}

func (s *Surface) SetStrokeStyle(value string) {
	if c, err := layout.ParseColor(value); err == nil {
		s.state.stroke = c
	} else {
		s.log.Debug("忽略无效的 strokeStyle", "value", value, "err", err)
	}
}

func (s *Surface) SetLineWidth(width float64) {
	if width > 0 && !math.IsInf(width, 0) {
		s.state.lineWidth = width
	}
}

func (s *Surface) SetGlobalAlpha(alpha float64) {
	if alpha >= 0 && alpha <= 1 {
		s.state.alpha = alpha
	}
}

func (s *Surface) Fill() {
	if s.path.Empty() {
		return
	}
	s.enqueueFill(s.path.Copy(), s.state.fill, s.state)
}

func (s *Surface) Stroke() {
	if s.path.Empty() {
		return
	}
	p := s.path.Copy()
	st := s.state
	s.pending = append(s.pending, func(dst *image.RGBA) error {
		c, ctx := s.newContext()
		ctx.SetFillColor(color.Transparent)
		ctx.SetStrokeColor(withAlpha(st.stroke, st.alpha))
		ctx.SetStrokeWidth(st.lineWidth)
		ctx.DrawPath(0, 0, p)
		composite(dst, rasterize(c), st.clip)
		return nil
	})
}

func (s *Surface) FillRect(x, y, width, height float64) {
	if width == 0 || height == 0 {
		return
	}
	p := &canvas.Path{}
	p.MoveTo(x, y)
	p.LineTo(x+width, y)
	p.LineTo(x+width, y+height)
	p.LineTo(x, y+height)
	p.Close()
	s.enqueueFill(p, s.state.fill, s.state)
}

func (s *Surface) ClearRect(x, y, width, height float64) {
	r := image.Rect(int(math.Floor(x)), int(math.Floor(y)), int(math.Ceil(x+width)), int(math.Ceil(y+height))).Canon()
	clip := s.state.clip
	s.pending = append(s.pending, func(dst *image.RGBA) error {
		r := r.Intersect(dst.Bounds())
		if clip == nil {
			draw.Draw(dst, r, image.Transparent, image.Point{}, draw.Src)
			return nil
		}
		draw.DrawMask(dst, r, image.Transparent, image.Point{}, clip, r.Min, draw.Src)
		return nil
	})
}

func (s *Surface) enqueueFill(p *canvas.Path, col color.NRGBA, st drawState) {
	s.pending = append(s.pending, func(dst *image.RGBA) error {
		c, ctx := s.newContext()
		ctx.SetFillColor(withAlpha(col, st.alpha))
		ctx.SetStrokeColor(color.Transparent)
		ctx.DrawPath(0, 0, p)
		composite(dst, rasterize(c), st.clip)
		return nil
	})
}

// Commit 把队列中的绘制指令落到位图上。reserve 为 false 时先清空画布。
func (s *Surface) Commit(ctx context.Context, reserve bool) error {
	ops, errs := s.pending, s.errs
	s.pending, s.errs = nil, nil

	s.mu.Lock()
	defer s.mu.Unlock()
	if !reserve {
		draw.Draw(s.raster, s.raster.Bounds(), image.Transparent, image.Point{}, draw.Src)
	}
	for i, o := range ops {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("提交第 %d 条绘制指令时中断: %w", i, err)
		}
		if err := o(s.raster); err != nil {
			errs = append(errs, err)
		}
	}
	s.log.Debug("commit", "ops", len(ops), "reserve", reserve)
	return errors.Join(errs...)
}

// Flush 等待正在进行的提交或导出完成。
func (s *Surface) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return ctx.Err()
}

func (s *Surface) newContext() (*canvas.Canvas, *canvas.Context) {
	c := canvas.New(float64(s.width), float64(s.height))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 左上角为原点，与设备像素一致
	return c, ctx
}

// rasterMask 把路径按非零规则填充后取覆盖率作为遮罩。
func (s *Surface) rasterMask(p *canvas.Path) *image.Alpha {
	mask := image.NewAlpha(s.Bounds())
	if p.Empty() {
		return mask
	}
	c, ctx := s.newContext()
	ctx.SetFillColor(color.Black)
	ctx.SetStrokeColor(color.Transparent)
	ctx.DrawPath(0, 0, p.Copy())
	img := rasterize(c)
	b := mask.Bounds().Intersect(img.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			mask.SetAlpha(x, y, color.Alpha{A: img.RGBAAt(x, y).A})
		}
	}
	return mask
}
