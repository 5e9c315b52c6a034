package canvasrenderer

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/freeposter/layout"
)

// arcSegment 是 arcTo 的几何结果：先连线到 start，再沿三次贝塞尔到 end。
type arcSegment struct {
	start, c1, c2, end layout.Point
}

// tangentArc 计算与 p0→p1、p1→p2 两条线段都相切、半径为 r 的圆弧。
// 点重合、共线或半径非正时返回 false，调用方退化为直线连到 p1。
func tangentArc(p0, p1, p2 layout.Point, r float64) (arcSegment, bool) {
	if r <= 0 {
		return arcSegment{}, false
	}
	ux, uy := p0.X-p1.X, p0.Y-p1.Y
	vx, vy := p2.X-p1.X, p2.Y-p1.Y
	lu, lv := math.Hypot(ux, uy), math.Hypot(vx, vy)
	if lu == 0 || lv == 0 {
		return arcSegment{}, false
	}
	ux, uy, vx, vy = ux/lu, uy/lu, vx/lv, vy/lv
	cos := math.Max(-1, math.Min(1, ux*vx+uy*vy))
	theta := math.Acos(cos) // 两条边在拐点处的夹角
	if theta < 1e-9 || math.Pi-theta < 1e-9 {
		return arcSegment{}, false
	}
	d := r / math.Tan(theta/2)
	start := layout.Point{X: p1.X + ux*d, Y: p1.Y + uy*d}
	end := layout.Point{X: p1.X + vx*d, Y: p1.Y + vy*d}
	sweep := math.Pi - theta
	k := 4.0 / 3.0 * math.Tan(sweep/4) * r
	return arcSegment{
		start: start,
		c1:    layout.Point{X: start.X - ux*k, Y: start.Y - uy*k},
		c2:    layout.Point{X: end.X - vx*k, Y: end.Y - vy*k},
		end:   end,
	}, true
}

func rasterize(c *canvas.Canvas) *image.RGBA {
	return rasterizer.Draw(c, canvas.DPMM(1), canvas.DefaultColorSpace)
}

// composite 以 source-over 把 src 叠加到 dst，clip 非空时只影响遮罩覆盖的像素。
func composite(dst *image.RGBA, src image.Image, clip *image.Alpha) {
	if clip == nil {
		draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Over)
		return
	}
	draw.DrawMask(dst, dst.Bounds(), src, image.Point{}, clip, image.Point{}, draw.Over)
}

func intersectMask(a, b *image.Alpha) *image.Alpha {
	if a == nil {
		return b
	}
	out := image.NewAlpha(a.Bounds())
	for i := range out.Pix {
		if i < len(b.Pix) {
			out.Pix[i] = uint8(uint16(a.Pix[i]) * uint16(b.Pix[i]) / 255)
		}
	}
	return out
}

// opacityMask 组合裁剪遮罩与全局透明度，两者都不生效时返回 nil。
func opacityMask(clip *image.Alpha, alpha float64) image.Image {
	a := uint8(math.Round(alpha * 255))
	switch {
	case clip == nil && a == 255:
		return nil
	case clip == nil:
		return image.NewUniform(color.Alpha{A: a})
	case a == 255:
		return clip
	}
	out := image.NewAlpha(clip.Bounds())
	for i, v := range clip.Pix {
		out.Pix[i] = uint8(uint16(v) * uint16(a) / 255)
	}
	return out
}

func withAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * alpha))
	return c
}
