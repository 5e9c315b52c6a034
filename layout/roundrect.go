package layout

import (
	"math"

	"github.com/ByLCY/freeposter/renderer"
)

// MinBendRadius 是圆角弧线半径的下限（设计单位）。
const MinBendRadius = 2.0

// Point 是设备像素坐标。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bend 对应一次 arcTo：从当前点经 (X1,Y1) 折向 (X2,Y2)，以 R 为半径倒圆角。
type Bend struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
	R  float64 `json:"r"`
}

// RoundRectPath 是换算到设备像素后的圆角矩形路径。
// 图片与形状共用同一条路径，保证两者的圆角渲染完全一致。
type RoundRectPath struct {
	Start Point   `json:"start"`
	Bends [4]Bend `json:"bends"`
}

// RoundRect 根据左上角坐标、宽高与四角半径（均为设计单位）构造圆角矩形路径。
// 起点偏移使用原始的 r1，四次 arcTo 的半径都不小于 MinBendRadius。
func RoundRect(conv Converter, x, y, width, height float64, r Radius) RoundRectPath {
	r1, r2, r3, r4 := r[0], r[1], r[2], r[3]
	left, top := conv.ToPx(x), conv.ToPx(y)
	right, bottom := conv.ToPx(x+width), conv.ToPx(y+height)
	return RoundRectPath{
		Start: Point{X: conv.ToPx(x + r1), Y: top},
		Bends: [4]Bend{
			{X1: right, Y1: top, X2: right, Y2: bottom, R: conv.ToPx(bendRadius(r2))},
			{X1: right, Y1: bottom, X2: left, Y2: bottom, R: conv.ToPx(bendRadius(r3))},
			{X1: left, Y1: bottom, X2: left, Y2: top, R: conv.ToPx(bendRadius(r4))},
			{X1: left, Y1: top, X2: right, Y2: top, R: conv.ToPx(bendRadius(r1))},
		},
	}
}

// Apply 在 b 上重新开始一条路径并写入圆角矩形。
func (p RoundRectPath) Apply(b renderer.PathBuilder) {
	b.BeginPath()
	b.MoveTo(p.Start.X, p.Start.Y)
	for _, bend := range p.Bends {
		b.ArcTo(bend.X1, bend.Y1, bend.X2, bend.Y2, bend.R)
	}
	b.ClosePath()
}

func bendRadius(r float64) float64 {
	return math.Max(r, MinBendRadius)
}
