package layout

import (
	"fmt"
	"strings"
	"testing"
)

type pathRecorder struct {
	ops []string
}

func (p *pathRecorder) BeginPath()          { p.ops = append(p.ops, "begin") }
func (p *pathRecorder) MoveTo(x, y float64) { p.ops = append(p.ops, fmt.Sprintf("move %g %g", x, y)) }
func (p *pathRecorder) ClosePath()          { p.ops = append(p.ops, "close") }
func (p *pathRecorder) ArcTo(x1, y1, x2, y2, r float64) {
	p.ops = append(p.ops, fmt.Sprintf("arc %g %g %g %g %g", x1, y1, x2, y2, r))
}

func TestRoundRectClampsBendRadius(t *testing.T) {
	conv := NewConverter(DesignWidth)
	path := RoundRect(conv, 10, 20, 100, 50, Radius{0, 1, 3, 0.5})

	// 起点使用未钳制的 r1
	if path.Start != (Point{X: 10, Y: 20}) {
		t.Fatalf("起点应为 (10,20)，实际 %+v", path.Start)
	}
	wantR := []float64{2, 3, 2, 2}
	for i, bend := range path.Bends {
		if bend.R != wantR[i] {
			t.Fatalf("第 %d 个拐角半径期望 %g，实际 %g", i, wantR[i], bend.R)
		}
	}
}

func TestRoundRectApplyOrder(t *testing.T) {
	conv := NewConverter(375)
	rec := &pathRecorder{}
	RoundRect(conv, 0, 0, 200, 100, Radius{20, 20, 20, 20}).Apply(rec)

	want := []string{
		"begin",
		"move 10 0",
		"arc 100 0 100 50 10",
		"arc 100 50 0 50 10",
		"arc 0 50 0 0 10",
		"arc 0 0 100 0 10",
		"close",
	}
	if got := strings.Join(rec.ops, "|"); got != strings.Join(want, "|") {
		t.Fatalf("路径指令不符:\n got: %s\nwant: %s", got, strings.Join(want, "|"))
	}
}

func TestRoundRectLargeStartOffsetIsRaw(t *testing.T) {
	conv := NewConverter(DesignWidth)
	path := RoundRect(conv, 0, 0, 100, 100, UniformRadius(1))
	if path.Start.X != 1 {
		t.Fatalf("起点偏移应使用原始半径 1，实际 %g", path.Start.X)
	}
	for _, bend := range path.Bends {
		if bend.R != MinBendRadius {
			t.Fatalf("半径 1 应被钳制为 %g，实际 %g", MinBendRadius, bend.R)
		}
	}
}
