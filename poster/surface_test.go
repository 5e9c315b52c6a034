package poster

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/ByLCY/freeposter/renderer"
)

// recordingSurface 记录所有绘制调用，MeasureText 按每个字符 10px 计算。
type recordingSurface struct {
	mu          sync.Mutex
	ops         []string
	snapshotErr error
	snapshots   []renderer.SnapshotOptions
}

var _ renderer.Surface = (*recordingSurface)(nil)

func (s *recordingSurface) add(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, fmt.Sprintf(format, args...))
}

func (s *recordingSurface) Ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

func (s *recordingSurface) BeginPath()          { s.add("beginPath") }
func (s *recordingSurface) MoveTo(x, y float64) { s.add("moveTo %g %g", x, y) }
func (s *recordingSurface) ArcTo(x1, y1, x2, y2, r float64) {
	s.add("arcTo %g %g %g %g %g", x1, y1, x2, y2, r)
}
func (s *recordingSurface) ClosePath() { s.add("closePath") }
func (s *recordingSurface) MeasureText(text string) float64 {
	return float64(utf8.RuneCountInString(text)) * 10
}
func (s *recordingSurface) Save()                        { s.add("save") }
func (s *recordingSurface) Restore()                     { s.add("restore") }
func (s *recordingSurface) Clip()                        { s.add("clip") }
func (s *recordingSurface) SetFillStyle(c string)        { s.add("fillStyle %s", c) }
func (s *recordingSurface) SetStrokeStyle(c string)      { s.add("strokeStyle %s", c) }
func (s *recordingSurface) SetLineWidth(w float64)       { s.add("lineWidth %g", w) }
func (s *recordingSurface) SetGlobalAlpha(a float64)     { s.add("globalAlpha %g", a) }
func (s *recordingSurface) Fill()                        { s.add("fill") }
func (s *recordingSurface) Stroke()                      { s.add("stroke") }
func (s *recordingSurface) FillRect(x, y, w, h float64)  { s.add("fillRect %g %g %g %g", x, y, w, h) }
func (s *recordingSurface) ClearRect(x, y, w, h float64) { s.add("clearRect %g %g %g %g", x, y, w, h) }
func (s *recordingSurface) SetFont(f string)             { s.add("font %s", f) }
func (s *recordingSurface) SetTextBaseline(b string)     { s.add("textBaseline %s", b) }
func (s *recordingSurface) SetTextAlign(a string)        { s.add("textAlign %s", a) }
func (s *recordingSurface) FillText(t string, x, y float64) {
	s.add("fillText %s %g %g", t, x, y)
}
func (s *recordingSurface) DrawImage(src string, x, y, w, h float64) {
	s.add("drawImage %s %g %g %g %g", src, x, y, w, h)
}

func (s *recordingSurface) Commit(ctx context.Context, reserve bool) error {
	s.add("commit %t", reserve)
	return nil
}

func (s *recordingSurface) Snapshot(ctx context.Context, opts renderer.SnapshotOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, opts)
	if s.snapshotErr != nil {
		return "", s.snapshotErr
	}
	return "/tmp/" + opts.CanvasID + "." + opts.FileType, nil
}

// flushingSurface 额外实现 renderer.Flusher。
type flushingSurface struct {
	recordingSurface
	flushes int
}

func (s *flushingSurface) Flush(ctx context.Context) error {
	s.flushes++
	return nil
}

func indexOf(ops []string, op string) int {
	for i, o := range ops {
		if o == op {
			return i
		}
	}
	return -1
}
