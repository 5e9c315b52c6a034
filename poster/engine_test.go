package poster

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/freeposter/layout"
	"github.com/ByLCY/freeposter/loader"
)

func newTestEngine(s *recordingSurface, opts Options) *Engine {
	if opts.Fetcher == nil {
		opts.Fetcher = loader.FetcherFunc(func(ctx context.Context, url string) (string, error) {
			return "/tmp/downloaded.png", nil
		})
	}
	opts.Debug = Bool(false)
	return New(s, opts)
}

func TestNewMergesDefaults(t *testing.T) {
	e := New(&recordingSurface{}, Options{Height: 1000})
	o := e.Options()
	assert.Equal(t, "posterCanvasId", o.CanvasID)
	assert.Equal(t, 750.0, o.Width)
	assert.Equal(t, 1000.0, o.Height)
	assert.Equal(t, 1.0, o.Quality)
	assert.Equal(t, "png", o.FileType)
	assert.Equal(t, 750.0, o.ScreenWidth)
	assert.Equal(t, 50*time.Millisecond, o.SettleDelay)
	assert.Equal(t, 3, o.MaxAttempts)
	require.NotNil(t, o.Debug)
	assert.True(t, *o.Debug)

	quiet := New(&recordingSurface{}, Options{Debug: Bool(false)})
	assert.False(t, *quiet.Options().Debug)
}

type videoItem struct{ layout.ImageItem }

func (videoItem) Kind() layout.Kind { return "video" }

func TestExecRejectsUnknownKinds(t *testing.T) {
	s := &recordingSurface{}
	e := newTestEngine(s, Options{})

	_, err := e.Exec(context.Background(), videoItem{})
	require.Error(t, err)
	assert.ErrorIs(t, err, layout.ErrUnsupportedItemType)
	assert.EqualError(t, err, "[poster]: video 类型不存在")

	_, err = e.ExecDescriptor(context.Background(), layout.Descriptor{Type: "video"})
	assert.ErrorIs(t, err, layout.ErrUnsupportedItemType)

	_, err = e.Exec(context.Background(), nil)
	assert.ErrorIs(t, err, layout.ErrUnsupportedItemType)

	assert.Empty(t, s.Ops(), "未知类型不应触碰表面")
}

func TestPaintShapeFollowsSaveClipCommitRestore(t *testing.T) {
	s := &recordingSurface{}
	e := newTestEngine(s, Options{})

	_, err := e.Exec(context.Background(), layout.ShapeItem{
		Box:         layout.Box{X: 10, Y: 20, Width: 100, Height: 50},
		Radius:      layout.UniformRadius(0),
		FillStyle:   "#fff",
		StrokeStyle: "#000",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"save",
		"beginPath",
		"moveTo 10 20",
		"arcTo 110 20 110 70 2",
		"arcTo 110 70 10 70 2",
		"arcTo 10 70 10 20 2",
		"arcTo 10 20 110 20 2",
		"closePath",
		"clip",
		"fillStyle #fff",
		"fill",
		"commit true",
		"restore",
	}, s.Ops(), "没有 lineWidth 时不描边")
}

func TestExecAcceptsItemPointers(t *testing.T) {
	byValue := &recordingSurface{}
	_, err := newTestEngine(byValue, Options{}).Exec(context.Background(), layout.ShapeItem{
		Box:       layout.Box{Width: 40, Height: 40},
		Radius:    layout.DefaultRadius,
		FillStyle: "#f00",
	})
	require.NoError(t, err)

	byPointer := &recordingSurface{}
	e := newTestEngine(byPointer, Options{})
	_, err = e.Exec(context.Background(), &layout.ShapeItem{
		Box:       layout.Box{Width: 40, Height: 40},
		Radius:    layout.DefaultRadius,
		FillStyle: "#f00",
	})
	require.NoError(t, err)
	assert.Equal(t, byValue.Ops(), byPointer.Ops())

	width, err := e.Exec(context.Background(), &layout.TextItem{Text: "hi", FontSize: 20, Opacity: 1, Box: layout.Box{Width: 100}})
	require.NoError(t, err)
	assert.Equal(t, 20.0, width)

	var nilShape *layout.ShapeItem
	_, err = e.Exec(context.Background(), nilShape)
	assert.ErrorIs(t, err, layout.ErrUnsupportedItemType)
}

func TestPaintShapeStrokes(t *testing.T) {
	s := &recordingSurface{}
	e := newTestEngine(s, Options{})
	require.NoError(t, e.PaintShape(context.Background(), layout.ShapeItem{
		Box:         layout.Box{Width: 10, Height: 10},
		Radius:      layout.DefaultRadius,
		StrokeStyle: "red",
		LineWidth:   3,
	}))
	ops := s.Ops()
	assert.Equal(t, -1, indexOf(ops, "fill"))
	assert.Less(t, indexOf(ops, "clip"), indexOf(ops, "stroke"))
	assert.Less(t, indexOf(ops, "lineWidth 3"), indexOf(ops, "stroke"))
	assert.Less(t, indexOf(ops, "stroke"), indexOf(ops, "commit true"))
}

func TestPaintImageConvertsToDevicePixels(t *testing.T) {
	s := &recordingSurface{}
	e := newTestEngine(s, Options{ScreenWidth: 375})
	require.NoError(t, e.PaintImage(context.Background(), layout.ImageItem{
		Box:             layout.Box{X: 100, Y: 200, Width: 300, Height: 400},
		Src:             "https://cdn.example.com/a.png",
		Radius:          layout.UniformRadius(10),
		BackgroundColor: "#eee",
	}))
	ops := s.Ops()
	assert.Equal(t, "moveTo 55 100", ops[2])
	clip := indexOf(ops, "clip")
	bg := indexOf(ops, "fillStyle #eee")
	img := indexOf(ops, "drawImage /tmp/downloaded.png 50 100 150 200")
	require.NotEqual(t, -1, img)
	assert.True(t, clip < bg && bg < img)
	assert.Equal(t, "commit true", ops[len(ops)-2])
	assert.Equal(t, "restore", ops[len(ops)-1])
	assert.Equal(t, 1, e.Cache().Len())
}

func TestPaintImageSkipsWhenDownloadFails(t *testing.T) {
	s := &recordingSurface{}
	var calls atomic.Int32
	e := newTestEngine(s, Options{Fetcher: loader.FetcherFunc(func(ctx context.Context, url string) (string, error) {
		calls.Add(1)
		return "", errors.New("offline")
	})})

	_, err := e.Exec(context.Background(), layout.ImageItem{Src: "https://cdn.example.com/a.png", Box: layout.Box{Width: 1, Height: 1}})
	require.NoError(t, err, "绘制时的下载失败只记录日志")
	assert.Empty(t, s.Ops())
	assert.Equal(t, int32(3), calls.Load())

	trace := e.Trace()
	require.Len(t, trace, 1)
	require.NotNil(t, trace[0].Skipped)
	assert.Contains(t, trace[0].Skipped.Reason, "offline")
}

func TestPaintTextFitsOnOneLine(t *testing.T) {
	s := &recordingSurface{}
	e := newTestEngine(s, Options{})
	width, err := e.Exec(context.Background(), layout.TextItem{
		Box:      layout.Box{X: 20, Y: 30, Width: 200},
		Text:     "hello",
		FontSize: 24,
		Color:    "#333",
		BaseLine: "top",
		Opacity:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, width)

	ops := s.Ops()
	assert.Equal(t, []string{
		"save",
		"font normal normal 24px sans-serif",
		"globalAlpha 1",
		"fillStyle #333",
		"textBaseline top",
		"textAlign left",
		"fillText hello 20 30",
		"commit true",
		"restore",
	}, ops)
}

func TestPaintTextWrapsAndTruncates(t *testing.T) {
	s := &recordingSurface{}
	e := newTestEngine(s, Options{})
	width, err := e.PaintText(context.Background(), layout.TextItem{
		Box:        layout.Box{X: 0, Y: 100, Width: 40},
		Text:       "abcdefghij",
		FontSize:   20,
		LineHeight: 30,
		LineNum:    2,
		Color:      "red",
		Opacity:    0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 40.0, width)

	ops := s.Ops()
	assert.NotEqual(t, -1, indexOf(ops, "fillText abcd 0 100"))
	assert.NotEqual(t, -1, indexOf(ops, "fillText efg... 0 130"))
	assert.NotEqual(t, -1, indexOf(ops, "globalAlpha 0.5"))
	assert.Equal(t, -1, indexOf(ops, "fillText ij 0 160"), "超过 lineNum 的行不绘制")

	trace := e.Trace()
	require.Len(t, trace, 1)
	require.NotNil(t, trace[0].Text)
	assert.Equal(t, []string{"abcd", "efg..."}, trace[0].Text.Layout.Lines)
}

func TestPaintTextLineHeightFallsBackToFontSize(t *testing.T) {
	s := &recordingSurface{}
	e := newTestEngine(s, Options{ScreenWidth: 375})
	_, err := e.PaintText(context.Background(), layout.TextItem{
		Box:      layout.Box{X: 40, Y: 100, Width: 60},
		Text:     "abcdefgh",
		FontSize: 40,
		LineNum:  3,
		Color:    "red",
		Opacity:  1,
	})
	require.NoError(t, err)
	ops := s.Ops()
	assert.NotEqual(t, -1, indexOf(ops, "font normal normal 20px sans-serif"))
	// 屏幕宽 375 时每字符 10px = 20 设计单位，盒宽 60 每行 3 个字符
	assert.NotEqual(t, -1, indexOf(ops, "fillText abc 20 50"))
	assert.NotEqual(t, -1, indexOf(ops, "fillText def 20 70"))
	assert.NotEqual(t, -1, indexOf(ops, "fillText gh 20 90"))
}

func TestSetBackground(t *testing.T) {
	s := &recordingSurface{}
	e := newTestEngine(s, Options{ScreenWidth: 375})
	require.NoError(t, e.SetBackground(context.Background(), ""))
	assert.Empty(t, s.Ops())

	require.NoError(t, e.SetBackground(context.Background(), "#f5f5f5"))
	assert.Equal(t, []string{
		"save",
		"fillStyle #f5f5f5",
		"fillRect 0 0 375 667",
		"commit true",
		"restore",
	}, s.Ops())
}

func TestClearCommitsDestructively(t *testing.T) {
	s := &recordingSurface{}
	e := newTestEngine(s, Options{})
	require.NoError(t, e.PaintShape(context.Background(), layout.ShapeItem{Box: layout.Box{Width: 1, Height: 1}, FillStyle: "red"}))
	require.NotEmpty(t, e.Trace())

	require.NoError(t, e.Clear(context.Background()))
	ops := s.Ops()
	assert.Equal(t, []string{"clearRect 0 0 750 1334", "commit false"}, ops[len(ops)-2:])
	assert.Empty(t, e.Trace())
}

func TestComposeRunsItemsInOrder(t *testing.T) {
	s := &recordingSurface{}
	e := newTestEngine(s, Options{})
	err := e.Compose(context.Background(), "#fff", []layout.Item{
		layout.ShapeItem{Box: layout.Box{Width: 10, Height: 10}, FillStyle: "red"},
		layout.TextItem{Box: layout.Box{Width: 100}, Text: "hi", FontSize: 20, Color: "blue", Opacity: 1},
	})
	require.NoError(t, err)
	ops := s.Ops()
	bg := indexOf(ops, "fillStyle #fff")
	shape := indexOf(ops, "fillStyle red")
	text := indexOf(ops, "fillText hi 0 0")
	assert.True(t, bg < shape && shape < text)

	err = e.Compose(context.Background(), "", []layout.Item{videoItem{}})
	assert.ErrorIs(t, err, layout.ErrUnsupportedItemType)
}

func TestConcurrentPaintsDoNotInterleave(t *testing.T) {
	s := &recordingSurface{}
	e := newTestEngine(s, Options{})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.PaintShape(context.Background(), layout.ShapeItem{Box: layout.Box{Width: 5, Height: 5}, FillStyle: "red"}))
		}()
	}
	wg.Wait()

	depth := 0
	for _, op := range s.Ops() {
		switch op {
		case "save":
			depth++
			require.Equal(t, 1, depth, "save/restore 不应交错")
		case "restore":
			depth--
		}
	}
	assert.Equal(t, 0, depth)
}

func TestExportUsesSettleDelay(t *testing.T) {
	s := &recordingSurface{}
	e := newTestEngine(s, Options{SettleDelay: 30 * time.Millisecond, Quality: 0.8, FileType: "jpg"})
	start := time.Now()
	path, err := e.Export(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, "/tmp/posterCanvasId.jpg", path)
	require.Len(t, s.snapshots, 1)
	assert.Equal(t, 0.8, s.snapshots[0].Quality)
}

func TestExportPrefersFlush(t *testing.T) {
	s := &flushingSurface{}
	e := New(s, Options{SettleDelay: time.Hour, Debug: Bool(false)})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := e.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.flushes)
}

func TestExportPropagatesSnapshotError(t *testing.T) {
	s := &recordingSurface{snapshotErr: errors.New("canvas busy")}
	e := newTestEngine(s, Options{SettleDelay: time.Millisecond})
	_, err := e.Export(context.Background())
	assert.ErrorContains(t, err, "canvas busy")
}

func TestPreloadPopulatesCache(t *testing.T) {
	var calls atomic.Int32
	e := newTestEngine(&recordingSurface{}, Options{Fetcher: loader.FetcherFunc(func(ctx context.Context, url string) (string, error) {
		calls.Add(1)
		return "/tmp/" + url[len("https://"):], nil
	})})
	refs := []string{"https://a.example.com/1.png", "https://a.example.com/2.png", "wxfile://local.png"}
	require.NoError(t, e.Preload(context.Background(), refs))
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, e.Cache().Len())

	require.NoError(t, e.Preload(context.Background(), refs))
	assert.Equal(t, int32(2), calls.Load(), "已缓存的图片不再下载")
}

func TestWriteTrace(t *testing.T) {
	s := &recordingSurface{}
	e := newTestEngine(s, Options{})
	_, err := e.PaintText(context.Background(), layout.TextItem{Box: layout.Box{Width: 100}, Text: "hi", FontSize: 20, Color: "red", Opacity: 1})
	require.NoError(t, err)
	path := t.TempDir() + "/trace.json"
	require.NoError(t, e.WriteTrace(path))
	assert.FileExists(t, path)
}
