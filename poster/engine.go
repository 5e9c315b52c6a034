// Package poster 把声明式的绘制项依次绘制到宿主表面上，并导出为图片文件。
//
// 引擎持有配置与图片缓存；每个绘制项都遵循 save → clip → paint → commit(保留) → restore 的流程，
// 同一引擎上的绘制调用会被串行化。
package poster

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ByLCY/freeposter/layout"
	"github.com/ByLCY/freeposter/loader"
	"github.com/ByLCY/freeposter/renderer"
)

// Engine 是海报合成引擎。
type Engine struct {
	surface renderer.Surface
	opts    Options
	conv    layout.Converter
	cache   *loader.Cache
	log     *slog.Logger

	// paintMu 串行化对表面的 save/clip/restore 状态栈的访问
	paintMu sync.Mutex

	traceMu sync.Mutex
	trace   []TraceEntry
}

// New 使用表面与配置创建引擎，未设置的配置项取默认值。
func New(surface renderer.Surface, opts Options) *Engine {
	opts = opts.withDefaults()
	logger := opts.logger()
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = &loader.HTTPFetcher{Dir: opts.DownloadDir, Logger: logger}
	}
	return &Engine{
		surface: surface,
		opts:    opts,
		conv:    layout.NewConverter(opts.ScreenWidth),
		cache: loader.New(fetcher, loader.Options{
			MaxAttempts: opts.MaxAttempts,
			RetryDelay:  opts.RetryDelay,
			Logger:      logger,
		}),
		log: logger,
	}
}

// Options 返回合并默认值后的配置。
func (e *Engine) Options() Options { return e.opts }

// Converter 返回引擎使用的单位换算器。
func (e *Engine) Converter() layout.Converter { return e.conv }

// Cache 返回引擎独占的图片缓存。
func (e *Engine) Cache() *loader.Cache { return e.cache }

// Exec 按绘制项类型分派到对应的绘制方法。文本项返回渲染宽度（设计单位），其余返回 0。
func (e *Engine) Exec(ctx context.Context, item layout.Item) (float64, error) {
	switch it := deref(item).(type) {
	case layout.ImageItem:
		return 0, e.PaintImage(ctx, it)
	case layout.ShapeItem:
		return 0, e.PaintShape(ctx, it)
	case layout.TextItem:
		return e.PaintText(ctx, it)
	case nil:
		return 0, &layout.UnsupportedItemTypeError{Type: "<nil>"}
	default:
		return 0, &layout.UnsupportedItemTypeError{Type: string(item.Kind())}
	}
}

// deref 把指向绘制项的指针还原为值，空指针视为 nil。
func deref(item layout.Item) layout.Item {
	switch p := item.(type) {
	case *layout.ImageItem:
		if p == nil {
			return nil
		}
		return *p
	case *layout.ShapeItem:
		if p == nil {
			return nil
		}
		return *p
	case *layout.TextItem:
		if p == nil {
			return nil
		}
		return *p
	}
	return item
}

// ExecDescriptor 解码线上格式的绘制项后执行，未知类型返回 layout.ErrUnsupportedItemType。
func (e *Engine) ExecDescriptor(ctx context.Context, d layout.Descriptor) (float64, error) {
	item, err := d.Item()
	if err != nil {
		e.log.Error("绘制项无效", "type", d.Type, "err", err)
		return 0, err
	}
	return e.Exec(ctx, item)
}

// Compose 先设置背景色，再按顺序绘制全部绘制项，遇到错误立即返回。
func (e *Engine) Compose(ctx context.Context, background string, items []layout.Item) error {
	defer e.timed("绘制海报用时")()
	if err := e.SetBackground(ctx, background); err != nil {
		return err
	}
	for i, item := range items {
		if _, err := e.Exec(ctx, item); err != nil {
			return fmt.Errorf("绘制第 %d 个绘制项失败: %w", i, err)
		}
	}
	return nil
}

// SetBackground 用纯色填满整个画布；color 为空时什么也不做。
func (e *Engine) SetBackground(ctx context.Context, color string) error {
	if color == "" {
		return nil
	}
	defer e.timed("渲染背景色")()
	e.log.Debug("设置canvas的背景色", "color", color)

	e.paintMu.Lock()
	defer e.paintMu.Unlock()
	s := e.surface
	s.Save()
	defer s.Restore()
	s.SetFillStyle(color)
	s.FillRect(0, 0, e.conv.ToPx(e.opts.Width), e.conv.ToPx(e.opts.Height))
	return s.Commit(ctx, true)
}

// Clear 清空整个画布，并以不保留旧内容的方式提交。
func (e *Engine) Clear(ctx context.Context) error {
	e.paintMu.Lock()
	defer e.paintMu.Unlock()
	e.surface.ClearRect(0, 0, e.conv.ToPx(e.opts.Width), e.conv.ToPx(e.opts.Height))
	e.resetTrace()
	return e.surface.Commit(ctx, false)
}

// Preload 提前下载尚未缓存的图片，任一失败即返回错误。
func (e *Engine) Preload(ctx context.Context, refs []string) error {
	e.log.Debug("开始提前下载图片", "count", len(refs))
	defer e.timed("提前下载图片用时")()
	return e.cache.Preload(ctx, refs)
}

// Export 等待表面绘制完成后导出为临时文件，返回文件路径。
//
// 表面实现了 renderer.Flusher 时以 Flush 作为完成信号，否则等待 SettleDelay。
// 等待只是经验值，不能保证宿主的绘制队列已经清空。
func (e *Engine) Export(ctx context.Context) (string, error) {
	if err := e.settle(ctx); err != nil {
		return "", fmt.Errorf("等待画布绘制完成失败: %w", err)
	}
	e.log.Debug("开始截取canvas图片")
	defer e.timed("截取canvas图片时间")()

	e.paintMu.Lock()
	defer e.paintMu.Unlock()
	path, err := e.surface.Snapshot(ctx, renderer.SnapshotOptions{
		CanvasID: e.opts.CanvasID,
		Quality:  e.opts.Quality,
		FileType: e.opts.FileType,
	})
	if err != nil {
		e.log.Debug("截取canvas目前的图像失败", "err", err)
		return "", fmt.Errorf("导出画布失败: %w", err)
	}
	e.log.Debug("截取canvas图片成功", "path", path)
	return path, nil
}

func (e *Engine) settle(ctx context.Context) error {
	if f, ok := e.surface.(renderer.Flusher); ok {
		return f.Flush(ctx)
	}
	t := time.NewTimer(e.opts.SettleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
