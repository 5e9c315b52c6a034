package poster

import (
	"context"
	"log/slog"
	"time"
)

// nopHandler 丢弃所有日志，Enabled 返回 false 使调用方跳过格式化。
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// timed 记录一段操作的耗时，用法：defer e.timed("绘制图片时间")()。
func (e *Engine) timed(label string) func() {
	if !e.log.Enabled(context.Background(), slog.LevelDebug) {
		return func() {}
	}
	start := time.Now()
	return func() {
		e.log.Debug(label, "elapsed", time.Since(start))
	}
}
