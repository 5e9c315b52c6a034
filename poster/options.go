package poster

import (
	"log/slog"
	"time"

	"github.com/ByLCY/freeposter/layout"
	"github.com/ByLCY/freeposter/loader"
)

const (
	DefaultCanvasID    = "posterCanvasId"
	DefaultWidth       = 750.0
	DefaultHeight      = 1334.0
	DefaultQuality     = 1.0
	DefaultSettleDelay = 50 * time.Millisecond
	DefaultFileType    = "png"
)

// Options 是海报引擎的配置，零值字段在 New 中合并默认值，之后不再变化。
type Options struct {
	CanvasID string
	Width    float64 // 设计单位
	Height   float64 // 设计单位
	Quality  float64 // 导出质量 0..1
	FileType string  // png / jpg

	// Debug 为 nil 时视为 true；显式传入 false 关闭日志。
	Debug *bool
	// ScreenWidth 是设备宽度（像素），决定设计单位与像素的换算比例。
	ScreenWidth float64
	// SettleDelay 是表面不支持 Flush 时，导出前等待绘制队列清空的时间。
	SettleDelay time.Duration

	MaxAttempts int           // 单个图片的下载次数，默认 3
	RetryDelay  time.Duration // 下载重试间隔
	DownloadDir string        // 默认下载器保存图片的目录

	OnSave     func(path string)
	OnSaveFail func(err error)

	Fetcher    loader.Fetcher // 为空时使用 HTTP 下载
	Album      AlbumSaver
	Authorizer Authorizer
	Logger     *slog.Logger
}

// Bool 返回 v 的指针，便于设置 Options.Debug。
func Bool(v bool) *bool { return &v }

func (o Options) withDefaults() Options {
	if o.CanvasID == "" {
		o.CanvasID = DefaultCanvasID
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = DefaultQuality
	}
	if o.FileType == "" {
		o.FileType = DefaultFileType
	}
	if o.Debug == nil {
		o.Debug = Bool(true)
	}
	if o.ScreenWidth <= 0 {
		o.ScreenWidth = layout.DesignWidth
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = loader.DefaultMaxAttempts
	}
	return o
}

func (o Options) logger() *slog.Logger {
	switch {
	case !*o.Debug:
		return newNopLogger()
	case o.Logger != nil:
		return o.Logger
	default:
		return slog.Default()
	}
}
