// Package config 读取命令行使用的 TOML 配置文件。
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ByLCY/freeposter/loader"
	"github.com/ByLCY/freeposter/poster"
	canvasrenderer "github.com/ByLCY/freeposter/renderer/canvas"
)

// Config 是配置文件的全部内容，未出现的字段保留 Default 中的值。
type Config struct {
	Poster Poster `toml:"poster"`
	Loader Loader `toml:"loader"`
	Export Export `toml:"export"`
	Album  Album  `toml:"album"`

	// Fonts 把 font-family 名映射到字体文件，优先于内置字体，用于补齐中文等内置字体缺失的字形。
	// 相对路径以配置文件所在目录为准。
	Fonts map[string]string `toml:"fonts"`
}

type Poster struct {
	CanvasID    string  `toml:"canvas_id"`
	Width       float64 `toml:"width"`
	Height      float64 `toml:"height"`
	ScreenWidth float64 `toml:"screen_width"`
	Background  string  `toml:"background"`
	Debug       bool    `toml:"debug"`
}

type Loader struct {
	MaxAttempts int      `toml:"max_attempts"`
	RetryDelay  Duration `toml:"retry_delay"`
	Timeout     Duration `toml:"timeout"` // 单次 HTTP 请求超时
	Dir         string   `toml:"dir"`
	MaxBytes    int64    `toml:"max_bytes"`
}

type Export struct {
	FileType    string   `toml:"file_type"`
	Quality     float64  `toml:"quality"`
	SettleDelay Duration `toml:"settle_delay"`
	TempDir     string   `toml:"temp_dir"`
}

type Album struct {
	Dir string `toml:"dir"` // 为空时不保存到相册
}

// Duration 以 "50ms"、"2s" 这样的字符串出现在配置文件中。
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("无效的时长 %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default 返回与引擎默认值一致的配置。
func Default() Config {
	return Config{
		Poster: Poster{
			CanvasID:    poster.DefaultCanvasID,
			Width:       poster.DefaultWidth,
			Height:      poster.DefaultHeight,
			ScreenWidth: poster.DefaultWidth,
			Debug:       true,
		},
		Loader: Loader{
			MaxAttempts: loader.DefaultMaxAttempts,
			Timeout:     Duration(15 * time.Second),
			MaxBytes:    loader.DefaultMaxBytes,
		},
		Export: Export{
			FileType:    poster.DefaultFileType,
			Quality:     poster.DefaultQuality,
			SettleDelay: Duration(poster.DefaultSettleDelay),
		},
	}
}

// Load 读取 path 指向的配置文件；path 为空时返回默认配置。未知字段视为错误。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("解析配置 %s 失败: %w", path, err)
	}
	for family, file := range cfg.Fonts {
		if file != "" && !filepath.IsAbs(file) {
			cfg.Fonts[family] = filepath.Join(filepath.Dir(path), file)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("配置 %s 无效: %w", path, err)
	}
	return cfg, nil
}

// Validate 检查取值范围。
func (c Config) Validate() error {
	switch {
	case c.Poster.Width <= 0 || c.Poster.Height <= 0:
		return fmt.Errorf("海报尺寸必须为正数: %gx%g", c.Poster.Width, c.Poster.Height)
	case c.Poster.ScreenWidth <= 0:
		return fmt.Errorf("screen_width 必须为正数: %g", c.Poster.ScreenWidth)
	case c.Export.Quality <= 0 || c.Export.Quality > 1:
		return fmt.Errorf("quality 必须在 (0, 1] 之间: %g", c.Export.Quality)
	case c.Export.FileType != "png" && c.Export.FileType != "jpg":
		return fmt.Errorf("file_type 只支持 png 或 jpg: %s", c.Export.FileType)
	case c.Loader.MaxAttempts <= 0:
		return fmt.Errorf("max_attempts 必须大于 0: %d", c.Loader.MaxAttempts)
	}
	for family, file := range c.Fonts {
		if family == "" || file == "" {
			return fmt.Errorf("字体映射不完整: %q = %q", family, file)
		}
	}
	return nil
}

// SurfaceFonts 把 [fonts] 表转换为画布表面可注入的字体资源。
func (c Config) SurfaceFonts() map[string]canvasrenderer.Resource {
	if len(c.Fonts) == 0 {
		return nil
	}
	out := make(map[string]canvasrenderer.Resource, len(c.Fonts))
	for family, file := range c.Fonts {
		out[family] = canvasrenderer.Resource{Path: file}
	}
	return out
}

// PosterOptions 把配置转换为引擎配置，回调与协作者由调用方补充。
func (c Config) PosterOptions() poster.Options {
	return poster.Options{
		CanvasID:    c.Poster.CanvasID,
		Width:       c.Poster.Width,
		Height:      c.Poster.Height,
		Quality:     c.Export.Quality,
		FileType:    c.Export.FileType,
		Debug:       poster.Bool(c.Poster.Debug),
		ScreenWidth: c.Poster.ScreenWidth,
		SettleDelay: time.Duration(c.Export.SettleDelay),
		MaxAttempts: c.Loader.MaxAttempts,
		RetryDelay:  time.Duration(c.Loader.RetryDelay),
		DownloadDir: c.Loader.Dir,
	}
}
