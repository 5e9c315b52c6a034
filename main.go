package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/ByLCY/freeposter/binding"
	"github.com/ByLCY/freeposter/config"
	"github.com/ByLCY/freeposter/dsl"
	"github.com/ByLCY/freeposter/layout"
	"github.com/ByLCY/freeposter/loader"
	"github.com/ByLCY/freeposter/poster"
	canvasrenderer "github.com/ByLCY/freeposter/renderer/canvas"
)

func main() {
	input := flag.String("in", "examples/share.poster", "绘制项文件路径（.json / .yaml / .poster）")
	configPath := flag.String("config", "", "TOML 配置文件路径")
	output := flag.String("out", "output/poster.png", "海报输出路径")
	albumDir := flag.String("album", "", "保存到相册的目录，覆盖配置文件")
	debug := flag.String("debug", "", "绘制轨迹调试 JSON 输出路径")
	data := flag.String("data", "", "绑定到绘制项的 JSON/YAML 数据，以 @ 开头时读取文件")
	screen := flag.Float64("screen", 0, "设备屏幕宽度（像素），覆盖配置文件")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *screen > 0 {
		cfg.Poster.ScreenWidth = *screen
	}
	if *albumDir != "" {
		cfg.Album.Dir = *albumDir
	}

	var inputData any
	if *data != "" {
		raw := []byte(*data)
		if name, ok := strings.CutPrefix(*data, "@"); ok {
			if raw, err = os.ReadFile(name); err != nil {
				log.Fatalf("读取 data 文件失败: %v", err)
			}
		}
		if inputData, err = binding.Decode(raw); err != nil {
			log.Fatalf("解析 data 失败: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, runOptions{
		input:  *input,
		output: *output,
		debug:  *debug,
		data:   inputData,
		config: cfg,
	}); err != nil {
		stop()
		log.Fatalf("生成海报失败: %v", err)
	}
	fmt.Printf("已生成海报：%s\n", *output)
}

type runOptions struct {
	input, output, debug string
	data                 any
	config               config.Config
}

// posterSource 是一份待绘制的海报：背景色、需要提前下载的图片与绘制项。
type posterSource struct {
	background  string
	preload     []string
	descriptors []layout.Descriptor
}

// run 串联读取、数据绑定、下载、绘制与导出。
func run(ctx context.Context, opts runOptions) error {
	cfg := opts.config
	src, err := readSource(opts.input)
	if err != nil {
		return err
	}
	if src.background == "" {
		src.background = cfg.Poster.Background
	}

	src.background = binding.Interpolate(src.background, opts.data)
	for i := range src.preload {
		src.preload[i] = binding.Interpolate(src.preload[i], opts.data)
	}
	items := make([]layout.Item, 0, len(src.descriptors))
	for i := range src.descriptors {
		binding.BindDescriptor(&src.descriptors[i], opts.data)
		item, err := src.descriptors[i].Item()
		if err != nil {
			return fmt.Errorf("第 %d 个绘制项无效: %w", i, err)
		}
		items = append(items, item)
	}

	logger := newLogger(cfg.Poster.Debug)
	conv := layout.NewConverter(cfg.Poster.ScreenWidth)
	surface := canvasrenderer.NewSurface(
		int(conv.ToPx(cfg.Poster.Width)), int(conv.ToPx(cfg.Poster.Height)),
		canvasrenderer.Options{
			BaseDir: filepath.Dir(opts.input),
			TempDir: cfg.Export.TempDir,
			Fonts:   cfg.SurfaceFonts(),
			Logger:  logger,
		})

	popts := cfg.PosterOptions()
	popts.Logger = logger
	popts.Fetcher = &loader.HTTPFetcher{
		Client:   &http.Client{Timeout: time.Duration(cfg.Loader.Timeout)},
		Dir:      cfg.Loader.Dir,
		MaxBytes: cfg.Loader.MaxBytes,
		Logger:   logger,
	}
	if cfg.Album.Dir != "" {
		popts.Album = poster.DirAlbum{Dir: cfg.Album.Dir}
		popts.OnSave = func(path string) { logger.Info("已保存到相册", "path", path) }
		popts.OnSaveFail = func(err error) { logger.Warn("保存到相册失败", "err", err) }
	}
	engine := poster.New(surface, popts)

	if len(src.preload) > 0 {
		if err := engine.Preload(ctx, src.preload); err != nil {
			return err
		}
	}
	if err := engine.Compose(ctx, src.background, items); err != nil {
		return fmt.Errorf("绘制海报失败: %w", err)
	}

	if opts.debug != "" {
		if err := os.MkdirAll(filepath.Dir(opts.debug), 0o755); err != nil {
			return fmt.Errorf("创建调试目录失败: %w", err)
		}
		if err := engine.WriteTrace(opts.debug); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}

	var tmp string
	if cfg.Album.Dir != "" {
		tmp, err = engine.SaveToAlbum(ctx)
	} else {
		tmp, err = engine.Export(ctx)
	}
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	return copyFile(tmp, opts.output)
}

// readSource 按扩展名读取绘制项文件。
func readSource(path string) (posterSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return posterSource{}, fmt.Errorf("无法打开绘制项文件 %s: %w", path, err)
	}
	var src posterSource
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		src.descriptors, err = layout.DecodeDescriptors(raw)
	case ".yaml", ".yml":
		src.descriptors, err = layout.DecodeDescriptorsYAML(raw)
	default:
		var doc *dsl.Document
		if doc, err = dsl.ParseString(string(raw)); err != nil {
			return src, fmt.Errorf("解析海报脚本失败: %w", err)
		}
		src.background = doc.Background()
		src.preload = doc.Preload()
		src.descriptors, err = doc.Descriptors()
	}
	return src, err
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("读取导出文件失败: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("写入海报文件失败: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("写入海报文件失败: %w", err)
	}
	return out.Close()
}
