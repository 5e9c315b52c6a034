package canvasrenderer

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/ByLCY/freeposter/renderer"
)

// Snapshot 把已提交的画布编码为 png 或 jpg 临时文件，返回文件路径。
func (s *Surface) Snapshot(ctx context.Context, opts renderer.SnapshotOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fileType := strings.ToLower(opts.FileType)
	switch fileType {
	case "", "png":
		fileType = "png"
	case "jpg", "jpeg":
		fileType = "jpg"
	default:
		return "", fmt.Errorf("不支持的导出格式 %s", opts.FileType)
	}
	prefix := opts.CanvasID
	if prefix == "" {
		prefix = "poster"
	}
	f, err := os.CreateTemp(s.opts.TempDir, prefix+"-*."+fileType)
	if err != nil {
		return "", fmt.Errorf("创建导出文件失败: %w", err)
	}

	s.mu.Lock()
	if fileType == "png" {
		err = png.Encode(f, s.raster)
	} else {
		err = jpeg.Encode(f, s.raster, &jpeg.Options{Quality: jpegQuality(opts.Quality)})
	}
	s.mu.Unlock()

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("编码 %s 失败: %w", fileType, err)
	}
	s.log.Debug("snapshot", "path", f.Name(), "type", fileType)
	return f.Name(), nil
}

func jpegQuality(q float64) int {
	if q <= 0 || q > 1 {
		q = 1
	}
	v := int(q * 100)
	if v < 1 {
		v = 1
	}
	return v
}
