package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DrawImage 把 src 缩放绘制到目标矩形。图片无法读取或解码时与浏览器画布一样跳过，只记录日志。
func (s *Surface) DrawImage(src string, x, y, width, height float64) {
	img, err := s.loadImage(src)
	if err != nil {
		s.log.Warn("图片无法绘制，跳过", "src", src, "err", err)
		return
	}
	dr := image.Rect(
		int(math.Round(x)), int(math.Round(y)),
		int(math.Round(x+width)), int(math.Round(y+height)),
	).Canon()
	if dr.Empty() {
		return
	}
	mask := opacityMask(s.state.clip, s.state.alpha)
	s.pending = append(s.pending, func(dst *image.RGBA) error {
		xdraw.CatmullRom.Scale(dst, dr, img, img.Bounds(), xdraw.Over, &xdraw.Options{DstMask: mask})
		return nil
	})
}

// loadImage 解析本地资源引用并解码，结果按引用缓存。
func (s *Surface) loadImage(ref string) (image.Image, error) {
	s.imageMu.Lock()
	defer s.imageMu.Unlock()
	if img, ok := s.images[ref]; ok {
		return img, nil
	}
	data, err := s.readImage(ref)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", ref, err)
	}
	s.images[ref] = img
	return img, nil
}

func (s *Surface) readImage(ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "built-in:") || strings.HasPrefix(ref, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(ref, "built-in:"), "builtin:")
		res, ok := s.opts.Images[name]
		if !ok {
			return nil, fmt.Errorf("找不到内置图片资源 built-in:%s", name)
		}
		if len(res.Bytes) > 0 {
			return res.Bytes, nil
		}
		return s.readPath(res.Path)
	}
	return s.readPath(localPath(ref, s.opts.BaseDir))
}

func (s *Surface) readPath(path string) ([]byte, error) {
	if s.opts.BaseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许使用相对路径：%s", path)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.opts.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", path, err)
	}
	return data, nil
}

// localPath 去掉 file:// 前缀，wxfile:// 资源映射到 baseDir 下的同名路径。
func localPath(ref, baseDir string) string {
	switch {
	case strings.HasPrefix(ref, "file://"):
		return strings.TrimPrefix(ref, "file://")
	case strings.HasPrefix(ref, "wxfile://"):
		return filepath.Join(baseDir, strings.TrimPrefix(ref, "wxfile://"))
	default:
		return ref
	}
}
