package loader

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
)

// DefaultMaxBytes 是单张图片的下载上限。
const DefaultMaxBytes = 20 << 20

// HTTPFetcher 通过 HTTP GET 下载图片，写入 Dir 并返回绝对路径。
// 文件名取 URL 的 sha1，扩展名由内容嗅探得到，非图片内容视为下载失败。
type HTTPFetcher struct {
	*http.Client // [Embedded] 为空时使用 http.DefaultClient
	Dir          string
	MaxBytes     int64
	Logger       *slog.Logger
}

var _ Fetcher = (*HTTPFetcher)(nil)

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "image/*")
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil && f.Logger != nil {
			f.Logger.Warn("关闭响应体失败", "url", url, "err", closeErr)
		}
	}()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP Status Code: %d", res.StatusCode)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return "", fmt.Errorf("读取图片 %s 失败: %w", url, err)
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("图片 %s 超过 %d 字节上限", url, limit)
	}
	if !filetype.IsImage(data) {
		return "", fmt.Errorf("%s 返回的内容不是图片", url)
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return "", fmt.Errorf("识别图片 %s 类型失败: %w", url, err)
	}

	dir := f.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("创建缓存目录失败: %w", err)
	}
	sum := sha1.Sum([]byte(url))
	path := filepath.Join(dir, hex.EncodeToString(sum[:])+"."+kind.Extension)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入图片 %s 失败: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}
