// Package loader 把远程或本地图片引用解析为可直接绘制的本地路径，带有限次重试与按实例的缓存。
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxAttempts 是单个引用的总下载次数（首次 + 2 次重试）。
const DefaultMaxAttempts = 3

// 本地资源前缀，带这些前缀的引用直接透传，不进入缓存。
var localPrefixes = []string{"wxfile://", "file://", "built-in:", "builtin:"}

// ErrDownloadFailure 表示引用在用尽全部尝试后仍未下载成功。
var ErrDownloadFailure = errors.New("图片下载失败")

// DownloadError 记录失败的引用、尝试次数与最后一次的原因。
// Attempts 为 0 表示调用方在共享下载完成前就放弃了等待。
type DownloadError struct {
	Ref      string
	Attempts int
	Err      error
}

func (e *DownloadError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("等待图片下载被中断 %s: %v", e.Ref, e.Err)
	}
	return fmt.Sprintf("%d 次尝试图片仍下载失败 %s: %v", e.Attempts, e.Ref, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

func (e *DownloadError) Is(target error) bool { return target == ErrDownloadFailure }

// Fetcher 是宿主的网络下载能力：按 URL 下载并返回本地资源路径。
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc 让普通函数满足 Fetcher。
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) { return f(ctx, url) }

// Options 配置缓存的重试策略与日志。
type Options struct {
	MaxAttempts int           // <=0 时使用 DefaultMaxAttempts
	RetryDelay  time.Duration // 两次尝试之间的等待，默认不等待
	Logger      *slog.Logger
}

// Cache 是单个引擎实例独占的图片缓存，不同实例之间互不共享。
type Cache struct {
	fetcher Fetcher
	opts    Options
	log     *slog.Logger

	mu      sync.RWMutex
	entries map[string]string // ref -> 本地路径
	flight  singleflight.Group
}

// New 创建一个使用 f 下载的缓存。
func New(f Fetcher, opts Options) *Cache {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		fetcher: f,
		opts:    opts,
		log:     logger,
		entries: map[string]string{},
	}
}

// IsLocal 判断引用是否已经是本地资源：带本地前缀、绝对路径，或不含 URL scheme。
func IsLocal(ref string) bool {
	for _, p := range localPrefixes {
		if strings.HasPrefix(ref, p) {
			return true
		}
	}
	if filepath.IsAbs(ref) {
		return true
	}
	return !strings.Contains(ref, "://")
}

// Lookup 返回已缓存的本地路径。
func (c *Cache) Lookup(ref string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[ref]
	return p, ok
}

// Len 返回缓存条目数。
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Resolve 返回 ref 对应的本地路径。
//
// 本地引用原样返回；已缓存的直接命中；否则下载，失败后最多再重试 MaxAttempts-1 次。
// 同一 ref 的并发调用只会触发一次下载。全部失败时返回 *DownloadError，且缓存中不留该 ref。
//
// 共享的下载不随任何一个调用方取消；ctx 结束时只有该调用方提前返回，下载继续为其他等待者进行。
func (c *Cache) Resolve(ctx context.Context, ref string) (string, error) {
	if IsLocal(ref) {
		return ref, nil
	}
	if p, ok := c.Lookup(ref); ok {
		return p, nil
	}
	ch := c.flight.DoChan(ref, func() (any, error) {
		// 等待期间可能已经有人下载完成
		if p, ok := c.Lookup(ref); ok {
			return p, nil
		}
		return c.download(context.WithoutCancel(ctx), ref)
	})
	select {
	case <-ctx.Done():
		return "", &DownloadError{Ref: ref, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Cache) download(ctx context.Context, ref string) (string, error) {
	if c.fetcher == nil {
		return "", &DownloadError{Ref: ref, Err: errors.New("未配置下载器")}
	}
	start := time.Now()
	var (
		lastErr  error
		attempts int
	)
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			c.log.Debug("图片下载失败, 开始重试", "ref", ref, "retry", attempt-1, "err", lastErr)
			if err := sleep(ctx, c.opts.RetryDelay); err != nil {
				lastErr = err
				break
			}
		}
		attempts = attempt
		path, err := c.fetcher.Fetch(ctx, ref)
		if err == nil {
			c.mu.Lock()
			c.entries[ref] = path
			c.mu.Unlock()
			c.log.Debug("下载图片完成", "ref", ref, "path", path, "attempts", attempt, "elapsed", time.Since(start))
			return path, nil
		}
		lastErr = err
	}
	c.mu.Lock()
	delete(c.entries, ref)
	c.mu.Unlock()
	c.log.Debug("多次尝试图片仍下载失败, 放弃", "ref", ref, "err", lastErr)
	return "", &DownloadError{Ref: ref, Attempts: attempts, Err: lastErr}
}

// Preload 并发解析尚未缓存的引用。任一失败即返回错误，已成功的条目保留在缓存中。
func (c *Cache) Preload(ctx context.Context, refs []string) error {
	start := time.Now()
	seen := make(map[string]struct{}, len(refs))
	var g errgroup.Group
	for _, ref := range refs {
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		if _, ok := c.Lookup(ref); ok {
			continue
		}
		g.Go(func() error {
			_, err := c.Resolve(ctx, ref)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("提前下载图片失败: %w", err)
	}
	c.log.Debug("提前下载图片完成", "count", len(seen), "elapsed", time.Since(start))
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
