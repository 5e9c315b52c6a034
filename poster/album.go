package poster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	// ErrPermissionDenied 表示没有写入相册的权限。
	ErrPermissionDenied = errors.New("没有保存到相册的权限")
	// ErrSaveCancelled 表示用户取消了保存。
	ErrSaveCancelled = errors.New("用户取消保存")
	// ErrNoAlbum 表示未配置相册。
	ErrNoAlbum = errors.New("未配置相册")
)

// AlbumSaver 把导出的图片文件保存到相册。
// 失败时返回 ErrPermissionDenied、ErrSaveCancelled 或其他错误。
type AlbumSaver interface {
	Save(ctx context.Context, path string) error
}

// Authorizer 在保存失败（取消除外）后请求重新授权，具体交互由宿主实现。
type Authorizer interface {
	RequestAuthorization(ctx context.Context) error
}

// SaveToAlbum 导出画布并保存到相册，成功时回调 OnSave 并返回文件路径。
//
// 保存失败且不是用户取消时会请求重新授权；任何失败都会回调 OnSaveFail。
func (e *Engine) SaveToAlbum(ctx context.Context) (string, error) {
	e.log.Debug("开始保存到相册")
	path, err := e.Export(ctx)
	if err != nil {
		e.saveFailed(err)
		return "", err
	}
	if e.opts.Album == nil {
		e.saveFailed(ErrNoAlbum)
		return "", ErrNoAlbum
	}
	if err := e.opts.Album.Save(ctx, path); err != nil {
		if !errors.Is(err, ErrSaveCancelled) && e.opts.Authorizer != nil {
			if authErr := e.opts.Authorizer.RequestAuthorization(ctx); authErr != nil {
				e.log.Warn("请求相册授权失败", "err", authErr)
			}
		}
		err = fmt.Errorf("保存到相册失败: %w", err)
		e.saveFailed(err)
		return "", err
	}
	e.log.Debug("保存到相册成功", "path", path)
	if e.opts.OnSave != nil {
		e.opts.OnSave(path)
	}
	return path, nil
}

func (e *Engine) saveFailed(err error) {
	e.log.Debug("保存到相册失败", "err", err)
	if e.opts.OnSaveFail != nil {
		e.opts.OnSaveFail(err)
	}
}

// DirAlbum 把图片复制到本地目录，作为命令行下的"相册"。
type DirAlbum struct {
	Dir string
}

var _ AlbumSaver = DirAlbum{}

func (a DirAlbum) Save(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return ErrSaveCancelled
	}
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return albumError(err)
	}
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("读取导出文件失败: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(a.Dir, filepath.Base(path)))
	if err != nil {
		return albumError(err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("写入相册失败: %w", err)
	}
	return dst.Close()
}

func albumError(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return err
}
