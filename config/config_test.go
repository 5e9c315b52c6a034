package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "poster.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "posterCanvasId", cfg.Poster.CanvasID)
	assert.Equal(t, 1334.0, cfg.Poster.Height)
	assert.Equal(t, 3, cfg.Loader.MaxAttempts)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[poster]
height = 1000
screen_width = 375
debug = false

[loader]
retry_delay = "200ms"

[export]
file_type = "jpg"
quality = 0.8

[album]
dir = "/tmp/album"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 750.0, cfg.Poster.Width, "未出现的字段保留默认值")
	assert.Equal(t, 1000.0, cfg.Poster.Height)
	assert.False(t, cfg.Poster.Debug)
	assert.Equal(t, Duration(200*time.Millisecond), cfg.Loader.RetryDelay)
	assert.Equal(t, "/tmp/album", cfg.Album.Dir)

	opts := cfg.PosterOptions()
	assert.Equal(t, 375.0, opts.ScreenWidth)
	assert.Equal(t, "jpg", opts.FileType)
	assert.Equal(t, 0.8, opts.Quality)
	assert.Equal(t, 200*time.Millisecond, opts.RetryDelay)
	assert.Equal(t, 50*time.Millisecond, opts.SettleDelay)
	require.NotNil(t, opts.Debug)
	assert.False(t, *opts.Debug)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"unknown field":  "[poster]\ncolour = \"red\"\n",
		"bad duration":   "[loader]\nretry_delay = \"soon\"\n",
		"bad quality":    "[export]\nquality = 1.5\n",
		"bad file type":  "[export]\nfile_type = \"gif\"\n",
		"negative width": "[poster]\nwidth = -1\n",
		"zero attempts":  "[loader]\nmax_attempts = 0\n",
		"empty font":     "[fonts]\nBrand = \"\"\n",
	}
	for name, content := range cases {
		_, err := Load(writeConfig(t, content))
		assert.Error(t, err, name)
	}
}

func TestLoadResolvesFontPaths(t *testing.T) {
	path := writeConfig(t, `
[fonts]
"Noto Sans SC" = "fonts/NotoSansSC-Regular.otf"
Brand = "/usr/share/fonts/brand.ttf"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	want := filepath.Join(filepath.Dir(path), "fonts", "NotoSansSC-Regular.otf")
	assert.Equal(t, want, cfg.Fonts["Noto Sans SC"], "相对路径以配置文件目录为准")
	assert.Equal(t, "/usr/share/fonts/brand.ttf", cfg.Fonts["Brand"])

	res := cfg.SurfaceFonts()
	require.Len(t, res, 2)
	assert.Equal(t, want, res["Noto Sans SC"].Path)
	assert.Nil(t, Default().SurfaceFonts())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
