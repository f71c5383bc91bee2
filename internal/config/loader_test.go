package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestLoaderLoadValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[logging]\nlevel = \"loud\"\n")

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoaderReloadKeepsConfigOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[engine]\nkeep_page_on_empty_select = true\n")

	l := NewLoader(path)
	defer l.Close()

	cfg, err := l.Load()
	require.NoError(t, err)
	require.True(t, cfg.Engine.KeepPageOnEmptySelect)

	var calls int32
	l.OnChange(func(*Config) { atomic.AddInt32(&calls, 1) })

	writeFile(t, path, "[engine\n")
	l.reload()

	assert.Same(t, cfg, l.Config())
	assert.Zero(t, atomic.LoadInt32(&calls))
	select {
	case err := <-l.Errors():
		assert.Contains(t, err.Error(), "reload config")
	default:
		t.Fatal("expected a reload error")
	}

	writeFile(t, path, "[engine]\nkeep_page_on_empty_select = false\n")
	l.reload()

	assert.False(t, l.Config().Engine.KeepPageOnEmptySelect)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestLoaderWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[punctuation]\nenabled = true\n")

	l := NewLoader(path)
	defer l.Close()
	_, err := l.Load()
	require.NoError(t, err)

	changed := make(chan *Config, 1)
	l.OnChange(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})
	require.NoError(t, l.Watch())

	writeFile(t, path, "[punctuation]\nenabled = false\n")

	select {
	case c := <-changed:
		assert.False(t, c.Punctuation.Enabled)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "zh_CN", cfg.Engine.Locale)
	assert.FileExists(t, path)

	_, created, err = LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLoaderReloadSkipsUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[punctuation]\nenabled = true\n")

	l := NewLoader(path)
	defer l.Close()
	cfg, err := l.Load()
	require.NoError(t, err)

	var calls int32
	l.OnChange(func(*Config) { atomic.AddInt32(&calls, 1) })

	writeFile(t, path, "# saved again\n[punctuation]\nenabled = true\n")
	l.reload()
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Same(t, cfg, l.Config())

	writeFile(t, path, "[punctuation]\nenabled = false\n")
	l.reload()
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestLoaderLoadOrCreateSetsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	l := NewLoader(path)
	defer l.Close()

	assert.Nil(t, l.Config())
	cfg, created, err := l.LoadOrCreate()
	require.NoError(t, err)
	assert.True(t, created)
	assert.Same(t, cfg, l.Config())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "locale: zh_CN")
}

func TestLoaderCloseTwice(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, l.Watch())
	require.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}
