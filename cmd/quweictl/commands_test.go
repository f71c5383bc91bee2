package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quwei/internal/config"
	"quwei/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func missingConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "config.toml")
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		in      string
		page    int
		sub     int
		wantErr bool
	}{
		{"160", 160, 0, false},
		{"019", 19, 0, false},
		{"7", 7, 0, false},
		{"1601", 160, 1601, false},
		{"1610", 160, 1610, false},
		{"0000", 0, 0, true},
		{"12345", 0, 0, true},
		{"abc", 0, 0, true},
		{"-1", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			page, sub, err := parseCode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.sub, sub)
		})
	}
}

func TestLookup(t *testing.T) {
	out, err := execute(t, "--config", missingConfig(t), "lookup", "160")
	require.NoError(t, err)
	assert.Contains(t, out, "1601")
	assert.Contains(t, out, "啊")
	assert.Contains(t, out, "蔼")

	out, err = execute(t, "--config", missingConfig(t), "lookup", "1602")
	require.NoError(t, err)
	assert.Contains(t, out, "阿")
	assert.NotContains(t, out, "啊")
}

func TestCode(t *testing.T) {
	out, err := execute(t, "--config", missingConfig(t), "code", "啊x")
	require.NoError(t, err)
	assert.Contains(t, out, "1601")
	assert.Contains(t, out, "160 1")
	assert.Contains(t, out, "x")
}

func TestTable(t *testing.T) {
	out, err := execute(t, "--config", missingConfig(t), "table", "160", "161")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "160  啊阿埃挨哎唉哀皑癌蔼", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "161  矮"))

	_, err = execute(t, "--config", missingConfig(t), "table", "161", "160")
	assert.Error(t, err)
}

func TestTableSkipEmptyKeepsPopulatedPages(t *testing.T) {
	out, err := execute(t, "--config", missingConfig(t), "table", "--skip-empty", "160")
	require.NoError(t, err)
	assert.Equal(t, "160  啊阿埃挨哎唉哀皑癌蔼\n", out)
}

func TestHistoryDisabled(t *testing.T) {
	t.Setenv("QUWEI_DATA_DIR", t.TempDir())
	_, err := execute(t, "--config", missingConfig(t), "history")
	assert.ErrorIs(t, err, errHistoryDisabled)
}

func TestHistoryAndTop(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(dir, "history.db")
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, config.SaveConfig(cfg, cfgPath))

	s, err := store.Open(cfg.History.Path)
	require.NoError(t, err)
	code := 1601
	for i := 0; i < 3; i++ {
		_, err := s.InsertCommit(&store.Commit{SessionID: "a", Source: store.SourceCandidate, Code: &code, Text: "啊"})
		require.NoError(t, err)
	}
	_, err = s.InsertCommit(&store.Commit{SessionID: "a", Source: store.SourcePunctuation, Text: "，"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, err := execute(t, "--config", cfgPath, "history", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "punctuation")
	assert.Contains(t, out, "，")

	out, err = execute(t, "--config", cfgPath, "top")
	require.NoError(t, err)
	assert.Contains(t, out, "啊")
	assert.Contains(t, out, "3")
	assert.NotContains(t, out, "，")

	out, err = execute(t, "--config", cfgPath, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Commits:  4")
}

func TestConfigCommand(t *testing.T) {
	path := missingConfig(t)
	out, err := execute(t, "--config", path, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "[engine]")
	assert.Contains(t, out, `locale = "zh_CN"`)

	out, err = execute(t, "--config", path, "config", "--path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestPunctuationCommand(t *testing.T) {
	out, err := execute(t, "--config", missingConfig(t), "punctuation")
	require.NoError(t, err)
	assert.Contains(t, out, `locale = "zh_CN"`)
	assert.Contains(t, out, "，")
}
