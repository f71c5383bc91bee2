package quickphrase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := `# symbols
alpha α

pi    π
sig   Best regards,\nQuwei
path  C:\\tmp
`
	got, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	want := []Phrase{
		{"alpha", "α"},
		{"pi", "π"},
		{"sig", "Best regards,\nQuwei"},
		{"path", `C:\tmp`},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMissingPhrase(t *testing.T) {
	_, err := Parse(strings.NewReader("ok 好\nlonely\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quickphrase.txt")
	require.NoError(t, os.WriteFile(path, []byte("tel 电话\n"), 0600))

	phrases, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []Phrase{{"tel", "电话"}}, phrases)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestIndexSearch(t *testing.T) {
	idx := NewIndex(DefaultPhrases())

	tests := []struct {
		prefix string
		limit  int
		want   []string
	}{
		{"de", 10, []string{"°", "δ"}},
		{"d", 10, []string{"°", "δ", "÷"}},
		{"d", 2, []string{"°", "δ"}},
		{"yuan", 10, []string{"元", "￥"}},
		{"ge", 10, []string{"≥"}},
		{"zzz", 10, nil},
		{"", 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			var got []string
			for _, p := range idx.Search(tt.prefix, tt.limit) {
				got = append(got, p.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndexDuplicates(t *testing.T) {
	idx := NewIndex([]Phrase{
		{"a", "1"},
		{"a", "2"},
		{"a", "1"},
		{"", "x"},
		{"b", ""},
	})
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"1", "2"}, idx.Lookup("a"))
	assert.Nil(t, idx.Lookup("b"))
}

func TestIndexExactKeyFirst(t *testing.T) {
	idx := NewIndex([]Phrase{{"arrow", "→"}, {"ar", "阿"}, {"arc", "⌒"}})

	got := idx.Search("ar", 10)
	require.Len(t, got, 3)
	assert.Equal(t, "ar", got[0].Key)
	assert.Equal(t, "arc", got[1].Key)
}
