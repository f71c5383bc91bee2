// Package quickphrase implements the trigger-key phrase mode: after the
// trigger is typed, the user spells a short key and picks one of the phrases
// registered under keys starting with it.
package quickphrase

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/derekparker/trie"
)

// Phrase is one expansion.
type Phrase struct {
	Key  string
	Text string
}

// Index is a prefix index over phrases. It is not safe for concurrent
// mutation; the Manager swaps whole indexes.
type Index struct {
	t *trie.Trie
	n int
}

// NewIndex builds an index. Duplicate keys keep every phrase in insertion
// order; duplicate key/text pairs are dropped.
func NewIndex(phrases []Phrase) *Index {
	idx := &Index{t: trie.New()}
	for _, p := range phrases {
		idx.add(p)
	}
	return idx
}

func (idx *Index) add(p Phrase) {
	if p.Key == "" || p.Text == "" {
		return
	}
	var texts []string
	if node, ok := idx.t.Find(p.Key); ok {
		texts = node.Meta().([]string)
		for _, t := range texts {
			if t == p.Text {
				return
			}
		}
	}
	idx.t.Add(p.Key, append(texts, p.Text))
	idx.n++
}

// Len returns the number of phrases.
func (idx *Index) Len() int {
	return idx.n
}

// Lookup returns the phrases registered under exactly key.
func (idx *Index) Lookup(key string) []string {
	node, ok := idx.t.Find(key)
	if !ok {
		return nil
	}
	return append([]string(nil), node.Meta().([]string)...)
}

// Search returns up to limit phrases whose key starts with prefix, in key
// order. An exact match sorts first since it is a prefix of the others.
func (idx *Index) Search(prefix string, limit int) []Phrase {
	if prefix == "" || limit <= 0 {
		return nil
	}

	keys := idx.t.PrefixSearch(prefix)
	sort.Strings(keys)

	var out []Phrase
	for _, k := range keys {
		for _, text := range idx.Lookup(k) {
			out = append(out, Phrase{Key: k, Text: text})
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

// Parse reads a phrase file: one "key phrase" pair per line, the phrase
// being everything after the first run of whitespace. Blank lines and lines
// starting with '#' are ignored.
func Parse(r io.Reader) ([]Phrase, error) {
	var phrases []Phrase
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		s := strings.TrimSpace(scanner.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}

		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			return nil, fmt.Errorf("line %d: missing phrase for key %q", line, s)
		}
		key := s[:i]
		text := strings.TrimSpace(s[i:])
		phrases = append(phrases, Phrase{Key: key, Text: unescape(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read phrases: %w", err)
	}
	return phrases, nil
}

// unescape expands \n and \\ so multi-line phrases fit on one line.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return strings.NewReplacer(`\n`, "\n", `\\`, `\`).Replace(s)
}

// LoadFile parses a phrase file.
func LoadFile(path string) ([]Phrase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	phrases, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return phrases, nil
}

// DefaultPhrases returns the built-in symbol phrases.
func DefaultPhrases() []Phrase {
	return []Phrase{
		{"alpha", "α"},
		{"beta", "β"},
		{"gamma", "γ"},
		{"delta", "δ"},
		{"pi", "π"},
		{"deg", "°"},
		{"pm", "±"},
		{"times", "×"},
		{"div", "÷"},
		{"ne", "≠"},
		{"le", "≤"},
		{"ge", "≥"},
		{"inf", "∞"},
		{"arrow", "→"},
		{"larrow", "←"},
		{"copy", "©"},
		{"tm", "™"},
		{"yuan", "元"},
		{"yuan", "￥"},
	}
}
