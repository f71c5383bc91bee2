// Package punctuation maps ASCII punctuation typed while no code is pending
// to full-width marks.
//
// A table entry holds one or more values. Entries with several values
// alternate per input context, which is how opening and closing quotes are
// produced from one key. An entry with a Pair can instead emit both marks at
// once with the caret placed between them.
package punctuation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidTable is returned when a table file fails validation.
var ErrInvalidTable = errors.New("punctuation: invalid table")

//go:embed table.schema.json
var tableSchema []byte

const schemaURL = "table.schema.json"

// Entry maps one key to its full-width values.
type Entry struct {
	Key    rune
	Values []string
	Pair   string
}

// Table is the punctuation map for one locale.
type Table struct {
	Locale  string
	entries map[rune]Entry
}

// NewTable builds a table. Later entries for the same key replace earlier ones.
func NewTable(locale string, entries []Entry) *Table {
	t := &Table{Locale: locale, entries: make(map[rune]Entry, len(entries))}
	for _, e := range entries {
		if len(e.Values) == 0 {
			continue
		}
		t.entries[e.Key] = e
	}
	return t
}

// Lookup returns the entry for key.
func (t *Table) Lookup(key rune) (Entry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

// Entries returns all entries ordered by key.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// DefaultTable returns the built-in zh_CN table.
func DefaultTable() *Table {
	return NewTable("zh_CN", []Entry{
		{Key: '!', Values: []string{"！"}},
		{Key: '"', Values: []string{"“", "”"}, Pair: "”"},
		{Key: '$', Values: []string{"￥"}},
		{Key: '\'', Values: []string{"‘", "’"}, Pair: "’"},
		{Key: '(', Values: []string{"（"}, Pair: "）"},
		{Key: ')', Values: []string{"）"}},
		{Key: ',', Values: []string{"，"}},
		{Key: '.', Values: []string{"。"}},
		{Key: ':', Values: []string{"："}},
		{Key: ';', Values: []string{"；"}},
		{Key: '<', Values: []string{"《"}, Pair: "》"},
		{Key: '>', Values: []string{"》"}},
		{Key: '?', Values: []string{"？"}},
		{Key: '[', Values: []string{"【"}, Pair: "】"},
		{Key: '\\', Values: []string{"、"}},
		{Key: ']', Values: []string{"】"}},
		{Key: '^', Values: []string{"……"}},
		{Key: '_', Values: []string{"——"}},
		{Key: '`', Values: []string{"·"}},
		{Key: '{', Values: []string{"『"}, Pair: "』"},
		{Key: '}', Values: []string{"』"}},
		{Key: '~', Values: []string{"～"}},
	})
}

// tableFile is the on-disk form shared by TOML and JSON tables.
type tableFile struct {
	Locale  string      `toml:"locale" json:"locale"`
	Entries []entryFile `toml:"entries" json:"entries"`
}

type entryFile struct {
	Key    string   `toml:"key" json:"key"`
	Values []string `toml:"values" json:"values"`
	Pair   string   `toml:"pair,omitempty" json:"pair,omitempty"`
}

// LoadTable reads a .toml or .json table and validates it against the
// embedded schema.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read punctuation table: %w", err)
	}

	var doc any
	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("%w: decode TOML: %v", ErrInvalidTable, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: decode JSON: %v", ErrInvalidTable, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrInvalidTable, filepath.Ext(path))
	}

	return parseTable(doc)
}

// ParseJSON parses and validates a JSON table.
func ParseJSON(data []byte) (*Table, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode JSON: %v", ErrInvalidTable, err)
	}
	return parseTable(doc)
}

func parseTable(doc any) (*Table, error) {
	// Normalise through JSON so TOML's typed slices and maps validate.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	var tf tableFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	entries := make([]Entry, 0, len(tf.Entries))
	for _, e := range tf.Entries {
		// maxLength counts code points, so the key is exactly one rune.
		r, _ := utf8.DecodeRuneInString(e.Key)
		entries = append(entries, Entry{Key: r, Values: e.Values, Pair: e.Pair})
	}
	return NewTable(tf.Locale, entries), nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(tableSchema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// EncodeTOML writes t in the format LoadTable reads.
func (t *Table) EncodeTOML() ([]byte, error) {
	tf := tableFile{Locale: t.Locale}
	for _, e := range t.Entries() {
		tf.Entries = append(tf.Entries, entryFile{Key: string(e.Key), Values: e.Values, Pair: e.Pair})
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(tf); err != nil {
		return nil, fmt.Errorf("encode punctuation table: %w", err)
	}
	return buf.Bytes(), nil
}
