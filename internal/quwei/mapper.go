package quwei

import (
	"errors"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const (
	// MinSubCode and MaxSubCode bound the sub-codes reachable from a page.
	MinSubCode = 1
	MaxSubCode = MaxPageCode*PageSize + PageSize

	// extendedQu is the first zone mapped onto the GBK extension rows.
	extendedQu = 95
)

// gb2005 holds the GB18030-2005 assignments the decoder's table lacks or
// maps differently. Entries are consulted before decoding.
var gb2005 = map[[2]byte]rune{
	{0xA3, 0xA0}: '\uE5E5',
	{0xA6, 0xD9}: '\uFE10',
	{0xA6, 0xDA}: '\uFE12',
	{0xA6, 0xDB}: '\uFE11',
	{0xA6, 0xDC}: '\uFE13',
	{0xA6, 0xDD}: '\uFE14',
	{0xA6, 0xDE}: '\uFE15',
	{0xA6, 0xDF}: '\uFE16',
	{0xA6, 0xEC}: '\uFE17',
	{0xA6, 0xED}: '\uFE18',
	{0xA6, 0xF3}: '\uFE19',
	{0xA8, 0xBC}: '\u1E3F',
	{0xFE, 0xA0}: '\u9FBB',
}

// ErrConverterUnavailable is returned when the GB18030 decoder cannot be built.
var ErrConverterUnavailable = errors.New("quwei: GB18030 converter unavailable")

// Mapper translates sub-codes into characters.
// A single Mapper is safe for concurrent use; decoder access is serialized.
type Mapper struct {
	mu  sync.Mutex
	dec *encoding.Decoder

	reverseOnce sync.Once
	reverse     map[string]int
}

// NewMapper creates a Mapper backed by a GB18030 decoder.
func NewMapper() (*Mapper, error) {
	dec := simplifiedchinese.GB18030.NewDecoder()
	if dec == nil {
		return nil, ErrConverterUnavailable
	}
	return &Mapper{dec: dec}, nil
}

// Split returns the zone and position of a sub-code.
func Split(subCode int) (qu, wei int) {
	return subCode / 100, subCode % 100
}

// LegacyBytes returns the two-byte legacy code point for a sub-code.
// Arithmetic is 8-bit: positions that overflow a byte wrap around.
func LegacyBytes(subCode int) [2]byte {
	qu, wei := Split(subCode)

	var b [2]byte
	if qu >= extendedQu {
		b[0] = byte(qu - extendedQu + 0xA8)
		b[1] = byte(wei + 0x40)
		// 0xA87F and 0xA97F are not valid trail positions.
		if b[1] == 0x7F {
			b[1]++
		}
		return b
	}

	b[0] = byte(qu + 0xA0)
	b[1] = byte(wei + 0xA0)
	return b
}

// Map returns the character addressed by subCode.
// The boolean is false when the code point has no character; that is an
// expected result, not an error.
func (m *Mapper) Map(subCode int) (string, bool) {
	if subCode < MinSubCode || subCode > MaxSubCode {
		return "", false
	}

	in := LegacyBytes(subCode)
	if r, ok := gb2005[in]; ok {
		return string(r), true
	}

	m.mu.Lock()
	out, err := m.dec.Bytes(in[:])
	m.mu.Unlock()
	if err != nil {
		return "", false
	}

	r, size := utf8.DecodeRune(out)
	if size == 0 || size != len(out) || r == utf8.RuneError || unicode.IsControl(r) {
		return "", false
	}
	return string(out), true
}

// Code returns the smallest sub-code that maps to char. The reverse table
// is built on first use.
func (m *Mapper) Code(char string) (int, bool) {
	m.reverseOnce.Do(func() {
		m.reverse = make(map[string]int)
		for sub := MinSubCode; sub <= MaxSubCode; sub++ {
			text, ok := m.Map(sub)
			if !ok {
				continue
			}
			if _, seen := m.reverse[text]; !seen {
				m.reverse[text] = sub
			}
		}
	})
	sub, ok := m.reverse[char]
	return sub, ok
}
