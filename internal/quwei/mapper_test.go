package quwei

import (
	"testing"
)

func newTestMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper()
	if err != nil {
		t.Fatalf("NewMapper failed: %v", err)
	}
	return m
}

func TestLegacyBytes(t *testing.T) {
	tests := []struct {
		name    string
		subCode int
		want    [2]byte
	}{
		{"first cell", 1, [2]byte{0xA0, 0xA1}},
		{"page one slot one", 11, [2]byte{0xA0, 0xAB}},
		{"ideographic space", 101, [2]byte{0xA1, 0xA1}},
		{"first hanzi", 1601, [2]byte{0xB0, 0xA1}},
		{"last standard zone", 9494, [2]byte{0xFE, 0xFE}},
		{"position wraps", 196, [2]byte{0xA1, 0x00}},
		{"extended zone start", 9500, [2]byte{0xA8, 0x40}},
		{"extended zone 96", 9601, [2]byte{0xA9, 0x41}},
		{"extended gap skipped", 9563, [2]byte{0xA8, 0x80}},
		{"extended second gap skipped", 9663, [2]byte{0xA9, 0x80}},
		{"past the gap", 9564, [2]byte{0xA8, 0x80}},
		{"last sub-code", 10000, [2]byte{0xAD, 0x40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LegacyBytes(tt.subCode)
			if got != tt.want {
				t.Errorf("LegacyBytes(%d) = %#x, want %#x", tt.subCode, got, tt.want)
			}
		})
	}
}

func TestLegacyBytesNeverHitsGap(t *testing.T) {
	for sub := 9500; sub <= MaxSubCode; sub++ {
		if b := LegacyBytes(sub); b[1] == 0x7F {
			t.Fatalf("LegacyBytes(%d) produced trail byte 0x7F", sub)
		}
	}
}

func TestMapKnownCharacters(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		subCode int
		want    string
	}{
		{101, "　"},
		{102, "、"},
		{103, "。"},
		{1601, "啊"},
		{1602, "阿"},
		{1, "牎"},
		{11, "牜"},
		{300, "\ue5e5"},
		{657, "︐"},
		{658, "︒"},
		{659, "︑"},
		{660, "︓"},
		{661, "︔"},
		{662, "︕"},
		{663, "︖"},
		{676, "︗"},
		{677, "︘"},
		{683, "︙"},
		{828, "ḿ"},
		{9400, "龻"},
		{9500, "ˊ"},
		{9501, "ˋ"},
		{9564, "█"},
		{9601, "〢"},
	}

	for _, tt := range tests {
		got, ok := m.Map(tt.subCode)
		if !ok {
			t.Errorf("Map(%d) reported no character, want %q", tt.subCode, tt.want)
			continue
		}
		if got != tt.want {
			t.Errorf("Map(%d) = %q, want %q", tt.subCode, got, tt.want)
		}
	}
}

func TestMapMisses(t *testing.T) {
	m := newTestMapper(t)

	for _, sub := range []int{0, -5, MaxSubCode + 1, 195, 196, 199} {
		if got, ok := m.Map(sub); ok || got != "" {
			t.Errorf("Map(%d) = %q, %v; want miss", sub, got, ok)
		}
	}
}

func TestMapIsPure(t *testing.T) {
	m := newTestMapper(t)

	for sub := MinSubCode; sub <= MaxSubCode; sub += 37 {
		first, ok1 := m.Map(sub)
		second, ok2 := m.Map(sub)
		if first != second || ok1 != ok2 {
			t.Fatalf("Map(%d) not stable: %q/%v then %q/%v", sub, first, ok1, second, ok2)
		}
	}
}

func TestMapConcurrent(t *testing.T) {
	m := newTestMapper(t)
	want, _ := m.Map(1601)

	done := make(chan string, 8)
	for i := 0; i < 8; i++ {
		go func() {
			var got string
			for j := 0; j < 200; j++ {
				got, _ = m.Map(1601)
			}
			done <- got
		}()
	}
	for i := 0; i < 8; i++ {
		if got := <-done; got != want {
			t.Errorf("concurrent Map(1601) = %q, want %q", got, want)
		}
	}
}

func TestCodeReverseLookup(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		char string
		want int
		ok   bool
	}{
		{"啊", 1601, true},
		{"蔼", 1610, true},
		{"、", 102, true},
		{"a", 0, false},
		{"啊阿", 0, false},
	}
	for _, tt := range tests {
		got, ok := m.Code(tt.char)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Code(%q) = %d, %v; want %d, %v", tt.char, got, ok, tt.want, tt.ok)
		}
	}
}
