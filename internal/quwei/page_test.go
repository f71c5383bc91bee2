package quwei

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSlotLabels(t *testing.T) {
	want := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "0"}
	got := make([]string, PageSize)
	for i := range got {
		got[i] = SlotLabel(i)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestSlotForDigit(t *testing.T) {
	for d := 0; d <= 9; d++ {
		slot := SlotForDigit(d)
		if SlotLabel(slot) != string(rune('0'+d)) {
			t.Errorf("digit %d selects slot %d labelled %q", d, slot, SlotLabel(slot))
		}
	}
}

func TestNewPageCoversEveryCode(t *testing.T) {
	m := newTestMapper(t)

	for code := 0; code <= MaxPageCode; code++ {
		p := NewPage(m, code)
		if p.Code != code {
			t.Fatalf("page %d has code %d", code, p.Code)
		}
		if len(p.Candidates) != PageSize {
			t.Fatalf("page %d has %d slots", code, len(p.Candidates))
		}
		for i, c := range p.Candidates {
			if want := code*10 + i + 1; c.SubCode != want {
				t.Fatalf("page %d slot %d sub-code %d, want %d", code, i, c.SubCode, want)
			}
			text, _ := m.Map(c.SubCode)
			if c.Text != text {
				t.Fatalf("page %d slot %d text %q, want %q", code, i, c.Text, text)
			}
		}
		if last := p.Candidates[9]; last.SubCode != code*10+10 || last.Label != "0" {
			t.Fatalf("page %d last slot = %+v", code, last)
		}
	}
}

func TestNewPageKnownRow(t *testing.T) {
	m := newTestMapper(t)

	p := NewPage(m, 160)
	want := []string{"啊", "阿", "埃", "挨", "哎", "唉", "哀", "皑", "癌", "蔼"}
	if diff := cmp.Diff(want, p.Texts()); diff != "" {
		t.Errorf("page 160 mismatch (-want +got):\n%s", diff)
	}
}

func TestNewPageKeepsEmptySlots(t *testing.T) {
	m := newTestMapper(t)

	// Page 19 covers 0191..0200; 0195..0199 overflow the trail byte.
	p := NewPage(m, 19)
	for i := 4; i <= 8; i++ {
		if !p.Candidates[i].Empty() {
			t.Errorf("slot %d (sub-code %d) = %q, want empty", i, p.Candidates[i].SubCode, p.Candidates[i].Text)
		}
		if p.Candidates[i].Label != SlotLabel(i) {
			t.Errorf("empty slot %d lost its label", i)
		}
	}
}
