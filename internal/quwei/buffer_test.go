package quwei

import (
	"fmt"
	"strconv"
	"testing"
)

func TestBufferType(t *testing.T) {
	var b Buffer

	for i, d := range []int{4, 0, 7} {
		if !b.Type(d) {
			t.Fatalf("Type(%d) rejected at length %d", d, i)
		}
	}
	if b.Type(1) {
		t.Error("Type accepted a fourth digit")
	}
	if got := b.UserInput(); got != "407" {
		t.Errorf("UserInput = %q, want %q", got, "407")
	}
	if !b.Full() || b.Len() != 3 {
		t.Errorf("expected full buffer, len=%d", b.Len())
	}
}

func TestBufferRejectsNonDigits(t *testing.T) {
	var b Buffer
	for _, d := range []int{-1, 10, 42} {
		if b.Type(d) {
			t.Errorf("Type(%d) accepted", d)
		}
	}
	if !b.Empty() {
		t.Errorf("buffer not empty: %q", b.UserInput())
	}
}

func TestBufferPartialInput(t *testing.T) {
	tests := []struct {
		digits []int
		want   string
	}{
		{nil, ""},
		{[]int{0}, "0"},
		{[]int{9, 0}, "90"},
		{[]int{0, 0}, "00"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.digits), func(t *testing.T) {
			var b Buffer
			for _, d := range tt.digits {
				b.Type(d)
			}
			if got := b.UserInput(); got != tt.want {
				t.Errorf("UserInput = %q, want %q", got, tt.want)
			}
			if _, ok := b.Code(); ok {
				t.Error("Code reported a page for a partial buffer")
			}
		})
	}
}

func TestBufferBackspace(t *testing.T) {
	var b Buffer
	if b.Backspace() {
		t.Error("Backspace on empty buffer reported a removal")
	}

	b.Type(1)
	b.Type(2)
	if !b.Backspace() {
		t.Fatal("Backspace did not remove a digit")
	}
	if got := b.UserInput(); got != "1" {
		t.Errorf("UserInput = %q, want %q", got, "1")
	}

	b.Clear()
	if !b.Empty() {
		t.Error("Clear left digits behind")
	}
}

func TestBufferSetCodeRoundTrip(t *testing.T) {
	var b Buffer
	for c := 0; c <= MaxPageCode; c++ {
		if !b.SetCode(c) {
			t.Fatalf("SetCode(%d) rejected", c)
		}
		input := b.UserInput()
		if len(input) != 3 {
			t.Fatalf("SetCode(%d) produced %q", c, input)
		}
		n, err := strconv.Atoi(input)
		if err != nil || n != c {
			t.Fatalf("SetCode(%d) read back as %q", c, input)
		}
		if code, ok := b.Code(); !ok || code != c {
			t.Fatalf("Code() = %d, %v after SetCode(%d)", code, ok, c)
		}
	}
}

func TestBufferSetCodeOutOfRange(t *testing.T) {
	var b Buffer
	b.Type(5)

	for _, c := range []int{-1, 1000} {
		if b.SetCode(c) {
			t.Errorf("SetCode(%d) accepted", c)
		}
	}
	if got := b.UserInput(); got != "5" {
		t.Errorf("rejected SetCode changed buffer to %q", got)
	}
}

func TestBufferSetCodeKeepsLeadingZeros(t *testing.T) {
	var b Buffer
	b.SetCode(7)
	if got := b.UserInput(); got != "007" {
		t.Errorf("UserInput = %q, want %q", got, "007")
	}
}
