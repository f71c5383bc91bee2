package quwei

import "fmt"

// CodeLength is the number of digits in a complete page code.
const CodeLength = 3

// Buffer accumulates the digits of a page code.
type Buffer struct {
	digits [CodeLength]byte
	n      int
}

// Type appends a digit. It returns false, leaving the buffer unchanged, when
// the digit is out of range or the buffer is already full.
func (b *Buffer) Type(d int) bool {
	if d < 0 || d > 9 || b.n >= CodeLength {
		return false
	}
	b.digits[b.n] = byte('0' + d)
	b.n++
	return true
}

// Backspace removes the last digit. It reports whether a digit was removed.
func (b *Buffer) Backspace() bool {
	if b.n == 0 {
		return false
	}
	b.n--
	return true
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.n = 0
}

// SetCode replaces the contents with the zero-padded form of code.
// Codes outside [0, MaxPageCode] are rejected and leave the buffer unchanged.
func (b *Buffer) SetCode(code int) bool {
	if code < 0 || code > MaxPageCode {
		return false
	}
	s := fmt.Sprintf("%03d", code)
	b.Clear()
	for i := 0; i < len(s); i++ {
		b.Type(int(s[i] - '0'))
	}
	return true
}

// UserInput returns the digits typed so far.
func (b *Buffer) UserInput() string {
	return string(b.digits[:b.n])
}

// Len returns the number of digits in the buffer.
func (b *Buffer) Len() int { return b.n }

// Empty reports whether no digits have been typed.
func (b *Buffer) Empty() bool { return b.n == 0 }

// Full reports whether the buffer holds a complete page code.
func (b *Buffer) Full() bool { return b.n == CodeLength }

// Code returns the numeric page code once the buffer is full.
func (b *Buffer) Code() (int, bool) {
	if !b.Full() {
		return 0, false
	}
	code := 0
	for _, c := range b.digits {
		code = code*10 + int(c-'0')
	}
	return code, true
}
