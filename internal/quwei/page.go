package quwei

const (
	// PageSize is the number of candidates on every page.
	PageSize = 10

	// MaxPageCode is the largest three-digit page code.
	MaxPageCode = 999
)

// Candidate is one slot of a page.
type Candidate struct {
	// Label is the selection key shown next to the candidate: "1".."9","0".
	Label string

	// Text is the mapped character, empty when the code point is unassigned.
	Text string

	// SubCode is the four-digit code the candidate was mapped from.
	SubCode int
}

// Empty reports whether the slot has no character.
func (c Candidate) Empty() bool { return c.Text == "" }

// Page holds the ten candidates addressed by a page code.
type Page struct {
	Code       int
	Candidates [PageSize]Candidate
}

// SlotLabel returns the selection label of slot i (0 → "1", 9 → "0").
func SlotLabel(i int) string {
	return string(rune('0' + (i+1)%10))
}

// SlotForDigit returns the slot selected by pressing digit d.
func SlotForDigit(d int) int {
	return (d + 9) % 10
}

// SubCode returns the sub-code of slot i on page code.
func SubCode(code, slot int) int {
	return code*PageSize + slot + 1
}

// NewPage maps every slot of page code.
func NewPage(m *Mapper, code int) Page {
	p := Page{Code: code}
	for i := range p.Candidates {
		sub := SubCode(code, i)
		text, _ := m.Map(sub)
		p.Candidates[i] = Candidate{
			Label:   SlotLabel(i),
			Text:    text,
			SubCode: sub,
		}
	}
	return p
}

// Texts returns the candidate texts in slot order.
func (p Page) Texts() []string {
	texts := make([]string, len(p.Candidates))
	for i, c := range p.Candidates {
		texts[i] = c.Text
	}
	return texts
}
