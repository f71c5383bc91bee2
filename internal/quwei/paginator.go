package quwei

// Paginator moves through pages 0..MaxPageCode and keeps a cyclic cursor
// over the candidates of the current page.
//
// The cursor is a slot index and is kept across page changes.
type Paginator struct {
	mapper *Mapper
	page   Page
	cursor int
}

// NewPaginator returns a Paginator positioned on page code.
// Codes outside [0, MaxPageCode] are clamped.
func NewPaginator(m *Mapper, code int) *Paginator {
	p := &Paginator{mapper: m}
	p.set(clampCode(code))
	return p
}

func clampCode(code int) int {
	switch {
	case code < 0:
		return 0
	case code > MaxPageCode:
		return MaxPageCode
	}
	return code
}

func (p *Paginator) set(code int) {
	p.page = NewPage(p.mapper, code)
}

// Code returns the current page code.
func (p *Paginator) Code() int { return p.page.Code }

// Page returns the current page.
func (p *Paginator) Page() Page { return p.page }

// Size returns the number of candidates on a page.
func (p *Paginator) Size() int { return PageSize }

// HasPrev reports whether a previous page exists.
func (p *Paginator) HasPrev() bool { return p.page.Code > 0 }

// HasNext reports whether a next page exists.
func (p *Paginator) HasNext() bool { return p.page.Code < MaxPageCode }

// Prev moves to the previous page. It reports whether the page changed.
func (p *Paginator) Prev() bool {
	if !p.HasPrev() {
		return false
	}
	p.set(p.page.Code - 1)
	return true
}

// Next moves to the next page. It reports whether the page changed.
func (p *Paginator) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.set(p.page.Code + 1)
	return true
}

// Cursor returns the highlighted slot.
func (p *Paginator) Cursor() int { return p.cursor }

// SetCursor highlights slot i if it is in range.
func (p *Paginator) SetCursor(i int) {
	if i >= 0 && i < PageSize {
		p.cursor = i
	}
}

// CursorPrev moves the cursor back one slot, wrapping from 0 to 9.
func (p *Paginator) CursorPrev() {
	p.cursor = (p.cursor + PageSize - 1) % PageSize
}

// CursorNext moves the cursor forward one slot, wrapping from 9 to 0.
func (p *Paginator) CursorNext() {
	p.cursor = (p.cursor + 1) % PageSize
}

// Current returns the candidate under the cursor.
func (p *Paginator) Current() Candidate {
	return p.page.Candidates[p.cursor]
}

// Candidate returns the candidate in slot i.
func (p *Paginator) Candidate(i int) (Candidate, bool) {
	if i < 0 || i >= PageSize {
		return Candidate{}, false
	}
	return p.page.Candidates[i], true
}
