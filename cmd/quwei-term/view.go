package main

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"quwei/internal/ime"
)

var (
	styleTitle     = tcell.StyleDefault.Bold(true)
	stylePreedit   = tcell.StyleDefault.Underline(true)
	styleCandidate = tcell.StyleDefault
	styleCursor    = tcell.StyleDefault.Reverse(true)
	styleEmpty     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHelp      = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

const helpLine = "digits: code  -/= PgUp/PgDn: page  arrows: cursor  space: select  enter: raw  esc: cancel  ctrl-c: quit"

// view is the terminal text buffer. It implements ime.Host.
type view struct {
	text    []rune
	caret   int
	display ime.Display
}

func (v *view) CommitString(s string) {
	r := []rune(s)
	text := make([]rune, 0, len(v.text)+len(r))
	text = append(text, v.text[:v.caret]...)
	text = append(text, r...)
	text = append(text, v.text[v.caret:]...)
	v.text = text
	v.caret += len(r)
}

func (v *view) ForwardCursorLeft(n int) {
	v.caret -= n
	if v.caret < 0 {
		v.caret = 0
	}
}

func (v *view) UpdateDisplay(d ime.Display) {
	v.display = d
}

// passThrough applies a key the engine did not consume, the way an
// application would.
func (v *view) passThrough(key tcell.Key, r rune) {
	switch key {
	case tcell.KeyRune:
		v.CommitString(string(r))
	case tcell.KeyEnter:
		v.CommitString("\n")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if v.caret > 0 {
			v.text = append(v.text[:v.caret-1], v.text[v.caret:]...)
			v.caret--
		}
	case tcell.KeyLeft:
		v.ForwardCursorLeft(1)
	case tcell.KeyRight:
		if v.caret < len(v.text) {
			v.caret++
		}
	}
}

// candidateLine formats the candidate list, returning each item's column
// span so the cursor item can be highlighted.
func candidateLine(d ime.Display) (string, [][2]int) {
	var b strings.Builder
	spans := make([][2]int, 0, len(d.Candidates))
	col := 0
	for i, c := range d.Candidates {
		if i > 0 {
			b.WriteString("  ")
			col += 2
		}
		text := c.Text
		if text == "" {
			text = "□"
		}
		item := fmt.Sprintf("%s.%s", c.Label, text)
		spans = append(spans, [2]int{col, col + runewidth.StringWidth(item)})
		b.WriteString(item)
		col += runewidth.StringWidth(item)
	}
	return b.String(), spans
}

// statusLine describes the composition state above the candidates.
func statusLine(d ime.Display) string {
	var b strings.Builder
	if d.Aux != "" {
		b.WriteString("[" + d.Aux + "] ")
	}
	b.WriteString(d.Preedit)
	if d.Paged {
		if d.HasPrev {
			b.WriteString("  ◀")
		}
		if d.HasNext {
			b.WriteString("  ▶")
		}
	}
	return b.String()
}

// drawString draws s at (x, y) and returns the column after it.
func drawString(s tcell.Screen, x, y int, text string, style tcell.Style) int {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
	return x
}

func (v *view) render(s tcell.Screen) {
	s.Clear()
	w, h := s.Size()

	drawString(s, 0, 0, "quwei", styleTitle)

	y := 2
	x := 0
	for i, r := range v.text {
		if i == v.caret {
			s.ShowCursor(x, y)
		}
		if r == '\n' {
			x, y = 0, y+1
			continue
		}
		if x >= w {
			x, y = 0, y+1
		}
		s.SetContent(x, y, r, nil, tcell.StyleDefault)
		x += runewidth.RuneWidth(r)
	}
	if v.caret == len(v.text) {
		s.ShowCursor(x, y)
	}

	if h < 6 {
		s.Show()
		return
	}
	panel := h - 4
	if !v.display.Empty() {
		drawString(s, 0, panel, statusLine(v.display), stylePreedit)
		line, spans := candidateLine(v.display)
		col := 0
		idx := 0
		for _, r := range line {
			style := styleCandidate
			if idx < len(spans) && col >= spans[idx][1] {
				idx++
			}
			if idx < len(spans) && col >= spans[idx][0] && col < spans[idx][1] {
				switch {
				case idx == v.display.Cursor:
					style = styleCursor
				case v.display.Candidates[idx].Empty():
					style = styleEmpty
				}
			}
			s.SetContent(col, panel+1, r, nil, style)
			col += runewidth.RuneWidth(r)
		}
	}
	drawString(s, 0, h-1, helpLine, styleHelp)
	s.Show()
}
