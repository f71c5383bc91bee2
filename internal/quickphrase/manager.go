package quickphrase

import (
	"sync"

	"quwei/internal/ime"
	"quwei/internal/quwei"
)

// AuxLabel is shown beside the preedit while quick phrase mode is active.
const AuxLabel = "快速输入"

// DefaultMaxCandidates is the candidate limit used when none is configured.
const DefaultMaxCandidates = 10

type state struct {
	buffer     []rune
	output     string
	alt        string
	candidates []Phrase
	cursor     int
}

// Manager runs quick phrase mode for every session. It implements
// ime.QuickPhrase and is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	index    *Index
	max      int
	sessions map[string]*state
}

// NewManager returns a manager searching idx. max is clamped to 1..10.
func NewManager(idx *Index, max int) *Manager {
	if max < 1 || max > quwei.PageSize {
		max = DefaultMaxCandidates
	}
	return &Manager{
		index:    idx,
		max:      max,
		sessions: make(map[string]*state),
	}
}

// Reload replaces the phrase table. Active sessions keep their candidates
// until the next edit.
func (m *Manager) Reload(phrases []Phrase) {
	idx := NewIndex(phrases)
	m.mu.Lock()
	m.index = idx
	m.mu.Unlock()
}

// SetMaxCandidates changes the candidate limit.
func (m *Manager) SetMaxCandidates(max int) {
	if max < 1 || max > quwei.PageSize {
		return
	}
	m.mu.Lock()
	m.max = max
	m.mu.Unlock()
}

// Len returns the number of loaded phrases.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index == nil {
		return 0
	}
	return m.index.Len()
}

// Trigger enters quick phrase mode for session. host may be nil.
func (m *Manager) Trigger(session string, host ime.Host, output, alt string) bool {
	m.mu.Lock()
	if m.index == nil {
		m.mu.Unlock()
		return false
	}
	s := &state{output: output, alt: alt}
	m.sessions[session] = s
	d := m.display(s)
	m.mu.Unlock()

	if host != nil {
		host.UpdateDisplay(d)
	}
	return true
}

// Active reports whether session is in quick phrase mode.
func (m *Manager) Active(session string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[session]
	return ok
}

// Reset leaves quick phrase mode without committing.
func (m *Manager) Reset(session string) {
	m.mu.Lock()
	delete(m.sessions, session)
	m.mu.Unlock()
}

// HandleAction processes one key in quick phrase mode. Every key is
// consumed while the mode is active. host may be nil.
func (m *Manager) HandleAction(session string, host ime.Host, a ime.Action) bool {
	m.mu.Lock()
	s, ok := m.sessions[session]
	if !ok {
		m.mu.Unlock()
		return false
	}

	var commit string
	done := false

	switch {
	case a.Kind == ime.ActionDigit && len(s.candidates) > 0:
		if i := quwei.SlotForDigit(a.Digit); i < len(s.candidates) {
			commit, done = s.candidates[i].Text, true
		}
	case a.Kind == ime.ActionSelect:
		if a.Index >= 0 && a.Index < len(s.candidates) {
			commit, done = s.candidates[a.Index].Text, true
		}
	case a.Kind == ime.ActionSelectCursor || (a.Kind == ime.ActionChar && a.Char == ' '):
		switch {
		case len(s.candidates) > 0:
			commit = s.candidates[s.cursor].Text
		case len(s.buffer) == 0:
			commit = s.output
		default:
			commit = string(s.buffer)
		}
		done = true
	case a.Kind == ime.ActionEnter:
		switch {
		case len(s.buffer) > 0:
			commit = string(s.buffer)
		case s.alt != "":
			commit = s.alt
		default:
			commit = s.output
		}
		done = true
	case a.Kind == ime.ActionBackspace:
		if len(s.buffer) == 0 {
			done = true
			break
		}
		s.buffer = s.buffer[:len(s.buffer)-1]
		m.search(s)
	case a.Kind == ime.ActionEscape:
		done = true
	case a.Kind == ime.ActionCursorPrev && len(s.candidates) > 0:
		s.cursor = (s.cursor + len(s.candidates) - 1) % len(s.candidates)
	case a.Kind == ime.ActionCursorNext && len(s.candidates) > 0:
		s.cursor = (s.cursor + 1) % len(s.candidates)
	case a.Char != 0 && a.Char != ' ':
		// Digits (without candidates), letters, and page keys that carry a
		// character all extend the key.
		s.buffer = append(s.buffer, a.Char)
		m.search(s)
	}

	if done {
		delete(m.sessions, session)
	}
	d := ime.Display{}
	if !done {
		d = m.display(s)
	}
	m.mu.Unlock()

	if host == nil {
		return true
	}
	if commit != "" {
		host.CommitString(commit)
	}
	host.UpdateDisplay(d)
	return true
}

func (m *Manager) search(s *state) {
	s.candidates = m.index.Search(string(s.buffer), m.max)
	s.cursor = 0
}

func (m *Manager) display(s *state) ime.Display {
	d := ime.Display{
		Aux:     AuxLabel,
		Preedit: string(s.buffer),
		Cursor:  s.cursor,
	}
	for i, p := range s.candidates {
		d.Candidates = append(d.Candidates, quwei.Candidate{
			Label: quwei.SlotLabel(i),
			Text:  p.Text,
		})
	}
	return d
}
