package punctuation

import (
	"sync"
)

// Service converts punctuation keys per input context. It is safe for
// concurrent use.
type Service struct {
	mu       sync.Mutex
	tables   map[string]*Table
	enabled  bool
	paired   bool
	sessions map[string]map[rune]int
}

// NewService creates an enabled service serving the given tables.
func NewService(tables ...*Table) *Service {
	s := &Service{
		tables:   make(map[string]*Table),
		enabled:  true,
		sessions: make(map[string]map[rune]int),
	}
	for _, t := range tables {
		s.tables[t.Locale] = t
	}
	return s
}

// SetTable installs or replaces the table for its locale.
func (s *Service) SetTable(t *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.Locale] = t
	s.sessions = make(map[string]map[rune]int)
}

// SetEnabled turns conversion on or off.
func (s *Service) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Enabled reports whether conversion is on.
func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetPairedTogether controls whether paired marks are emitted together.
func (s *Service) SetPairedTogether(paired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paired = paired
}

// Push converts c for the given session. It returns the mark to commit and
// the text that should follow the caret; both are empty when c is not
// converted.
func (s *Service) Push(locale, session string, c rune) (punc, after string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return "", ""
	}
	t, ok := s.tables[locale]
	if !ok {
		return "", ""
	}
	e, ok := t.Lookup(c)
	if !ok {
		return "", ""
	}

	if s.paired && e.Pair != "" {
		return e.Values[0], e.Pair
	}
	if len(e.Values) == 1 {
		return e.Values[0], ""
	}

	state := s.sessions[session]
	if state == nil {
		state = make(map[rune]int)
		s.sessions[session] = state
	}
	i := state[c] % len(e.Values)
	state[c] = (i + 1) % len(e.Values)
	return e.Values[i], ""
}

// Reset forgets the alternation state of a session.
func (s *Service) Reset(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session)
}
