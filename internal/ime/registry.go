package ime

import (
	"sort"
	"sync"
)

// Registry maps input context ids to their controllers. Controllers are
// created on first use and dropped on Detach.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	factory  func(id string) *Controller
}

type session struct {
	mu   sync.Mutex
	ctrl *Controller
}

// NewRegistry returns an empty registry that builds controllers with factory.
func NewRegistry(factory func(id string) *Controller) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		factory:  factory,
	}
}

func (r *Registry) attach(id string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		s = &session{ctrl: r.factory(id)}
		r.sessions[id] = s
	}
	return s
}

// Attach returns the controller for id, creating it if needed.
func (r *Registry) Attach(id string) *Controller {
	return r.attach(id).ctrl
}

// Get returns the controller for id without creating one.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return s.ctrl, true
}

// Do runs fn with exclusive access to the controller of id, creating it if
// needed.
func (r *Registry) Do(id string, fn func(*Controller)) {
	s := r.attach(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ctrl)
}

// Each runs fn on every controller, one at a time.
func (r *Registry) Each(fn func(*Controller)) {
	r.mu.Lock()
	all := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.Unlock()

	for _, s := range all {
		s.mu.Lock()
		fn(s.ctrl)
		s.mu.Unlock()
	}
}

// Detach drops the controller of id. It reports whether one existed.
func (r *Registry) Detach(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len returns the number of attached sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// IDs returns the attached session ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
