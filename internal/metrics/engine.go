package metrics

import "time"

// Engine is the metric set of an input method engine. A nil *Engine
// records nothing.
type Engine struct {
	registry *Registry

	keysHandled *Counter
	keysPassed  *Counter
	sessions    *Gauge
	latency     *Histogram
	reloadsOK   *Counter
	reloadsFail *Counter
}

// NewEngine registers the engine metrics in r.
func NewEngine(r *Registry) *Engine {
	const keysHelp = "Key events by whether the engine consumed them"
	const reloadHelp = "Configuration reloads by outcome"
	return &Engine{
		registry:    r,
		keysHandled: r.Counter("keys_total", keysHelp, Labels{"result": "handled"}),
		keysPassed:  r.Counter("keys_total", keysHelp, Labels{"result": "passed"}),
		sessions:    r.Gauge("sessions", "Attached input contexts", nil),
		latency:     r.Histogram("key_duration_seconds", "Time to process one key event", nil, LatencyBuckets),
		reloadsOK:   r.Counter("config_reloads_total", reloadHelp, Labels{"result": "ok"}),
		reloadsFail: r.Counter("config_reloads_total", reloadHelp, Labels{"result": "error"}),
	}
}

// Registry returns the registry the metrics live in.
func (m *Engine) Registry() *Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Key records one processed key event.
func (m *Engine) Key(handled bool, d time.Duration) {
	if m == nil {
		return
	}
	if handled {
		m.keysHandled.Inc()
	} else {
		m.keysPassed.Inc()
	}
	m.latency.ObserveDuration(d)
}

// Commit records one committed string from source.
func (m *Engine) Commit(source string) {
	if m == nil {
		return
	}
	m.registry.Counter("commits_total", "Committed strings by source", Labels{"source": source}).Inc()
}

// SetSessions records the number of attached sessions.
func (m *Engine) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(int64(n))
}

// Reload records a configuration reload.
func (m *Engine) Reload(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reloadsFail.Inc()
		return
	}
	m.reloadsOK.Inc()
}
