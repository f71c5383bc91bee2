package ime

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"quwei/internal/config"
	"quwei/internal/logging"
	"quwei/internal/metrics"
	"quwei/internal/quwei"
	"quwei/internal/store"
)

// ErrConverterUnavailable is returned by NewEngine when the character
// converter cannot be created.
var ErrConverterUnavailable = quwei.ErrConverterUnavailable

// ErrCodeOutOfRange is returned by Lookup for codes outside 000-999.
var ErrCodeOutOfRange = errors.New("page code out of range")

// HistoryRecorder persists commits. *store.Store implements it.
type HistoryRecorder interface {
	InsertCommit(c *store.Commit) (int64, error)
}

// Options configures an Engine. Only Config is required.
type Options struct {
	Config      *config.Config
	Punctuator  Punctuator
	QuickPhrase QuickPhrase
	History     HistoryRecorder
	Logger      *logging.Logger
	Metrics     *metrics.Engine
}

// Engine is the process-wide input method. It owns the Mapper shared by all
// sessions and the registry of per-session controllers.
type Engine struct {
	mapper   *quwei.Mapper
	registry *Registry
	punct    Punctuator
	phrase   QuickPhrase
	history  HistoryRecorder
	log      *logging.Logger
	metrics  *metrics.Engine

	mu     sync.RWMutex
	cfg    *config.Config
	keymap *KeyMap
}

// NewEngine creates the converter and returns a ready engine.
func NewEngine(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}

	m, err := quwei.NewMapper()
	if err != nil {
		return nil, fmt.Errorf("create mapper: %w", err)
	}

	km, err := NewKeyMap(cfg.Keys, cfg.Engine.SelectWithSpace)
	if err != nil {
		return nil, fmt.Errorf("build key map: %w", err)
	}

	e := &Engine{
		mapper:  m,
		punct:   opts.Punctuator,
		phrase:  opts.QuickPhrase,
		history: opts.History,
		log:     log.WithComponent("engine"),
		metrics: opts.Metrics,
		cfg:     cfg,
		keymap:  km,
	}
	e.registry = NewRegistry(e.newController)
	return e, nil
}

func (e *Engine) newController(id string) *Controller {
	e.mu.RLock()
	opts := controllerOptions(e.cfg)
	e.mu.RUnlock()

	c := NewController(id, e.mapper, opts)
	c.SetPunctuator(e.punct)
	c.SetQuickPhrase(e.phrase)
	c.OnCommit(func(source store.Source, code *int, text string) {
		e.record(id, source, code, text)
	})
	e.log.Debug("session attached", "session", id)
	return c
}

func controllerOptions(cfg *config.Config) ControllerOptions {
	return ControllerOptions{
		Locale:                cfg.Engine.Locale,
		QuickPhraseTrigger:    cfg.TriggerRune(),
		KeepPageOnEmptySelect: cfg.Engine.KeepPageOnEmptySelect,
	}
}

// Mapper returns the shared converter.
func (e *Engine) Mapper() *quwei.Mapper { return e.mapper }

// Registry returns the session registry.
func (e *Engine) Registry() *Registry { return e.registry }

// KeyMap returns the current key classifier.
func (e *Engine) KeyMap() *KeyMap {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.keymap
}

// Config returns the current configuration.
func (e *Engine) Config() *config.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// HandleAction routes a to the session's quick phrase mode when active and
// to its controller otherwise. It reports whether the key was consumed.
func (e *Engine) HandleAction(session string, host Host, a Action) bool {
	var handled bool
	e.registry.Do(session, func(c *Controller) {
		if e.phrase != nil && e.phrase.Active(session) {
			handled = e.phrase.HandleAction(session, &recordingHost{Host: host, engine: e, session: session}, a)
			return
		}
		handled = c.HandleAction(host, a)
	})
	e.metrics.SetSessions(e.registry.Len())
	return handled
}

// HandleKey classifies a keysym with the current KeyMap and handles it.
func (e *Engine) HandleKey(session string, host Host, keyval, state uint32) bool {
	start := time.Now()
	handled := false
	if a, ok := e.KeyMap().Classify(keyval, state); ok {
		handled = e.HandleAction(session, host, a)
	}
	e.metrics.Key(handled, time.Since(start))
	return handled
}

// Reset discards any pending input of session. host may be nil.
func (e *Engine) Reset(session string, host Host) {
	c, ok := e.registry.Get(session)
	if !ok {
		return
	}
	e.registry.Do(session, func(*Controller) {
		if e.phrase != nil {
			e.phrase.Reset(session)
		}
		c.Reset(host)
	})
}

// Detach resets session and releases its state.
func (e *Engine) Detach(session string) {
	e.Reset(session, nil)
	if r, ok := e.punct.(interface{ Reset(string) }); ok {
		r.Reset(session)
	}
	if e.registry.Detach(session) {
		e.log.Debug("session detached", "session", session)
	}
	e.metrics.SetSessions(e.registry.Len())
}

// ApplyConfig switches to cfg. Pending input in every session is kept.
func (e *Engine) ApplyConfig(cfg *config.Config) error {
	km, err := NewKeyMap(cfg.Keys, cfg.Engine.SelectWithSpace)
	e.metrics.Reload(err)
	if err != nil {
		return fmt.Errorf("build key map: %w", err)
	}

	e.mu.Lock()
	e.cfg = cfg
	e.keymap = km
	e.mu.Unlock()

	opts := controllerOptions(cfg)
	e.registry.Each(func(c *Controller) {
		c.SetOptions(opts)
	})
	e.log.Info("configuration applied", "sessions", e.registry.Len())
	return nil
}

// Lookup returns page code without touching any session.
func (e *Engine) Lookup(code int) (quwei.Page, error) {
	if code < 0 || code > quwei.MaxPageCode {
		return quwei.Page{}, fmt.Errorf("%w: %d", ErrCodeOutOfRange, code)
	}
	return quwei.NewPage(e.mapper, code), nil
}

func (e *Engine) record(session string, source store.Source, code *int, text string) {
	e.log.Debug("commit", "session", session, "source", source, "text", text)
	e.metrics.Commit(string(source))

	if e.history == nil {
		return
	}
	e.mu.RLock()
	enabled := e.cfg.History.Enabled
	e.mu.RUnlock()
	if !enabled {
		return
	}

	c := &store.Commit{
		SessionID: session,
		Source:    source,
		Code:      code,
		Text:      text,
	}
	if _, err := e.history.InsertCommit(c); err != nil {
		e.log.Warn("record commit failed", "session", session, "error", err)
	}
}

// recordingHost forwards to Host and records every commit.
type recordingHost struct {
	Host
	engine  *Engine
	session string
}

func (h *recordingHost) CommitString(text string) {
	if h.Host != nil {
		h.Host.CommitString(text)
	}
	if text != "" {
		h.engine.record(h.session, store.SourceQuickPhrase, nil, text)
	}
}

func (h *recordingHost) ForwardCursorLeft(n int) {
	if h.Host != nil {
		h.Host.ForwardCursorLeft(n)
	}
}

func (h *recordingHost) UpdateDisplay(d Display) {
	if h.Host != nil {
		h.Host.UpdateDisplay(d)
	}
}
