package ime

import (
	"fmt"
	"unicode/utf8"

	"quwei/internal/quwei"
	"quwei/internal/store"
)

// State is the phase of a Controller.
type State int

const (
	// StateIdle has no typed digits.
	StateIdle State = iota
	// StateEntering has one or two typed digits.
	StateEntering
	// StatePaged has a complete page code and shows ten candidates.
	StatePaged
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEntering:
		return "entering"
	case StatePaged:
		return "paged"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Host receives the output of a session. Frontends implement it.
type Host interface {
	// CommitString inserts text into the application.
	CommitString(text string)
	// ForwardCursorLeft moves the application caret n characters left.
	ForwardCursorLeft(n int)
	// UpdateDisplay replaces the preedit and candidate list.
	UpdateDisplay(d Display)
}

// Display is everything a frontend shows for one session.
type Display struct {
	// Preedit is the text being composed.
	Preedit string

	// Aux is a short label shown next to the preedit, e.g. the quick
	// phrase indicator.
	Aux string

	// Paged is set while a candidate page is shown.
	Paged bool

	Candidates []quwei.Candidate
	Cursor     int
	Code       int
	HasPrev    bool
	HasNext    bool
}

// Empty reports whether nothing is shown.
func (d Display) Empty() bool {
	return d.Preedit == "" && d.Aux == "" && len(d.Candidates) == 0
}

// Punctuator converts a typed character into locale punctuation.
// A non-empty after is inserted behind the caret.
type Punctuator interface {
	Push(locale, session string, c rune) (punc, after string)
}

// QuickPhrase is a secondary input mode entered with a trigger key.
type QuickPhrase interface {
	// Trigger enters the mode for session. output is what a plain space
	// commits and alt what a plain enter commits. It returns false when the
	// mode cannot be entered.
	Trigger(session string, host Host, output, alt string) bool
	// Active reports whether session is in the mode.
	Active(session string) bool
	// HandleAction processes a key while the mode is active.
	HandleAction(session string, host Host, a Action) bool
	// Reset leaves the mode without committing.
	Reset(session string)
}

// ControllerOptions are the per-session settings derived from config.
type ControllerOptions struct {
	Locale                string
	QuickPhraseTrigger    rune
	KeepPageOnEmptySelect bool
}

// CommitFunc observes every string a Controller commits.
// code is the candidate sub-code, the page code of a complete raw commit,
// or nil.
type CommitFunc func(source store.Source, code *int, text string)

// Controller is the state machine of one input context.
// It is not safe for concurrent use; the Registry serialises access.
type Controller struct {
	id     string
	mapper *quwei.Mapper
	buffer quwei.Buffer
	pager  *quwei.Paginator

	punct    Punctuator
	phrase   QuickPhrase
	opts     ControllerOptions
	onCommit CommitFunc
}

// NewController creates an idle controller for session id.
func NewController(id string, m *quwei.Mapper, opts ControllerOptions) *Controller {
	return &Controller{id: id, mapper: m, opts: opts}
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// SetPunctuator sets the punctuation collaborator. nil disables punctuation.
func (c *Controller) SetPunctuator(p Punctuator) { c.punct = p }

// SetQuickPhrase sets the quick phrase collaborator. nil disables it.
func (c *Controller) SetQuickPhrase(q QuickPhrase) { c.phrase = q }

// SetOptions replaces the options. The current input is kept.
func (c *Controller) SetOptions(opts ControllerOptions) { c.opts = opts }

// Options returns the current options.
func (c *Controller) Options() ControllerOptions { return c.opts }

// OnCommit registers fn to observe commits.
func (c *Controller) OnCommit(fn CommitFunc) { c.onCommit = fn }

// State returns the current phase.
func (c *Controller) State() State {
	switch {
	case c.pager != nil:
		return StatePaged
	case c.buffer.Empty():
		return StateIdle
	}
	return StateEntering
}

// UserInput returns the typed digits.
func (c *Controller) UserInput() string { return c.buffer.UserInput() }

// Page returns the shown page, if any.
func (c *Controller) Page() (quwei.Page, bool) {
	if c.pager == nil {
		return quwei.Page{}, false
	}
	return c.pager.Page(), true
}

// Display returns what the session currently shows.
func (c *Controller) Display() Display {
	d := Display{Preedit: c.buffer.UserInput()}
	if c.pager != nil {
		page := c.pager.Page()
		d.Paged = true
		d.Candidates = page.Candidates[:]
		d.Cursor = c.pager.Cursor()
		d.Code = page.Code
		d.HasPrev = c.pager.HasPrev()
		d.HasNext = c.pager.HasNext()
	}
	return d
}

// HandleAction applies a to the session and reports whether the key was
// consumed. Unconsumed keys go back to the application.
func (c *Controller) HandleAction(host Host, a Action) bool {
	if c.pager != nil {
		switch a.Kind {
		case ActionDigit:
			// Keypad digits select too, not only the main-row keys.
			return c.selectSlot(host, quwei.SlotForDigit(a.Digit))
		case ActionSelect:
			return c.selectSlot(host, a.Index)
		case ActionSelectCursor:
			return c.selectSlot(host, c.pager.Cursor())
		case ActionPagePrev:
			if c.pager.Prev() {
				c.buffer.SetCode(c.pager.Code())
				c.update(host)
			}
			return true
		case ActionPageNext:
			if c.pager.Next() {
				c.buffer.SetCode(c.pager.Code())
				c.update(host)
			}
			return true
		case ActionCursorPrev:
			c.pager.CursorPrev()
			c.update(host)
			return true
		case ActionCursorNext:
			c.pager.CursorNext()
			c.update(host)
			return true
		}
	}

	if c.buffer.Empty() {
		if a.Kind == ActionDigit {
			c.typeDigit(host, a.Digit)
			return true
		}
		if a.Char != 0 {
			return c.punctuate(host, a)
		}
		return false
	}

	switch a.Kind {
	case ActionDigit:
		c.typeDigit(host, a.Digit)
	case ActionBackspace:
		c.buffer.Backspace()
		c.pager = nil
		c.update(host)
	case ActionEnter:
		var code *int
		if n, ok := c.buffer.Code(); ok {
			code = &n
		}
		c.commit(host, store.SourceRaw, code, c.buffer.UserInput())
		c.Reset(host)
	case ActionEscape:
		c.Reset(host)
	}
	// Everything else is swallowed while input is pending.
	return true
}

// Reset discards the input. host may be nil.
func (c *Controller) Reset(host Host) {
	c.buffer.Clear()
	c.pager = nil
	c.update(host)
}

func (c *Controller) typeDigit(host Host, d int) {
	if !c.buffer.Type(d) {
		return
	}
	if code, ok := c.buffer.Code(); ok {
		c.pager = quwei.NewPaginator(c.mapper, code)
	}
	c.update(host)
}

func (c *Controller) selectSlot(host Host, i int) bool {
	cand, ok := c.pager.Candidate(i)
	if !ok {
		return true
	}
	if cand.Empty() {
		if !c.opts.KeepPageOnEmptySelect {
			c.Reset(host)
		}
		return true
	}
	code := cand.SubCode
	c.commit(host, store.SourceCandidate, &code, cand.Text)
	c.Reset(host)
	return true
}

func (c *Controller) punctuate(host Host, a Action) bool {
	var punc, after string
	if !a.KeyPad && c.punct != nil {
		punc, after = c.punct.Push(c.opts.Locale, c.id, a.Char)
	}

	if c.phrase != nil && c.opts.QuickPhraseTrigger != 0 && a.Char == c.opts.QuickPhraseTrigger {
		output, alt := string(a.Char), ""
		if punc != "" {
			output, alt = punc+after, string(a.Char)
		}
		if c.phrase.Trigger(c.id, host, output, alt) {
			return true
		}
	}

	if punc == "" && after == "" {
		return false
	}
	c.commit(host, store.SourcePunctuation, nil, punc+after)
	if n := utf8.RuneCountInString(after); n > 0 && host != nil {
		host.ForwardCursorLeft(n)
	}
	return true
}

func (c *Controller) commit(host Host, source store.Source, code *int, text string) {
	if text == "" {
		return
	}
	if host != nil {
		host.CommitString(text)
	}
	if c.onCommit != nil {
		c.onCommit(source, code, text)
	}
}

func (c *Controller) update(host Host) {
	if host != nil {
		host.UpdateDisplay(c.Display())
	}
}
