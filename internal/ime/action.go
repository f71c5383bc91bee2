package ime

import "fmt"

// ActionKind identifies what a key means to the controller.
type ActionKind int

const (
	// ActionNone is a key without meaning to the engine.
	ActionNone ActionKind = iota
	ActionDigit
	ActionBackspace
	ActionEnter
	ActionEscape
	// ActionSelect picks a candidate by slot index (mouse click, IBus
	// CandidateClicked).
	ActionSelect
	// ActionSelectCursor picks the highlighted candidate.
	ActionSelectCursor
	ActionPagePrev
	ActionPageNext
	ActionCursorPrev
	ActionCursorNext
	// ActionChar is any other printable key.
	ActionChar
)

var actionNames = [...]string{
	ActionNone:         "none",
	ActionDigit:        "digit",
	ActionBackspace:    "backspace",
	ActionEnter:        "enter",
	ActionEscape:       "escape",
	ActionSelect:       "select",
	ActionSelectCursor: "select-cursor",
	ActionPagePrev:     "page-prev",
	ActionPageNext:     "page-next",
	ActionCursorPrev:   "cursor-prev",
	ActionCursorNext:   "cursor-next",
	ActionChar:         "char",
}

func (k ActionKind) String() string {
	if k >= 0 && int(k) < len(actionNames) {
		return actionNames[k]
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Action is one classified key event.
//
// Char carries the printable character produced by the key, if any. Page
// and cursor keys such as '-' and '=' carry their character so that they can
// fall back to punctuation when no candidates are shown.
type Action struct {
	Kind   ActionKind
	Digit  int
	Index  int
	Char   rune
	KeyPad bool
}

func (a Action) String() string {
	switch a.Kind {
	case ActionDigit:
		return fmt.Sprintf("digit(%d)", a.Digit)
	case ActionSelect:
		return fmt.Sprintf("select(%d)", a.Index)
	case ActionChar:
		return fmt.Sprintf("char(%q)", a.Char)
	}
	return a.Kind.String()
}

// Digit returns a digit action.
func Digit(d int) Action {
	return Action{Kind: ActionDigit, Digit: d, Char: rune('0' + d)}
}

// KeyPadDigit returns a digit action from the numeric keypad.
func KeyPadDigit(d int) Action {
	a := Digit(d)
	a.KeyPad = true
	return a
}

// Select returns an action selecting slot i.
func Select(i int) Action {
	return Action{Kind: ActionSelect, Index: i}
}

// Char returns a printable character action.
func Char(c rune) Action {
	return Action{Kind: ActionChar, Char: c}
}

// Key returns an action of the given kind with no character.
func Key(kind ActionKind) Action {
	return Action{Kind: kind}
}
