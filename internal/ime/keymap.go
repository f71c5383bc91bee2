package ime

import (
	"fmt"
	"unicode/utf8"

	"quwei/internal/config"
)

// GDK keysyms used by the classifier.
const (
	KeyBackSpace   uint32 = 0xff08
	KeyTab         uint32 = 0xff09
	KeyReturn      uint32 = 0xff0d
	KeyEscape      uint32 = 0xff1b
	KeyHome        uint32 = 0xff50
	KeyLeft        uint32 = 0xff51
	KeyUp          uint32 = 0xff52
	KeyRight       uint32 = 0xff53
	KeyDown        uint32 = 0xff54
	KeyPageUp      uint32 = 0xff55
	KeyPageDown    uint32 = 0xff56
	KeyEnd         uint32 = 0xff57
	KeyKPEnter     uint32 = 0xff8d
	KeyKPLeft      uint32 = 0xff96
	KeyKPUp        uint32 = 0xff97
	KeyKPRight     uint32 = 0xff98
	KeyKPDown      uint32 = 0xff99
	KeyKPPageUp    uint32 = 0xff9a
	KeyKPPageDown  uint32 = 0xff9b
	KeyKPMultiply  uint32 = 0xffaa
	KeyKPDivide    uint32 = 0xffaf
	KeyKP0         uint32 = 0xffb0
	KeyKP9         uint32 = 0xffb9
	KeyISOLeftTab  uint32 = 0xfe20
	KeySpace       uint32 = 0x20
	keyUnicodeBase uint32 = 0x01000000
)

// Modifier masks of the IBus/GDK key state.
const (
	ShiftMask   uint32 = 1 << 0
	LockMask    uint32 = 1 << 1
	ControlMask uint32 = 1 << 2
	Mod1Mask    uint32 = 1 << 3 // Alt
	Mod4Mask    uint32 = 1 << 6 // Super
	ReleaseMask uint32 = 1 << 30
)

// Modifiers that turn a key into a shortcut the engine leaves alone.
const chordMask = ControlMask | Mod1Mask | Mod4Mask

var keysymNames = map[string]uint32{
	"BackSpace":    KeyBackSpace,
	"Tab":          KeyTab,
	"ISO_Left_Tab": KeyISOLeftTab,
	"Return":       KeyReturn,
	"KP_Enter":     KeyKPEnter,
	"Escape":       KeyEscape,
	"space":        KeySpace,
	"Home":         KeyHome,
	"End":          KeyEnd,
	"Page_Up":      KeyPageUp,
	"Page_Down":    KeyPageDown,
	"KP_Page_Up":   KeyKPPageUp,
	"KP_Page_Down": KeyKPPageDown,
	"Up":           KeyUp,
	"Down":         KeyDown,
	"Left":         KeyLeft,
	"Right":        KeyRight,
	"KP_Up":        KeyKPUp,
	"KP_Down":      KeyKPDown,
	"KP_Left":      KeyKPLeft,
	"KP_Right":     KeyKPRight,
	"minus":        '-',
	"equal":        '=',
	"comma":        ',',
	"period":       '.',
	"bracketleft":  '[',
	"bracketright": ']',
	"semicolon":    ';',
	"apostrophe":   '\'',
	"slash":        '/',
	"backslash":    '\\',
	"grave":        '`',
}

// KeysymByName resolves a key name from the configuration file. Besides the
// X11 names above, any single printable character names itself.
func KeysymByName(name string) (uint32, bool) {
	if ks, ok := keysymNames[name]; ok {
		return ks, true
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		if r > 0x20 && r < 0x7f {
			return uint32(r), true
		}
		if r >= 0x100 {
			return keyUnicodeBase + uint32(r), true
		}
	}
	return 0, false
}

// KeyMap classifies keysyms into actions using the configured bindings.
type KeyMap struct {
	bindings        map[uint32]ActionKind
	selectWithSpace bool
}

// NewKeyMap builds a KeyMap from the [keys] configuration section.
func NewKeyMap(k config.KeysConfig, selectWithSpace bool) (*KeyMap, error) {
	m := &KeyMap{
		bindings:        make(map[uint32]ActionKind),
		selectWithSpace: selectWithSpace,
	}

	groups := []struct {
		kind  ActionKind
		names []string
	}{
		{ActionPagePrev, k.PrevPage},
		{ActionPageNext, k.NextPage},
		{ActionCursorPrev, k.PrevCandidate},
		{ActionCursorNext, k.NextCandidate},
	}
	for _, g := range groups {
		for _, name := range g.names {
			ks, ok := KeysymByName(name)
			if !ok {
				return nil, fmt.Errorf("unknown key name %q", name)
			}
			m.bindings[ks] = g.kind
		}
	}
	return m, nil
}

// DefaultKeyMap returns the KeyMap of the default configuration.
func DefaultKeyMap() *KeyMap {
	cfg := config.DefaultConfig()
	m, err := NewKeyMap(cfg.Keys, cfg.Engine.SelectWithSpace)
	if err != nil {
		panic(err)
	}
	return m
}

// Classify turns a key event into an action. It returns false for key
// releases and for Control, Alt or Super chords, which the engine never
// consumes.
func (m *KeyMap) Classify(keyval, state uint32) (Action, bool) {
	if state&ReleaseMask != 0 || state&chordMask != 0 {
		return Action{}, false
	}

	switch keyval {
	case KeyBackSpace:
		return Key(ActionBackspace), true
	case KeyReturn, KeyKPEnter:
		return Key(ActionEnter), true
	case KeyEscape:
		return Key(ActionEscape), true
	}

	if keyval >= KeyKP0 && keyval <= KeyKP9 {
		return KeyPadDigit(int(keyval - KeyKP0)), true
	}
	if keyval >= '0' && keyval <= '9' {
		return Digit(int(keyval - '0')), true
	}

	if kind, ok := m.bindings[keyval]; ok {
		return Action{Kind: kind, Char: keyvalToRune(keyval)}, true
	}

	if keyval == KeySpace && m.selectWithSpace {
		return Action{Kind: ActionSelectCursor, Char: ' '}, true
	}

	if keyval >= KeyKPMultiply && keyval <= KeyKPDivide {
		return Action{
			Kind:   ActionChar,
			Char:   rune("*+,-./"[keyval-KeyKPMultiply]),
			KeyPad: true,
		}, true
	}

	if r := keyvalToRune(keyval); r != 0 {
		return Char(r), true
	}
	return Key(ActionNone), true
}

// keyvalToRune converts a printable keysym to its character.
func keyvalToRune(keyval uint32) rune {
	switch {
	case keyval >= 0x20 && keyval <= 0x7e:
		return rune(keyval)
	case keyval >= 0xa0 && keyval <= 0xff:
		return rune(keyval)
	case keyval >= keyUnicodeBase && keyval <= keyUnicodeBase+utf8.MaxRune:
		return rune(keyval - keyUnicodeBase)
	}
	return 0
}

// KeysymForRune is the inverse of the printable keysym mapping. Frontends
// without X11 keysyms use it to feed characters through Classify.
func KeysymForRune(r rune) uint32 {
	if (r >= 0x20 && r <= 0x7e) || (r >= 0xa0 && r <= 0xff) {
		return uint32(r)
	}
	return keyUnicodeBase + uint32(r)
}
