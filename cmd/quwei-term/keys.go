package main

import (
	"github.com/gdamore/tcell/v2"

	"quwei/internal/ime"
)

var namedKeys = map[tcell.Key]uint32{
	tcell.KeyBackspace:  ime.KeyBackSpace,
	tcell.KeyBackspace2: ime.KeyBackSpace,
	tcell.KeyEnter:      ime.KeyReturn,
	tcell.KeyEscape:     ime.KeyEscape,
	tcell.KeyTab:        ime.KeyTab,
	tcell.KeyBacktab:    ime.KeyISOLeftTab,
	tcell.KeyUp:         ime.KeyUp,
	tcell.KeyDown:       ime.KeyDown,
	tcell.KeyLeft:       ime.KeyLeft,
	tcell.KeyRight:      ime.KeyRight,
	tcell.KeyPgUp:       ime.KeyPageUp,
	tcell.KeyPgDn:       ime.KeyPageDown,
	tcell.KeyHome:       ime.KeyHome,
	tcell.KeyEnd:        ime.KeyEnd,
}

// keysym translates a terminal key into the keysym and modifier state the
// engine's key map understands.
func keysym(key tcell.Key, r rune, mod tcell.ModMask) (keyval, state uint32, ok bool) {
	if mod&tcell.ModShift != 0 {
		state |= ime.ShiftMask
	}
	if mod&tcell.ModCtrl != 0 {
		state |= ime.ControlMask
	}
	if mod&tcell.ModAlt != 0 {
		state |= ime.Mod1Mask
	}
	if mod&tcell.ModMeta != 0 {
		state |= ime.Mod4Mask
	}

	if key == tcell.KeyRune {
		return ime.KeysymForRune(r), state, true
	}
	keyval, ok = namedKeys[key]
	return keyval, state, ok
}
