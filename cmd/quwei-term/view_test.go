package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quwei/internal/app"
	"quwei/internal/config"
	"quwei/internal/ime"
	"quwei/internal/logging"
	"quwei/internal/quwei"
)

func TestKeysym(t *testing.T) {
	tests := []struct {
		name   string
		key    tcell.Key
		r      rune
		mod    tcell.ModMask
		keyval uint32
		state  uint32
		ok     bool
	}{
		{"digit", tcell.KeyRune, '1', 0, '1', 0, true},
		{"shifted paren", tcell.KeyRune, '(', tcell.ModShift, '(', ime.ShiftMask, true},
		{"alt letter", tcell.KeyRune, 'x', tcell.ModAlt, 'x', ime.Mod1Mask, true},
		{"hanzi", tcell.KeyRune, '啊', 0, 0x0100554a, 0, true},
		{"backspace", tcell.KeyBackspace2, 0, 0, ime.KeyBackSpace, 0, true},
		{"enter", tcell.KeyEnter, 0, 0, ime.KeyReturn, 0, true},
		{"page down", tcell.KeyPgDn, 0, 0, ime.KeyPageDown, 0, true},
		{"ctrl-a", tcell.KeyCtrlA, 0, tcell.ModCtrl, 0, ime.ControlMask, false},
		{"F1", tcell.KeyF1, 0, 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyval, state, ok := keysym(tt.key, tt.r, tt.mod)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.state, state)
			if tt.ok {
				assert.Equal(t, tt.keyval, keyval)
			}
		})
	}
}

func TestViewCommitAndCaret(t *testing.T) {
	v := &view{}
	v.CommitString("ab")
	v.CommitString("（）")
	v.ForwardCursorLeft(1)
	v.CommitString("x")
	assert.Equal(t, "ab（x）", string(v.text))
	assert.Equal(t, 4, v.caret)

	v.ForwardCursorLeft(10)
	assert.Equal(t, 0, v.caret)
}

func TestViewPassThrough(t *testing.T) {
	v := &view{}
	v.passThrough(tcell.KeyRune, 'a')
	v.passThrough(tcell.KeyRune, 'b')
	v.passThrough(tcell.KeyLeft, 0)
	v.passThrough(tcell.KeyBackspace2, 0)
	assert.Equal(t, "b", string(v.text))
	assert.Equal(t, 0, v.caret)

	v.passThrough(tcell.KeyRight, 0)
	v.passThrough(tcell.KeyEnter, 0)
	assert.Equal(t, "b\n", string(v.text))
}

func TestCandidateLine(t *testing.T) {
	d := ime.Display{Candidates: []quwei.Candidate{
		{Label: "1", Text: "啊"},
		{Label: "2", Text: ""},
	}}
	line, spans := candidateLine(d)
	assert.Equal(t, "1.啊  2.□", line)
	require.Len(t, spans, 2)
	assert.Equal(t, [2]int{0, 4}, spans[0])
	assert.Equal(t, 6, spans[1][0])
}

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "160  ▶", statusLine(ime.Display{Preedit: "160", Paged: true, HasNext: true}))
	assert.Equal(t, "[快速输入] pi", statusLine(ime.Display{Aux: "快速输入", Preedit: "pi"}))
}

func TestTypingThroughEngine(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.QuickPhrase.PhrasePath = ""
	a, err := app.New(cfg, logging.Discard())
	require.NoError(t, err)

	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	defer screen.Fini()
	screen.SetSize(80, 24)

	v := &view{}
	for _, r := range "160" {
		keyval, state, _ := keysym(tcell.KeyRune, r, 0)
		require.True(t, a.Engine.HandleKey(session, v, keyval, state))
	}
	v.render(screen)
	assert.True(t, v.display.Paged)
	assert.Equal(t, "啊", v.display.Candidates[0].Text)

	keyval, state, _ := keysym(tcell.KeyPgDn, 0, 0)
	require.True(t, a.Engine.HandleKey(session, v, keyval, state))
	assert.Equal(t, "161", v.display.Preedit)

	keyval, state, _ = keysym(tcell.KeyRune, ' ', 0)
	require.True(t, a.Engine.HandleKey(session, v, keyval, state))
	assert.Equal(t, "矮", string(v.text))
	v.render(screen)
}
