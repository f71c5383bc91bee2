package ime

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quwei/internal/config"
	"quwei/internal/logging"
	"quwei/internal/metrics"
	"quwei/internal/punctuation"
	"quwei/internal/quwei"
	"quwei/internal/store"
)

type fakeHistory struct {
	commits []store.Commit
	err     error
}

func (h *fakeHistory) InsertCommit(c *store.Commit) (int64, error) {
	if h.err != nil {
		return 0, h.err
	}
	h.commits = append(h.commits, *c)
	return int64(len(h.commits)), nil
}

func newTestEngine(t *testing.T, cfg *config.Config, opts Options) *Engine {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	opts.Config = cfg
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	e, err := NewEngine(opts)
	require.NoError(t, err)
	return e
}

func pressKeys(e *Engine, session string, h Host, keys ...uint32) {
	for _, k := range keys {
		e.HandleKey(session, h, k, 0)
	}
}

func TestEngineTypesAndCommits(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	h := &fakeHost{}

	pressKeys(e, "ctx", h, '1', '6', '0')
	assert.Equal(t, "160", h.last().Preedit)

	assert.True(t, e.HandleKey("ctx", h, '1', 0))
	assert.Equal(t, []string{"啊"}, h.commits)
	assert.True(t, h.last().Empty())
}

func TestEngineKeyReleaseNotConsumed(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	h := &fakeHost{}

	assert.False(t, e.HandleKey("ctx", h, '1', ReleaseMask))
	assert.Equal(t, 0, e.Registry().Len(), "unclassified keys do not attach a session")
}

func TestEngineSessionsAreIsolated(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	h1, h2 := &fakeHost{}, &fakeHost{}

	pressKeys(e, "one", h1, '1', '6')
	pressKeys(e, "two", h2, '0', '1', '0', '2')

	assert.Equal(t, "16", h1.last().Preedit)
	assert.Equal(t, []string{"、"}, h2.commits)
	assert.Equal(t, []string{"one", "two"}, e.Registry().IDs())
}

func TestEngineRecordsHistory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.History.Enabled = true
	hist := &fakeHistory{}
	e := newTestEngine(t, cfg, Options{
		History:    hist,
		Punctuator: punctuation.NewService(punctuation.DefaultTable()),
	})
	h := &fakeHost{}

	pressKeys(e, "ctx", h, '1', '6', '0', '1')
	pressKeys(e, "ctx", h, ',')
	pressKeys(e, "ctx", h, '1', '6', KeyReturn)

	code := 1601
	want := []store.Commit{
		{SessionID: "ctx", Source: store.SourceCandidate, Code: &code, Text: "啊"},
		{SessionID: "ctx", Source: store.SourcePunctuation, Text: "，"},
		{SessionID: "ctx", Source: store.SourceRaw, Text: "16"},
	}
	if diff := cmp.Diff(want, hist.commits); diff != "" {
		t.Errorf("recorded commits mismatch (-want +got):\n%s", diff)
	}
}

func TestEngineHistoryDisabled(t *testing.T) {
	hist := &fakeHistory{}
	e := newTestEngine(t, nil, Options{History: hist})

	pressKeys(e, "ctx", &fakeHost{}, '1', '6', '0', '1')
	assert.Empty(t, hist.commits)
}

func TestEngineHistoryFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(&logging.Config{Level: logging.LevelInfo, Writer: &buf})
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.History.Enabled = true
	e := newTestEngine(t, cfg, Options{
		History: &fakeHistory{err: errors.New("disk full")},
		Logger:  log,
	})
	h := &fakeHost{}

	pressKeys(e, "ctx", h, '1', '6', '0', '1')
	assert.Equal(t, []string{"啊"}, h.commits, "the commit still reaches the application")
	assert.Contains(t, buf.String(), "record commit failed")
	assert.Contains(t, buf.String(), "disk full")
}

func TestEngineQuickPhraseRouting(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.History.Enabled = true
	hist := &fakeHistory{}
	qp := &fakePhrase{accept: true}
	e := newTestEngine(t, cfg, Options{QuickPhrase: qp, History: hist})
	h := &fakeHost{}

	assert.True(t, e.HandleKey("ctx", h, ';', 0))
	require.Len(t, qp.triggers, 1)

	assert.True(t, e.HandleKey("ctx", h, '1', 0))
	assert.True(t, e.HandleKey("ctx", h, KeySpace, 0))
	require.Len(t, qp.actions, 2)
	assert.Equal(t, Digit(1), qp.actions[0])

	c, _ := e.Registry().Get("ctx")
	assert.Equal(t, StateIdle, c.State(), "keys in quick phrase mode bypass the controller")

	assert.Equal(t, []string{"α"}, h.commits)
	require.Len(t, hist.commits, 1)
	assert.Equal(t, store.SourceQuickPhrase, hist.commits[0].Source)
}

func TestEngineReset(t *testing.T) {
	qp := &fakePhrase{accept: true}
	e := newTestEngine(t, nil, Options{QuickPhrase: qp})
	h := &fakeHost{}

	e.Reset("missing", h)
	assert.Empty(t, h.displays)
	assert.Equal(t, 0, e.Registry().Len())

	pressKeys(e, "ctx", h, '1', '6', '0')
	e.Reset("ctx", h)
	assert.True(t, h.last().Empty())

	c, _ := e.Registry().Get("ctx")
	assert.Equal(t, StateIdle, c.State())

	pressKeys(e, "ctx", h, ';')
	require.True(t, qp.Active("ctx"))
	e.Reset("ctx", h)
	assert.False(t, qp.Active("ctx"))
}

func TestEngineDetach(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	pressKeys(e, "ctx", &fakeHost{}, '1')
	require.Equal(t, 1, e.Registry().Len())

	e.Detach("ctx")
	assert.Equal(t, 0, e.Registry().Len())
	e.Detach("ctx")
}

func TestEngineApplyConfig(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	h := &fakeHost{}

	pressKeys(e, "ctx", h, '0', '1', '9')

	cfg := config.DefaultConfig()
	cfg.Keys.NextPage = []string{"Tab"}
	cfg.Engine.KeepPageOnEmptySelect = true
	require.NoError(t, e.ApplyConfig(cfg))
	assert.Same(t, cfg, e.Config())

	assert.True(t, e.HandleKey("ctx", h, KeyTab, 0))
	assert.Equal(t, "020", h.last().Preedit)

	c, _ := e.Registry().Get("ctx")
	assert.True(t, c.Options().KeepPageOnEmptySelect, "existing sessions pick up new options")

	bad := config.DefaultConfig()
	bad.Keys.NextPage = []string{"Bogus_Key"}
	assert.Error(t, e.ApplyConfig(bad))
	assert.Same(t, cfg, e.Config(), "a rejected config is not applied")
}

func TestEngineLookup(t *testing.T) {
	e := newTestEngine(t, nil, Options{})

	page, err := e.Lookup(160)
	require.NoError(t, err)
	assert.Equal(t, 160, page.Code)
	assert.Equal(t, "啊", page.Candidates[0].Text)
	assert.Equal(t, 1601, page.Candidates[0].SubCode)

	for _, code := range []int{-1, quwei.MaxPageCode + 1} {
		_, err := e.Lookup(code)
		assert.ErrorIs(t, err, ErrCodeOutOfRange)
	}
}

func TestEngineRejectsBadKeys(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Keys.PrevPage = []string{"Nope"}
	_, err := NewEngine(Options{Config: cfg, Logger: logging.Discard()})
	assert.Error(t, err)
}

func TestEnginePunctuationAlternatesPerSession(t *testing.T) {
	svc := punctuation.NewService(punctuation.DefaultTable())
	e := newTestEngine(t, nil, Options{Punctuator: svc})
	h := &fakeHost{}

	pressKeys(e, "a", h, '"')
	pressKeys(e, "b", h, '"')
	pressKeys(e, "a", h, '"')
	assert.Equal(t, []string{"“", "“", "”"}, h.commits)

	e.Detach("a")
	pressKeys(e, "a", h, '"')
	assert.Equal(t, "“", h.commits[3], "detach forgets alternation state")
}

func TestEngineMetrics(t *testing.T) {
	reg := metrics.NewRegistry("quwei")
	e := newTestEngine(t, nil, Options{Metrics: metrics.NewEngine(reg)})
	h := &fakeHost{}

	pressKeys(e, "a", h, '1', '6', '0', '1')
	e.HandleKey("a", h, 0xffbe, 0) // F1 while idle
	e.HandleKey("b", h, 'x', ControlMask)

	bad := config.DefaultConfig()
	bad.Keys.PrevPage = []string{"nope"}
	require.Error(t, e.ApplyConfig(bad))

	var b strings.Builder
	require.NoError(t, reg.WritePrometheus(&b))
	out := b.String()
	assert.Contains(t, out, `quwei_keys_total{result="handled"} 4`)
	assert.Contains(t, out, `quwei_keys_total{result="passed"} 2`)
	assert.Contains(t, out, `quwei_commits_total{source="candidate"} 1`)
	assert.Contains(t, out, "quwei_sessions 1")
	assert.Contains(t, out, `quwei_config_reloads_total{result="error"} 1`)

	e.Detach("a")
	b.Reset()
	require.NoError(t, reg.WritePrometheus(&b))
	assert.Contains(t, b.String(), "quwei_sessions 0")
}
