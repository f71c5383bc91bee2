package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelsString(t *testing.T) {
	tests := []struct {
		labels Labels
		want   string
	}{
		{nil, ""},
		{Labels{"source": "raw"}, `{source="raw"}`},
		{Labels{"b": "2", "a": "1"}, `{a="1",b="2"}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.labels.String())
	}
}

func TestRegistrySeries(t *testing.T) {
	r := NewRegistry("quwei")
	raw := r.Counter("commits_total", "help", Labels{"source": "raw"})
	cand := r.Counter("commits_total", "help", Labels{"source": "candidate"})
	require.NotSame(t, raw, cand)
	assert.Same(t, raw, r.Counter("commits_total", "help", Labels{"source": "raw"}))

	raw.Inc()
	cand.Add(3)

	var b strings.Builder
	require.NoError(t, r.WritePrometheus(&b))
	want := `# HELP quwei_commits_total help
# TYPE quwei_commits_total counter
quwei_commits_total{source="candidate"} 3
quwei_commits_total{source="raw"} 1
`
	assert.Equal(t, want, b.String())
}

func TestRegistryKindMismatchPanics(t *testing.T) {
	r := NewRegistry("")
	r.Counter("x", "", nil)
	assert.Panics(t, func() { r.Gauge("x", "", nil) })
}

func TestHistogram(t *testing.T) {
	r := NewRegistry("")
	h := r.Histogram("d", "durations", nil, []float64{1, 0.25})
	h.Observe(0.125)
	h.Observe(0.25)
	h.Observe(0.5)
	h.Observe(3)
	assert.Equal(t, uint64(4), h.Count())

	var b strings.Builder
	require.NoError(t, r.WritePrometheus(&b))
	out := b.String()
	assert.Contains(t, out, `d_bucket{le="0.25"} 2`)
	assert.Contains(t, out, `d_bucket{le="1"} 3`)
	assert.Contains(t, out, `d_bucket{le="+Inf"} 4`)
	assert.Contains(t, out, "d_sum 3.875")
	assert.Contains(t, out, "d_count 4")
}

func TestGauge(t *testing.T) {
	g := NewRegistry("").Gauge("g", "", nil)
	g.Inc()
	g.Inc()
	g.Dec()
	assert.Equal(t, int64(1), g.Value())
	g.Set(7)
	assert.Equal(t, int64(7), g.Value())
}

func TestEngineMetrics(t *testing.T) {
	r := NewRegistry("quwei")
	m := NewEngine(r)
	m.Key(true, time.Microsecond)
	m.Key(true, time.Microsecond)
	m.Key(false, time.Microsecond)
	m.Commit("candidate")
	m.SetSessions(2)
	m.Reload(nil)
	m.Reload(errors.New("bad"))

	rec := httptest.NewRecorder()
	r.HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	out := rec.Body.String()

	assert.Contains(t, out, `quwei_keys_total{result="handled"} 2`)
	assert.Contains(t, out, `quwei_keys_total{result="passed"} 1`)
	assert.Contains(t, out, `quwei_commits_total{source="candidate"} 1`)
	assert.Contains(t, out, "quwei_sessions 2")
	assert.Contains(t, out, "quwei_key_duration_seconds_count 3")
	assert.Contains(t, out, `quwei_config_reloads_total{result="error"} 1`)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestNilEngine(t *testing.T) {
	var m *Engine
	m.Key(true, time.Second)
	m.Commit("raw")
	m.SetSessions(1)
	m.Reload(nil)
	assert.Nil(t, m.Registry())
}
