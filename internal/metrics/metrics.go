// Package metrics provides Prometheus-compatible metrics for quwei.
//
// Metrics are identified by name plus label set, so one name can carry
// several series (commits_total{source="raw"}, commits_total{source="candidate"}).
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Labels are metric labels.
type Labels map[string]string

// String renders labels in exposition order: {a="1",b="2"}.
func (l Labels) String() string {
	if len(l) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(l))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, l[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Counter is a monotonically increasing counter.
type Counter struct {
	value atomic.Uint64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add adds v to the counter.
func (c *Counter) Add(v uint64) { c.value.Add(v) }

// Value returns the current value.
func (c *Counter) Value() uint64 { return c.value.Load() }

// Gauge is a value that can go up and down.
type Gauge struct {
	value atomic.Int64
}

func (g *Gauge) Set(v int64)  { g.value.Store(v) }
func (g *Gauge) Inc()         { g.value.Add(1) }
func (g *Gauge) Dec()         { g.value.Add(-1) }
func (g *Gauge) Value() int64 { return g.value.Load() }

// LatencyBuckets suit per-keystroke processing times, in seconds.
var LatencyBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05,
}

// Histogram counts observations into cumulative buckets.
type Histogram struct {
	buckets []float64

	mu     sync.Mutex
	counts []uint64 // per bucket, last is +Inf
	sum    float64
	count  uint64
}

func newHistogram(buckets []float64) *Histogram {
	if buckets == nil {
		buckets = LatencyBuckets
	}
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	return &Histogram{buckets: sorted, counts: make([]uint64, len(sorted)+1)}
}

// Observe records v.
func (h *Histogram) Observe(v float64) {
	i := sort.SearchFloat64s(h.buckets, v)
	h.mu.Lock()
	h.counts[i]++
	h.sum += v
	h.count++
	h.mu.Unlock()
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) { h.Observe(d.Seconds()) }

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

type kind int

const (
	kindCounter kind = iota
	kindGauge
	kindHistogram
)

func (k kind) String() string {
	return [...]string{"counter", "gauge", "histogram"}[k]
}

type series struct {
	labels    Labels
	counter   *Counter
	gauge     *Gauge
	histogram *Histogram
}

type family struct {
	name   string
	help   string
	kind   kind
	series map[string]*series
}

// Registry holds metric families under a common namespace.
type Registry struct {
	namespace string

	mu       sync.Mutex
	families map[string]*family
}

// NewRegistry returns an empty registry. namespace prefixes every name.
func NewRegistry(namespace string) *Registry {
	return &Registry{namespace: namespace, families: make(map[string]*family)}
}

func (r *Registry) fullName(name string) string {
	if r.namespace == "" {
		return name
	}
	return r.namespace + "_" + name
}

func (r *Registry) get(name, help string, k kind, labels Labels, buckets []float64) *series {
	full := r.fullName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.families[full]
	if !ok {
		f = &family{name: full, help: help, kind: k, series: make(map[string]*series)}
		r.families[full] = f
	}
	if f.kind != k {
		panic(fmt.Sprintf("metrics: %s registered as %s, requested as %s", full, f.kind, k))
	}

	key := labels.String()
	s, ok := f.series[key]
	if !ok {
		s = &series{labels: labels}
		switch k {
		case kindCounter:
			s.counter = &Counter{}
		case kindGauge:
			s.gauge = &Gauge{}
		case kindHistogram:
			s.histogram = newHistogram(buckets)
		}
		f.series[key] = s
	}
	return s
}

// Counter returns the counter name{labels}, creating it on first use.
func (r *Registry) Counter(name, help string, labels Labels) *Counter {
	return r.get(name, help, kindCounter, labels, nil).counter
}

// Gauge returns the gauge name{labels}, creating it on first use.
func (r *Registry) Gauge(name, help string, labels Labels) *Gauge {
	return r.get(name, help, kindGauge, labels, nil).gauge
}

// Histogram returns the histogram name{labels}. buckets only apply when
// the series is created.
func (r *Registry) Histogram(name, help string, labels Labels, buckets []float64) *Histogram {
	return r.get(name, help, kindHistogram, labels, buckets).histogram
}

// WritePrometheus writes every family in the text exposition format,
// sorted by name and label set.
func (r *Registry) WritePrometheus(w io.Writer) error {
	r.mu.Lock()
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		r.mu.Lock()
		f := r.families[name]
		keys := make([]string, 0, len(f.series))
		for k := range f.series {
			keys = append(keys, k)
		}
		r.mu.Unlock()
		sort.Strings(keys)

		fmt.Fprintf(&b, "# HELP %s %s\n", f.name, f.help)
		fmt.Fprintf(&b, "# TYPE %s %s\n", f.name, f.kind)
		for _, k := range keys {
			r.mu.Lock()
			s := f.series[k]
			r.mu.Unlock()
			writeSeries(&b, f, s)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSeries(b *strings.Builder, f *family, s *series) {
	labels := s.labels.String()
	switch f.kind {
	case kindCounter:
		fmt.Fprintf(b, "%s%s %d\n", f.name, labels, s.counter.Value())
	case kindGauge:
		fmt.Fprintf(b, "%s%s %d\n", f.name, labels, s.gauge.Value())
	case kindHistogram:
		h := s.histogram
		h.mu.Lock()
		defer h.mu.Unlock()

		prefix := "{"
		if labels != "" {
			prefix = labels[:len(labels)-1] + ","
		}
		var cumulative uint64
		for i, le := range h.buckets {
			cumulative += h.counts[i]
			fmt.Fprintf(b, "%s_bucket%sle=\"%g\"} %d\n", f.name, prefix, le, cumulative)
		}
		cumulative += h.counts[len(h.buckets)]
		fmt.Fprintf(b, "%s_bucket%sle=\"+Inf\"} %d\n", f.name, prefix, cumulative)
		fmt.Fprintf(b, "%s_sum%s %g\n", f.name, labels, h.sum)
		fmt.Fprintf(b, "%s_count%s %d\n", f.name, labels, h.count)
	}
}

// HTTPHandler serves the registry in the Prometheus text format.
func (r *Registry) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		r.WritePrometheus(w)
	})
}
