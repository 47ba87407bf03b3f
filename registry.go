// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on the atomic-counter, hand-rolled-exposition-line shape of
// other_examples/0c3cf40e_bobbydeveaux-starbucks-mugs__agent-internal-transport-metrics.go.go,
// generalized from a fixed set of named fields to a keyed map of families.
//

package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricKind identifies which of the three Prometheus metric types a
// family holds.
type MetricKind string

// The three metric kinds the Registry supports, matching spec.md §3.
const (
	KindCounter   MetricKind = "counter"
	KindGauge     MetricKind = "gauge"
	KindHistogram MetricKind = "histogram"
)

// seriesKey identifies one fully-materialized label tuple within a family.
type seriesKey struct {
	family string
	labels string
}

// series is one MetricPoint: depending on kind, either counter or gauge is
// live, or hist is non-nil.
type series struct {
	name    string
	labels  LabelSet
	kind    MetricKind
	counter atomic.Uint64
	gauge   atomic.Int64
	hist    *histogram
}

// family groups every series registered under one metric name, in
// first-seen order, so the Scrape Serializer can emit a single `# TYPE`
// line followed by every label-tuple line for that family.
type family struct {
	kind   MetricKind
	series []*series
}

// Registry is the concurrency-safe store of counters, gauges, and
// histograms the Observation Bus records into. Families and series are
// created lazily on first observation and never removed during process
// lifetime (spec.md §3). Entry-creation races are resolved so exactly one
// series survives per (family, labels) pair; no increment is lost (spec.md
// §5 "last-writer-discards-duplicate").
type Registry struct {
	mu           sync.Mutex
	index        map[seriesKey]*series
	order        []string // family names, first-seen order
	families     map[string]*family
	processStart time.Time
}

// NewRegistry returns an empty [*Registry]. processStart is recorded for
// the process_start_time_seconds gauge the Scrape Serializer always emits.
func NewRegistry(processStart time.Time) *Registry {
	return &Registry{
		index:        make(map[seriesKey]*series),
		families:     make(map[string]*family),
		processStart: processStart,
	}
}

// getOrCreate returns the series for (name, labels), creating it (and its
// family, if new) on first observation.
func (r *Registry) getOrCreate(name string, kind MetricKind, labels LabelSet) *series {
	key := seriesKey{family: name, labels: labels.Serialize()}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.index[key]; ok {
		return s
	}

	s := &series{name: name, labels: labels, kind: kind}
	if kind == KindHistogram {
		s.hist = newHistogram()
	}
	r.index[key] = s

	f, ok := r.families[name]
	if !ok {
		f = &family{kind: kind}
		r.families[name] = f
		r.order = append(r.order, name)
	}
	f.series = append(f.series, s)

	return s
}

// ObserveCounter atomically adds delta to the counter identified by
// (name, labels), creating it at zero on first observation.
func (r *Registry) ObserveCounter(name string, labels LabelSet, delta uint64) {
	r.getOrCreate(name, KindCounter, labels).counter.Add(delta)
}

// ObserveGauge atomically adjusts the gauge identified by (name, labels)
// by delta, which may be negative. Callers must never drive a gauge below
// zero; the Registry does not guard against it (spec.md §4.3: "a
// programmer error, not a runtime recovery case").
func (r *Registry) ObserveGauge(name string, labels LabelSet, delta int64) {
	r.getOrCreate(name, KindGauge, labels).gauge.Add(delta)
}

// ObserveHistogram records one sample of valueMs into the histogram
// identified by (name, labels).
func (r *Registry) ObserveHistogram(name string, labels LabelSet, valueMs float64) {
	r.getOrCreate(name, KindHistogram, labels).hist.observe(valueMs)
}

// counterValue returns the current value of a counter series and true, or
// 0 and false if no counter series exists for (name, labels).
func (r *Registry) counterValue(name string, labels LabelSet) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.index[seriesKey{family: name, labels: labels.Serialize()}]
	if !ok || s.kind != KindCounter {
		return 0, false
	}
	return s.counter.Load(), true
}
