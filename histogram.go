// SPDX-License-Identifier: GPL-3.0-or-later

package telemetry

import "sync/atomic"

// histogramBuckets are the upper bounds, in milliseconds, shared by
// response_latency_ms and tcp_connection_duration_ms (spec.md §4.3). The
// +Inf bucket is implicit: its count always equals the series' total
// count, so [writeSeries] renders it from that count without a bucket slot.
var histogramBuckets = []float64{
	1, 2, 3, 4, 5, 10, 20, 30, 40, 50, 100, 200, 300, 400, 500,
	1000, 2000, 3000, 4000, 5000, 10000, 20000, 30000, 40000, 50000,
}

// histogram is a fixed cumulative bucket vector plus a total count and
// sum, matching the MetricPoint contract of spec.md §3: bucket counts are
// non-decreasing in bound order, and count equals the +Inf bucket's count.
type histogram struct {
	buckets []atomic.Uint64
	count   atomic.Uint64
	sumBits atomic.Uint64 // sum of observed values in milliseconds, truncated to an integer accumulator
}

func newHistogram() *histogram {
	return &histogram{buckets: make([]atomic.Uint64, len(histogramBuckets))}
}

// observe records one sample, incrementing every bucket whose upper bound
// is greater than or equal to valueMs (spec.md §4.3 cumulative semantics).
func (h *histogram) observe(valueMs float64) {
	for i, bound := range histogramBuckets {
		if valueMs <= bound {
			h.buckets[i].Add(1)
		}
	}
	h.count.Add(1)
	h.sumBits.Add(uint64(valueMs))
}

// snapshot is a consistent-enough-for-scrape read of the histogram's
// current state. Individual atomics may be read at slightly different
// instants under concurrent observation, which is acceptable per spec.md
// §4.3's "readers... do not require cross-family atomicity".
type histogramSnapshot struct {
	bucketCounts []uint64
	count        uint64
	sum          uint64
}

func (h *histogram) snapshot() histogramSnapshot {
	counts := make([]uint64, len(h.buckets))
	for i := range h.buckets {
		counts[i] = h.buckets[i].Load()
	}
	return histogramSnapshot{
		bucketCounts: counts,
		count:        h.count.Load(),
		sum:          h.sumBits.Load(),
	}
}
