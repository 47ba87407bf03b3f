// SPDX-License-Identifier: GPL-3.0-or-later
//
// gzip pooling modeled on github.com/prometheus/client_golang's promhttp
// package (not imported — see DESIGN.md for why its fixed-label-name Desc
// model cannot express this package's label-key elision).
//

package telemetry

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// ContentType is the Prometheus 0.0.4 text exposition format content type
// every scrape response carries (spec.md §4.4).
const ContentType = "text/plain; version=0.0.4"

var gzipWriterPool = sync.Pool{
	New: func() any { return gzip.NewWriter(nil) },
}

// AcceptsGzip reports whether an Accept-Encoding header value permits a
// gzip-encoded response: the token "gzip" appears anywhere in the
// comma-separated list, case-insensitively (spec.md §4.4).
func AcceptsGzip(acceptEncoding string) bool {
	for _, token := range strings.Split(acceptEncoding, ",") {
		if strings.EqualFold(strings.TrimSpace(token), "gzip") {
			return true
		}
	}
	return false
}

// Render produces a full Prometheus text exposition snapshot of the
// registry, gzip-compressed when acceptEncoding permits it. It returns the
// body and, when compressed, the Content-Encoding value to send alongside
// [ContentType].
func (r *Registry) Render(acceptEncoding string) (body []byte, contentEncoding string, err error) {
	var buf bytes.Buffer
	r.writeTo(&buf)

	if !AcceptsGzip(acceptEncoding) {
		return buf.Bytes(), "", nil
	}

	gz := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(gz)

	var compressed bytes.Buffer
	gz.Reset(&compressed)
	if _, err := gz.Write(buf.Bytes()); err != nil {
		return nil, "", fmt.Errorf("telemetry: compressing scrape response: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, "", fmt.Errorf("telemetry: closing gzip writer: %w", err)
	}
	return compressed.Bytes(), "gzip", nil
}

// writeTo renders every family in first-seen order, followed by the
// process_start_time_seconds gauge.
func (r *Registry) writeTo(buf *bytes.Buffer) {
	r.mu.Lock()
	order := append([]string(nil), r.order...)
	families := make(map[string]*family, len(r.families))
	for name, f := range r.families {
		families[name] = &family{kind: f.kind, series: append([]*series(nil), f.series...)}
	}
	processStart := r.processStart
	r.mu.Unlock()

	for _, name := range order {
		f := families[name]
		fmt.Fprintf(buf, "# TYPE %s %s\n", name, f.kind)
		for _, s := range f.series {
			writeSeries(buf, s)
		}
	}

	fmt.Fprintf(buf, "# TYPE process_start_time_seconds gauge\n")
	fmt.Fprintf(buf, "process_start_time_seconds %d\n", processStart.Unix())
}

func writeSeries(buf *bytes.Buffer, s *series) {
	switch s.kind {
	case KindCounter:
		writeLine(buf, s.name, s.labels, strconv.FormatUint(s.counter.Load(), 10))
	case KindGauge:
		writeLine(buf, s.name, s.labels, strconv.FormatInt(s.gauge.Load(), 10))
	case KindHistogram:
		snap := s.hist.snapshot()
		for i, bound := range histogramBuckets {
			writeLine(buf, s.name+"_bucket", s.labels.With("le", bucketLabel(bound)), strconv.FormatUint(snap.bucketCounts[i], 10))
		}
		writeLine(buf, s.name+"_bucket", s.labels.With("le", "+Inf"), strconv.FormatUint(snap.count, 10))
		writeLine(buf, s.name+"_count", s.labels, strconv.FormatUint(snap.count, 10))
		writeLine(buf, s.name+"_sum", s.labels, strconv.FormatUint(snap.sum, 10))
	}
}

func writeLine(buf *bytes.Buffer, name string, labels LabelSet, value string) {
	serialized := labels.Serialize()
	if serialized == "" {
		fmt.Fprintf(buf, "%s %s\n", name, value)
		return
	}
	fmt.Fprintf(buf, "%s{%s} %s\n", name, serialized, value)
}

// ScrapeHandler is an [http.Handler] implementing the /metrics endpoint
// (spec.md §6): GET only, no authentication, gzip negotiation per
// Accept-Encoding.
type ScrapeHandler struct {
	Registry *Registry
}

// NewScrapeHandler returns a [*ScrapeHandler] backed by registry.
func NewScrapeHandler(registry *Registry) *ScrapeHandler {
	return &ScrapeHandler{Registry: registry}
}

// ServeHTTP implements [http.Handler].
func (h *ScrapeHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, encoding, err := h.Registry.Render(req.Header.Get("Accept-Encoding"))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ContentType)
	if encoding != "" {
		w.Header().Set("Content-Encoding", encoding)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
