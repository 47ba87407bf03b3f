//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: original_source/linkerd/app/core/src/trace.rs (Uptime)
//

// Package trace is the Diagnostic Tracer: uptime-stamped structured
// logging, runtime-reloadable verbosity filtering, and per-flow span
// attachment.
package trace

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// uptimeHandler wraps a [slog.Handler], replacing the record's time with an
// uptime string measured from start, formatted exactly like
// Uptime::format_time in the original: "[{:>6}.{:06}s]" — seconds
// right-aligned to width 6 (space-padded), nanoseconds zero-padded to a
// minimum width of 6.
type uptimeHandler struct {
	next  slog.Handler
	start time.Time
}

// NewUptimeHandler wraps next so every record's timestamp attribute is
// replaced with the time elapsed since start, rendered as "[SSSSSS.Ns]".
func NewUptimeHandler(next slog.Handler, start time.Time) slog.Handler {
	return &uptimeHandler{next: next, start: start}
}

// Enabled implements [slog.Handler].
func (h *uptimeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements [slog.Handler].
func (h *uptimeHandler) Handle(ctx context.Context, record slog.Record) error {
	uptime := record.Time.Sub(h.start)
	record.Time = time.Time{}
	record.AddAttrs(slog.String("uptime", formatUptime(uptime)))
	return h.next.Handle(ctx, record)
}

// WithAttrs implements [slog.Handler].
func (h *uptimeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &uptimeHandler{next: h.next.WithAttrs(attrs), start: h.start}
}

// WithGroup implements [slog.Handler].
func (h *uptimeHandler) WithGroup(name string) slog.Handler {
	return &uptimeHandler{next: h.next.WithGroup(name), start: h.start}
}

// formatUptime renders d the way Uptime::format_time does.
func formatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	nanos := int64(d % time.Second)
	return fmt.Sprintf("[%6d.%06ds]", secs, nanos)
}
