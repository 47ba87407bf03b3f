//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: original_source/linkerd/app/core/src/trace.rs (init/with_filter)
//

package trace

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Tracer is a [log/slog.Logger]-backed structured logger stamped with
// uptime timestamps instead of wall-clock time. It satisfies any
// SLogger-shaped interface exposing Debug(msg string, args ...any) and
// Info(msg string, args ...any), including the telemetry package root's
// SLogger.
type Tracer struct {
	logger *slog.Logger
	level  *LevelHandle
}

// NewTracer builds a Tracer writing newline-delimited text records to w,
// with start as the instant uptime is measured from and level controlling
// verbosity. A nil w defaults to [os.Stderr].
func NewTracer(w io.Writer, start time.Time, level *LevelHandle) *Tracer {
	if w == nil {
		w = os.Stderr
	}
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.Leveler()})
	return &Tracer{logger: slog.New(NewUptimeHandler(text, start)), level: level}
}

// Debug implements the package-root SLogger interface.
func (t *Tracer) Debug(msg string, args ...any) {
	t.logger.Debug(msg, args...)
}

// Info implements the package-root SLogger interface.
func (t *Tracer) Info(msg string, args ...any) {
	t.logger.Info(msg, args...)
}

// Level returns the Tracer's [*LevelHandle].
func (t *Tracer) Level() *LevelHandle {
	return t.level
}

// SetLevel reloads the verbosity filter. On success it emits the
// info-level "set new log level" event the original's set_level always
// logs; on failure the prior directive remains in force and no event is
// emitted (spec.md §4.5, §7).
func (t *Tracer) SetLevel(directive string) error {
	if err := t.level.SetLevel(directive); err != nil {
		return err
	}
	t.Info("set new log level", "level", directive)
	return nil
}

// WithSpan returns a child Tracer whose records carry span's fields in
// addition to whatever this Tracer already attaches.
func (t *Tracer) WithSpan(span Span) *Tracer {
	if len(span.Fields()) == 0 {
		return t
	}
	return &Tracer{logger: t.logger.With(span.Fields()...), level: t.level}
}
