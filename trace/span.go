//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: original_source/linkerd/app/core/src/trace.rs (layer submodule's
// Layer/MakeSpan/SetSpan span-attachment wrapper)
//

package trace

import "context"

type spanKey struct{}

// Span is a flow-scoped bag of structured fields attached to a context for
// the dynamic extent of an operation (spec.md §4.5, §9).
type Span struct {
	fields []any
}

// NewSpan returns a Span carrying the given slog-style key/value fields.
func NewSpan(fields ...any) Span {
	return Span{fields: fields}
}

// Fields returns this span's fields, suitable for passing to an SLogger's
// variadic args.
func (s Span) Fields() []any {
	return s.fields
}

// WithSpan installs span on ctx, returning the derived context.
// [SpanFromContext] reads it back; a [*Tracer] derived with
// [Tracer.WithSpan] from that span carries the span's fields on every
// record it emits.
//
// This is the generalization of the original's tower Layer/MakeSpan/SetSpan
// wrapper: instead of decorating a tower.Service, it decorates a plain
// context.Context, which Go's immutable-derivation model already removes
// on every exit path of the dynamic extent that used it — there is no
// separate teardown step to get wrong.
func WithSpan(ctx context.Context, span Span) context.Context {
	return context.WithValue(ctx, spanKey{}, span)
}

// SpanFromContext returns the Span installed on ctx, or the zero Span if
// none was attached.
func SpanFromContext(ctx context.Context) Span {
	span, _ := ctx.Value(spanKey{}).(Span)
	return span
}

// Enter runs fn with span installed on ctx for fn's entire dynamic extent.
func Enter[T any](ctx context.Context, span Span, fn func(ctx context.Context) (T, error)) (T, error) {
	return fn(WithSpan(ctx, span))
}
