// SPDX-License-Identifier: GPL-3.0-or-later

// Package telemetry is the telemetry core of a service-mesh sidecar
// data-plane proxy: it observes connections and requests the proxy already
// handles and turns them into Prometheus-compatible metrics and structured
// logs. It does not dial, resolve names, or perform TLS handshakes itself —
// those belong to the forwarding stack, which calls into this package at a
// handful of well-defined points.
//
// # Core abstraction
//
// Composition still runs through the same generic interface the transport
// primitives in internal/fakeproxy use:
//
//	type Func[A, B any] interface {
//		Call(ctx context.Context, input A) (B, error)
//	}
//
// [Compose2] through [Compose8] chain Funcs into type-safe pipelines.
//
// # Observation Bus
//
// [Bus] is the entry point: the proxy's data plane calls its hook methods
// (OnAccept, OnConnect, OnConnectError, OnClose, OnRequest, OnResponseEnd)
// as flows happen. The bus resolves destination labels via a [Resolver],
// classifies transport errors via an [ErrClassifier], classifies HTTP/gRPC
// responses via [ClassifyHTTP]/[ClassifyGRPC], and records everything into
// a [Registry].
//
// # Label Resolver
//
// A [Resolver] maps a destination address to the label set attached to
// that destination (e.g., workload or service identity pushed by a control
// plane). Updates replace the whole label set for an address atomically;
// they never merge with what was there before.
//
// # Metric Registry
//
// [Registry] is a concurrency-safe store of counters, gauges, and
// histograms keyed by metric name plus a label set. [Registry.Render]
// renders it as Prometheus text exposition format (version 0.0.4).
//
// # Scrape Serializer
//
// [ScrapeHandler] is an [net/http.Handler] that renders the registry and
// transparently gzips the response when the client's Accept-Encoding
// header allows it.
//
// # Diagnostic Tracer
//
// The trace subpackage provides structured logging with uptime-relative
// timestamps and a dynamically reloadable level filter, the Go analog of
// the proxy's own live log-level reload endpoint.
//
// # Observability
//
// All primitives log through [SLogger] (satisfied by [log/slog.Logger]).
// By default, logging is disabled: set a logger explicitly to enable it.
// Error classification is configurable via [ErrClassifier]; the default
// maps recognized transport errors to short tags (ETIMEDOUT, ECONNRESET,
// EPIPE, ...) and anything else to EGENERIC.
//
// Use [NewSpanID] to generate a unique, time-ordered identifier (UUIDv7)
// for each flow, then attach it to the logger with [*slog.Logger.With].
//
// # Design boundaries
//
// This package observes and reports; it does not dial, resolve names,
// perform TLS handshakes, export traces, push metrics, or authorize scrape
// requests. Those concerns belong to the rest of the data plane or to the
// scrape caller's own reverse proxy.
package telemetry
