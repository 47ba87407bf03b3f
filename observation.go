// SPDX-License-Identifier: GPL-3.0-or-later

package telemetry

import (
	"strconv"
	"time"
)

// RequestMeta carries the metadata [*Bus.OnRequest] and [*Bus.OnResponseEnd]
// need beyond the Flow itself.
type RequestMeta struct {
	// Authority is the HTTP request's Host/authority.
	Authority string
}

// ResponseOutcome carries [*Bus.OnResponseEnd]'s classification input:
// either an HTTP status code, a gRPC trailer's grpc-status value, or
// neither when the flow failed before producing a response head at all
// (spec.md §4.1).
type ResponseOutcome struct {
	StatusCode int

	HasGRPCStatus bool
	GRPCStatus    int

	TransportFailure bool
}

// Bus is the Observation Bus: the forwarding stack calls its hook methods
// at well-defined lifecycle moments (accept, connect, connect-fail, close,
// request, response-end); the Bus resolves destination labels, classifies
// errors and responses, and records every observation into a [Registry].
// No hook may block on I/O or hold a lock across a hook boundary (spec.md
// §4.1); every method here does neither.
type Bus struct {
	Registry      *Registry
	Resolver      *Resolver
	ErrClassifier ErrClassifier
	Tracer        SLogger
	TimeNow       func() time.Time
}

// NewBus wires a [*Bus] from cfg, a registry, and a resolver. tracer may be
// nil, in which case hooks record metrics but emit no structured logs.
func NewBus(cfg *Config, registry *Registry, resolver *Resolver, tracer SLogger) *Bus {
	return &Bus{
		Registry:      registry,
		Resolver:      resolver,
		ErrClassifier: cfg.ErrClassifier,
		Tracer:        tracer,
		TimeNow:       cfg.TimeNow,
	}
}

// transportLabels returns the label set shared by every transport-level
// (tcp_*) metric this flow contributes to: direction, tls, no_tls_reason
// (if any), and peer.
func (b *Bus) transportLabels(f Flow) LabelSet {
	return f.baseLabels().With("peer", string(f.Peer))
}

// destLabels resolves the current destination label set for outbound
// flows, or the empty [LabelSet] for inbound flows or flows with no
// destination address (spec.md §4.2: elide the dst_* keys entirely when
// there is nothing to attach).
func (b *Bus) destLabels(f Flow) LabelSet {
	if f.Direction != DirectionOutbound || f.DestAddr == "" || b.Resolver == nil {
		return NewLabelSet()
	}
	ls := NewLabelSet()
	for name, value := range b.Resolver.Lookup(f.DestAddr) {
		ls = ls.WithDst(name, value)
	}
	return ls
}

// mergeLabelSets returns a LabelSet containing every entry of a and b,
// with b's entries winning on key collision.
func mergeLabelSets(a, b LabelSet) LabelSet {
	out := a
	for k, v := range b.entries {
		out = out.With(k, v)
	}
	return out
}

// OnAccept records a new inbound (src-facing) transport connection.
func (b *Bus) OnAccept(f Flow) {
	ls := b.transportLabels(f)
	b.Registry.ObserveCounter("tcp_open_total", ls, 1)
	b.Registry.ObserveGauge("tcp_open_connections", ls, 1)
	b.logInfo("accept", f, nil)
}

// OnConnect records a new outbound (dst-facing) transport connection.
func (b *Bus) OnConnect(f Flow) {
	ls := b.transportLabels(f)
	b.Registry.ObserveCounter("tcp_open_total", ls, 1)
	b.Registry.ObserveGauge("tcp_open_connections", ls, 1)
	b.logInfo("connect", f, nil)
}

// OnConnectError records a failed connection attempt. It does not
// increment tcp_open_total: the connection never opened (spec.md §4.1).
func (b *Bus) OnConnectError(f Flow, err error) {
	tag := b.ErrClassifier.Classify(err)
	ls := b.transportLabels(f).With("errno", tag)
	b.Registry.ObserveCounter("tcp_close_total", ls, 1)
	b.logInfo("connectError", f, map[string]any{"errno": tag})
}

// OnClose records a connection's end: its errno tag (empty for a clean
// close), the bytes transferred in each direction, and its duration.
func (b *Bus) OnClose(f Flow, closeErr error, bytesRead, bytesWritten uint64, durationMs float64) {
	tag := b.ErrClassifier.Classify(closeErr)
	transport := b.transportLabels(f)

	b.Registry.ObserveCounter("tcp_close_total", transport.With("errno", tag), 1)
	b.Registry.ObserveGauge("tcp_open_connections", transport, -1)
	b.Registry.ObserveCounter("tcp_read_bytes_total", transport, bytesRead)
	b.Registry.ObserveCounter("tcp_write_bytes_total", transport, bytesWritten)
	b.Registry.ObserveHistogram("tcp_connection_duration_ms", transport, durationMs)

	b.logInfo("close", f, map[string]any{"errno": tag, "bytesRead": bytesRead, "bytesWritten": bytesWritten})
}

// OnRequest records the start of an HTTP request, using whichever
// destination label snapshot is current at this instant (spec.md §4.2:
// later updates do not retroactively relabel this observation).
func (b *Bus) OnRequest(f Flow, meta RequestMeta) {
	ls := mergeLabelSets(f.baseLabels().With("authority", meta.Authority), b.destLabels(f))
	b.Registry.ObserveCounter("request_total", ls, 1)
	b.logInfo("request", f, map[string]any{"authority": meta.Authority})
}

// OnResponseEnd records a request's outcome: response_total under the
// flow's base labels plus authority, dst_*, status_code and classification,
// and response_latency_ms under the same labels without classification.
// The dst_* labels are resolved when OnResponseEnd runs, not carried over
// from [*Bus.OnRequest]: a resolver update between the two files the
// response under a different dst_* tuple than the request.
func (b *Bus) OnResponseEnd(f Flow, meta RequestMeta, outcome ResponseOutcome, latencyMs float64) {
	var statusCode string
	var classification Classification

	switch {
	case outcome.TransportFailure:
		statusCode = TransportFailureStatusCode
		classification = ClassifyTransportFailure()
	case outcome.HasGRPCStatus:
		statusCode = strconv.Itoa(outcome.StatusCode)
		classification = ClassifyGRPC(outcome.GRPCStatus)
	default:
		statusCode = strconv.Itoa(outcome.StatusCode)
		classification = ClassifyHTTP(outcome.StatusCode)
	}

	base := mergeLabelSets(f.baseLabels().With("authority", meta.Authority), b.destLabels(f))

	respLabels := base.With("status_code", statusCode).With("classification", string(classification))
	b.Registry.ObserveCounter("response_total", respLabels, 1)

	latencyLabels := base.With("status_code", statusCode)
	b.Registry.ObserveHistogram("response_latency_ms", latencyLabels, latencyMs)

	b.logInfo("responseEnd", f, map[string]any{"statusCode": statusCode, "classification": string(classification)})
}

func (b *Bus) logInfo(event string, f Flow, fields map[string]any) {
	if b.Tracer == nil {
		return
	}
	args := make([]any, 0, 4+2*len(fields))
	args = append(args, "spanID", f.SpanID, "direction", string(f.Direction))
	for k, v := range fields {
		args = append(args, k, v)
	}
	b.Tracer.Info(event, args...)
}
