// SPDX-License-Identifier: GPL-3.0-or-later

package telemetry

// Direction is which way traffic is flowing relative to the local workload.
type Direction string

const (
	// DirectionInbound is traffic arriving at the local workload.
	DirectionInbound Direction = "inbound"

	// DirectionOutbound is traffic leaving the local workload.
	DirectionOutbound Direction = "outbound"
)

// Peer is which counterparty of a connection a set of transport metrics
// describes.
type Peer string

const (
	// PeerSrc is the counterparty facing the workload's clients.
	PeerSrc Peer = "src"

	// PeerDst is the counterparty facing the workload's upstreams.
	PeerDst Peer = "dst"
)

// Well-known TLS status values. Any other string is a peer identity name
// supplied by the TLS identity subsystem.
const (
	TLSDisabled   = "disabled"
	TLSNoIdentity = "no_identity"
)

// Well-known no_tls_reason values, meaningful only when TLS == [TLSNoIdentity].
const (
	NoTLSReasonLoopback                     = "loopback"
	NoTLSReasonNotHTTP                      = "not_http"
	NoTLSReasonNotProvidedByServiceDiscovery = "not_provided_by_service_discovery"
)

// Flow describes a single connection or HTTP exchange being observed. It is
// a borrowed snapshot: the forwarding stack owns the underlying connection
// or exchange and is responsible for calling [Bus] hooks at the right
// lifecycle moments; the telemetry core never mutates a Flow.
type Flow struct {
	// Direction is inbound or outbound.
	Direction Direction

	// Peer is src or dst, identifying which side of the connection this
	// Flow's transport metrics describe.
	Peer Peer

	// TLS is the TLS status string: [TLSDisabled], [TLSNoIdentity], or a
	// peer identity name.
	TLS string

	// NoTLSReason is set only when TLS == [TLSNoIdentity].
	NoTLSReason string

	// Authority is the HTTP request authority (host). Empty for raw TCP
	// flows.
	Authority string

	// DestAddr is the destination address used to look up dynamic
	// destination labels in a [Resolver]. Meaningful for outbound flows
	// only.
	DestAddr string

	// SpanID identifies this flow across the structured log records the
	// Diagnostic Tracer emits while observing it. See [NewSpanID].
	SpanID string
}

// baseLabels returns the transport-level label set shared by every metric
// this flow contributes to: direction, tls, and (when applicable)
// no_tls_reason. Callers add authority, peer, dst_*, status_code,
// classification, errno, and le on top as appropriate for the metric.
func (f Flow) baseLabels() LabelSet {
	ls := NewLabelSet().With("direction", string(f.Direction)).With("tls", f.TLS)
	if f.TLS == TLSNoIdentity && f.NoTLSReason != "" {
		ls = ls.With("no_tls_reason", f.NoTLSReason)
	}
	return ls
}
