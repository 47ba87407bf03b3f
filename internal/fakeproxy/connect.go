//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: connect.go (bassosimone/nop)
//

package fakeproxy

import (
	"context"
	"net"
	"net/netip"

	"github.com/bassosimone/proxytelemetry"
)

// Dialer abstracts the [*net.Dialer] behavior, allowing [*ConnectFunc] to
// be unit tested against a fake.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// NewConnectFunc returns a new [*ConnectFunc] that reports every attempt to
// cfg.Bus as an outbound (dst-facing) flow.
func NewConnectFunc(cfg *Config, network string, flow telemetry.Flow) *ConnectFunc {
	return &ConnectFunc{
		Dialer:  cfg.Dialer,
		Bus:     cfg.Bus,
		Flow:    flow,
		Network: network,
	}
}

// ConnectFunc dials a [netip.AddrPort] and reports the outcome to the
// Observation Bus: [telemetry.Bus.OnConnect] on success,
// [telemetry.Bus.OnConnectError] on failure.
type ConnectFunc struct {
	Dialer  Dialer
	Bus     *telemetry.Bus
	Flow    telemetry.Flow
	Network string
}

var _ telemetry.Func[netip.AddrPort, net.Conn] = &ConnectFunc{}

// Call implements [telemetry.Func].
func (op *ConnectFunc) Call(ctx context.Context, address netip.AddrPort) (net.Conn, error) {
	conn, err := op.Dialer.DialContext(ctx, op.Network, address.String())
	if err != nil {
		op.Bus.OnConnectError(op.Flow, err)
		return nil, err
	}
	op.Bus.OnConnect(op.Flow)
	return conn, nil
}
