// SPDX-License-Identifier: GPL-3.0-or-later
//
// New file: no direct teacher equivalent. The teacher's own example program
// wires ConnectFunc/ObserveConnFunc/CancelWatchFunc into a real proxy main;
// this file plays the same wiring role for integration tests, minus TLS,
// HTTP/2, and DNS, which are out of scope here.

package fakeproxy

import (
	"context"
	"io"
	"net"
	"net/netip"

	"github.com/bassosimone/proxytelemetry"
)

// ForwardTCP accepts a single connection on ln, dials upstream, and copies
// bytes in both directions until either side closes. It reports the
// inbound leg as an accept/close pair with [telemetry.PeerSrc] and the
// outbound leg as a connect/close pair with [telemetry.PeerDst]. upstream
// must parse as an address:port; when it does not (including when it is
// empty), ForwardTCP closes the inbound leg and returns the parse error
// without dialing. It returns once both legs have closed.
//
// The outbound leg is dialed through a two-stage [telemetry.Func] pipeline
// ([telemetry.NewEndpointFunc] feeding [*ConnectFunc]) instead of a direct
// call, exercising the same Compose-based wiring a longer pipeline would use
// to inject a fixed destination upstream of a dial stage.
func ForwardTCP(ctx context.Context, cfg *Config, ln net.Listener, upstream string) error {
	inbound, err := ln.Accept()
	if err != nil {
		return err
	}

	inFlow := telemetry.Flow{
		Direction: telemetry.DirectionInbound,
		Peer:      telemetry.PeerSrc,
		TLS:       telemetry.TLSDisabled,
		SpanID:    telemetry.NewSpanID(),
	}
	cfg.Bus.OnAccept(inFlow)
	observedIn, err := NewObserveConnFunc(cfg, inFlow).Call(ctx, inbound)
	if err != nil {
		inbound.Close()
		return err
	}

	addrPort, err := netip.ParseAddrPort(upstream)
	if err != nil {
		observedIn.Close()
		return err
	}

	outFlow := telemetry.Flow{
		Direction: telemetry.DirectionOutbound,
		Peer:      telemetry.PeerDst,
		TLS:       telemetry.TLSDisabled,
		DestAddr:  upstream,
		SpanID:    telemetry.NewSpanID(),
	}
	dial := telemetry.Compose2(telemetry.NewEndpointFunc(addrPort), NewConnectFunc(cfg, "tcp", outFlow))
	outConn, err := dial.Call(ctx, telemetry.Unit{})
	if err != nil {
		observedIn.Close()
		return err
	}
	observedOut, err := NewObserveConnFunc(cfg, outFlow).Call(ctx, outConn)
	if err != nil {
		observedIn.Close()
		outConn.Close()
		return err
	}

	watchedIn, _ := NewCancelWatchFunc().Call(ctx, observedIn)
	watchedOut, _ := NewCancelWatchFunc().Call(ctx, observedOut)

	errc := make(chan error, 2)
	go func() {
		_, err := io.Copy(watchedOut, watchedIn)
		watchedOut.Close()
		errc <- err
	}()
	go func() {
		_, err := io.Copy(watchedIn, watchedOut)
		watchedIn.Close()
		errc <- err
	}()

	err1 := <-errc
	err2 := <-errc
	if err1 != nil {
		return err1
	}
	return err2
}
