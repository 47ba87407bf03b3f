// SPDX-License-Identifier: GPL-3.0-or-later

package fakeproxy

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/bassosimone/netstub"
	"github.com/bassosimone/proxytelemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewConnectFunc populates all fields from Config and the provided flow.
func TestNewConnectFunc(t *testing.T) {
	bus := newTestBus()
	cfg := NewConfig(bus)
	flow := telemetry.Flow{Direction: telemetry.DirectionOutbound}

	fn := NewConnectFunc(cfg, "tcp", flow)

	require.NotNil(t, fn)
	assert.Equal(t, "tcp", fn.Network)
	assert.NotNil(t, fn.Dialer)
	assert.Equal(t, flow, fn.Flow)
}

// Call dials the address and reports the outcome to the bus.
func TestConnectFuncSuccess(t *testing.T) {
	bus := newTestBus()
	cfg := NewConfig(bus)
	cfg.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			conn := newMinimalConn()
			conn.CloseFunc = func() error { return nil }
			return conn, nil
		},
	}

	flow := telemetry.Flow{Direction: telemetry.DirectionOutbound, Peer: telemetry.PeerDst, TLS: telemetry.TLSDisabled}
	fn := NewConnectFunc(cfg, "tcp", flow)

	conn, err := fn.Call(context.Background(), netip.MustParseAddrPort("93.184.216.34:443"))
	require.NoError(t, err)
	require.NotNil(t, conn)
	defer conn.Close()

	body, _, err := bus.Registry.Render("")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "tcp_open_total"))
}

// Call reports a failed dial without incrementing tcp_open_total.
func TestConnectFuncError(t *testing.T) {
	bus := newTestBus()
	cfg := NewConfig(bus)
	wantErr := errors.New("connection refused")
	cfg.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			return nil, wantErr
		},
	}

	flow := telemetry.Flow{Direction: telemetry.DirectionOutbound, Peer: telemetry.PeerDst, TLS: telemetry.TLSDisabled}
	fn := NewConnectFunc(cfg, "tcp", flow)

	conn, err := fn.Call(context.Background(), netip.MustParseAddrPort("93.184.216.34:443"))
	require.ErrorIs(t, err, wantErr)
	assert.Nil(t, conn)

	body, _, err := bus.Registry.Render("")
	require.NoError(t, err)
	out := string(body)
	assert.True(t, strings.Contains(out, "tcp_close_total"))
	assert.False(t, strings.Contains(out, "tcp_open_total"))
}

// Call propagates the caller's context to the dialer.
func TestConnectFuncContextDeadline(t *testing.T) {
	bus := newTestBus()
	cfg := NewConfig(bus)
	dialCalled := false
	cfg.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			dialCalled = true
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return nil, errors.New("expected error")
		},
	}

	fn := NewConnectFunc(cfg, "tcp", telemetry.Flow{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _ = fn.Call(ctx, netip.MustParseAddrPort("93.184.216.34:443"))
	assert.True(t, dialCalled)
}
