//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: cancelwatch.go (bassosimone/nop)
//

package fakeproxy

import (
	"context"
	"net"

	"github.com/bassosimone/proxytelemetry"
)

// NewCancelWatchFunc returns a new [*CancelWatchFunc].
func NewCancelWatchFunc() *CancelWatchFunc {
	return &CancelWatchFunc{}
}

// CancelWatchFunc closes the connection when its context is done,
// providing responsive cleanup on cancellation instead of waiting for a
// per-operation timeout. See bassosimone/nop's cancelwatch.go for the full
// rationale; the behavior here is unchanged, only the package moved.
type CancelWatchFunc struct{}

var _ telemetry.Func[net.Conn, net.Conn] = &CancelWatchFunc{}

// Call registers a context watcher that closes conn when ctx is done.
func (op *CancelWatchFunc) Call(ctx context.Context, conn net.Conn) (net.Conn, error) {
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	return &cancelWatchedConn{Conn: conn, stop: stop}, nil
}

type cancelWatchedConn struct {
	net.Conn
	stop func() bool
}

func (c *cancelWatchedConn) Close() error {
	c.stop()
	return c.Conn.Close()
}
