//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: observeconn.go (bassosimone/nop)
//

package fakeproxy

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bassosimone/proxytelemetry"
	"github.com/bassosimone/safeconn"
)

// NewObserveConnFunc returns a new [*ObserveConnFunc] that reports byte
// counts and close outcome for flow to cfg.Bus when the returned
// connection is closed.
func NewObserveConnFunc(cfg *Config, flow telemetry.Flow) *ObserveConnFunc {
	return &ObserveConnFunc{
		Bus:     cfg.Bus,
		Logger:  cfg.Logger,
		Flow:    flow,
		TimeNow: cfg.TimeNow,
	}
}

// ObserveConnFunc wraps a [net.Conn] to count bytes transferred and report
// the connection's lifecycle to the Observation Bus.
type ObserveConnFunc struct {
	Bus     *telemetry.Bus
	Logger  telemetry.SLogger
	Flow    telemetry.Flow
	TimeNow func() time.Time
}

var _ telemetry.Func[net.Conn, net.Conn] = &ObserveConnFunc{}

// Call implements [telemetry.Func].
func (op *ObserveConnFunc) Call(ctx context.Context, conn net.Conn) (net.Conn, error) {
	now := op.TimeNow
	if now == nil {
		now = time.Now
	}
	return &observedConn{
		conn:    conn,
		op:      op,
		laddr:   safeconn.LocalAddr(conn),
		raddr:   safeconn.RemoteAddr(conn),
		started: now(),
		timeNow: now,
	}, nil
}

type observedConn struct {
	conn      net.Conn
	op        *ObserveConnFunc
	laddr     string
	raddr     string
	started   time.Time
	timeNow   func() time.Time
	closeOnce sync.Once
	bytesRead atomic.Uint64
	bytesWrit atomic.Uint64
}

// Close implements [net.Conn]. Subsequent calls return [net.ErrClosed].
func (c *observedConn) Close() (err error) {
	err = net.ErrClosed
	c.closeOnce.Do(func() {
		err = c.conn.Close()
		durationMs := float64(c.timeNow().Sub(c.started)) / float64(time.Millisecond)
		c.op.Bus.OnClose(c.op.Flow, err, c.bytesRead.Load(), c.bytesWrit.Load(), durationMs)
		c.op.Logger.Info("closeDone",
			"localAddr", c.laddr,
			"remoteAddr", c.raddr,
			"bytesRead", c.bytesRead.Load(),
			"bytesWritten", c.bytesWrit.Load(),
		)
	})
	return
}

// LocalAddr implements [net.Conn].
func (c *observedConn) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// RemoteAddr implements [net.Conn].
func (c *observedConn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// SetDeadline implements [net.Conn].
func (c *observedConn) SetDeadline(t time.Time) error { return c.conn.SetDeadline(t) }

// SetReadDeadline implements [net.Conn].
func (c *observedConn) SetReadDeadline(t time.Time) error { return c.conn.SetReadDeadline(t) }

// SetWriteDeadline implements [net.Conn].
func (c *observedConn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }

// Read implements [net.Conn].
func (c *observedConn) Read(buf []byte) (int, error) {
	n, err := c.conn.Read(buf)
	if n > 0 {
		c.bytesRead.Add(uint64(n))
	}
	c.op.Logger.Debug("readDone", "ioBytesCount", n, "localAddr", c.laddr, "remoteAddr", c.raddr)
	return n, err
}

// Write implements [net.Conn].
func (c *observedConn) Write(data []byte) (int, error) {
	n, err := c.conn.Write(data)
	if n > 0 {
		c.bytesWrit.Add(uint64(n))
	}
	c.op.Logger.Debug("writeDone", "ioBytesCount", n, "localAddr", c.laddr, "remoteAddr", c.raddr)
	return n, err
}
