// SPDX-License-Identifier: GPL-3.0-or-later

package fakeproxy

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/bassosimone/proxytelemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus() *telemetry.Bus {
	cfg := telemetry.NewConfig()
	registry := telemetry.NewRegistry(cfg.ProcessStart)
	resolver := telemetry.NewResolver()
	return telemetry.NewBus(cfg, registry, resolver, nil)
}

// Call wraps the connection and returns a net.Conn implementation.
func TestObserveConnFuncCall(t *testing.T) {
	cfg := NewConfig(newTestBus())
	mockConn := newMinimalConn()

	fn := NewObserveConnFunc(cfg, telemetry.Flow{})
	observed, err := fn.Call(context.Background(), mockConn)

	require.NoError(t, err)
	require.NotNil(t, observed)

	var _ net.Conn = observed
}

// Read delegates to the underlying connection and counts the bytes read.
func TestObservedConnRead(t *testing.T) {
	cfg := NewConfig(newTestBus())
	readData := []byte("hello world")

	mockConn := newMinimalConn()
	mockConn.ReadFunc = func(b []byte) (int, error) {
		copy(b, readData)
		return len(readData), nil
	}

	fn := NewObserveConnFunc(cfg, telemetry.Flow{})
	observed, err := fn.Call(context.Background(), mockConn)
	require.NoError(t, err)

	buf := make([]byte, 100)
	n, err := observed.Read(buf)

	require.NoError(t, err)
	assert.Equal(t, len(readData), n)
	assert.Equal(t, readData, buf[:n])
}

// Read propagates errors from the underlying connection.
func TestObservedConnReadError(t *testing.T) {
	cfg := NewConfig(newTestBus())
	wantErr := errors.New("read error")

	mockConn := newMinimalConn()
	mockConn.ReadFunc = func(b []byte) (int, error) { return 0, wantErr }

	fn := NewObserveConnFunc(cfg, telemetry.Flow{})
	observed, _ := fn.Call(context.Background(), mockConn)

	buf := make([]byte, 100)
	_, err := observed.Read(buf)

	require.ErrorIs(t, err, wantErr)
}

// Write delegates to the underlying connection and counts the bytes written.
func TestObservedConnWrite(t *testing.T) {
	cfg := NewConfig(newTestBus())
	var writtenData []byte

	mockConn := newMinimalConn()
	mockConn.WriteFunc = func(b []byte) (int, error) {
		writtenData = append(writtenData, b...)
		return len(b), nil
	}

	fn := NewObserveConnFunc(cfg, telemetry.Flow{})
	observed, err := fn.Call(context.Background(), mockConn)
	require.NoError(t, err)

	data := []byte("test data")
	n, err := observed.Write(data)

	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, data, writtenData)
}

// Second Close returns net.ErrClosed without calling the underlying Close again.
func TestObservedConnCloseOnce(t *testing.T) {
	cfg := NewConfig(newTestBus())
	closeCount := 0

	mockConn := newMinimalConn()
	mockConn.CloseFunc = func() error {
		closeCount++
		return nil
	}

	fn := NewObserveConnFunc(cfg, telemetry.Flow{})
	observed, _ := fn.Call(context.Background(), mockConn)

	require.NoError(t, observed.Close())
	assert.Equal(t, 1, closeCount)

	require.ErrorIs(t, observed.Close(), net.ErrClosed)
	assert.Equal(t, 1, closeCount)
}

// Close reports bytes read and written, and the errno tag, to the bus.
func TestObservedConnCloseReportsToBus(t *testing.T) {
	bus := newTestBus()
	cfg := NewConfig(bus)

	mockConn := newMinimalConn()
	mockConn.ReadFunc = func(b []byte) (int, error) { copy(b, "abc"); return 3, nil }
	mockConn.WriteFunc = func(b []byte) (int, error) { return len(b), nil }
	mockConn.CloseFunc = func() error { return nil }

	flow := telemetry.Flow{Direction: telemetry.DirectionInbound, Peer: telemetry.PeerSrc, TLS: telemetry.TLSDisabled}
	fn := NewObserveConnFunc(cfg, flow)
	observed, err := fn.Call(context.Background(), mockConn)
	require.NoError(t, err)

	buf := make([]byte, 10)
	_, _ = observed.Read(buf)
	_, _ = observed.Write([]byte("xyz12"))
	require.NoError(t, observed.Close())

	body, _, err := bus.Registry.Render("")
	require.NoError(t, err)
	out := string(body)
	assert.True(t, strings.Contains(out, "tcp_read_bytes_total"))
	assert.True(t, strings.Contains(out, "tcp_write_bytes_total"))
	assert.True(t, strings.Contains(out, "tcp_connection_duration_ms"))
}

// Close with a clock that advances reports a positive duration.
func TestObservedConnCloseDuration(t *testing.T) {
	bus := newTestBus()
	cfg := NewConfig(bus)

	start := time.Now()
	elapsed := start
	cfg.TimeNow = func() time.Time {
		elapsed = elapsed.Add(5 * time.Millisecond)
		return elapsed
	}

	mockConn := newMinimalConn()
	mockConn.CloseFunc = func() error { return nil }

	fn := NewObserveConnFunc(cfg, telemetry.Flow{})
	observed, err := fn.Call(context.Background(), mockConn)
	require.NoError(t, err)

	require.NoError(t, observed.Close())

	body, _, err := bus.Registry.Render("")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `tcp_connection_duration_ms_sum{direction="",peer="",tls=""} 5`))
}

// LocalAddr and RemoteAddr delegate to the underlying connection.
func TestObservedConnAddrs(t *testing.T) {
	cfg := NewConfig(newTestBus())
	wantLocal := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 54321}
	wantRemote := &net.TCPAddr{IP: net.IPv4(93, 184, 216, 34), Port: 443}

	mockConn := newMinimalConn()
	mockConn.LocalAddrFunc = func() net.Addr { return wantLocal }
	mockConn.RemoteAddrFunc = func() net.Addr { return wantRemote }

	fn := NewObserveConnFunc(cfg, telemetry.Flow{})
	observed, _ := fn.Call(context.Background(), mockConn)

	assert.Equal(t, wantLocal, observed.LocalAddr())
	assert.Equal(t, wantRemote, observed.RemoteAddr())
}

// SetDeadline, SetReadDeadline, and SetWriteDeadline delegate unchanged.
func TestObservedConnDeadlines(t *testing.T) {
	cfg := NewConfig(newTestBus())
	var gotDeadline, gotRead, gotWrite time.Time
	wantDeadline := time.Now().Add(time.Hour)

	mockConn := newMinimalConn()
	mockConn.SetDeadlineFunc = func(t time.Time) error { gotDeadline = t; return nil }
	mockConn.SetReadDeadFunc = func(t time.Time) error { gotRead = t; return nil }
	mockConn.SetWriteDeaFunc = func(t time.Time) error { gotWrite = t; return nil }

	fn := NewObserveConnFunc(cfg, telemetry.Flow{})
	observed, _ := fn.Call(context.Background(), mockConn)

	require.NoError(t, observed.SetDeadline(wantDeadline))
	require.NoError(t, observed.SetReadDeadline(wantDeadline))
	require.NoError(t, observed.SetWriteDeadline(wantDeadline))

	assert.Equal(t, wantDeadline, gotDeadline)
	assert.Equal(t, wantDeadline, gotRead)
	assert.Equal(t, wantDeadline, gotWrite)
}
