// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: config.go (bassosimone/nop)
//

// Package fakeproxy is a minimal in-repo forwarding stack used only by
// integration tests: it dials, accepts, and round-trips just enough TCP and
// HTTP traffic to exercise the Observation Bus end-to-end, the way the real
// data-plane forwarding stack would call it in production. It is not meant
// to be a real proxy; it has no retry, pooling, or protocol negotiation.
package fakeproxy

import (
	"net"
	"time"

	"github.com/bassosimone/proxytelemetry"
)

// Config holds the dependencies [ConnectFunc] and [ObserveConnFunc] need.
type Config struct {
	// Dialer is used by [*ConnectFunc]. Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// Bus is the Observation Bus hook target every primitive in this
	// package reports into.
	Bus *telemetry.Bus

	// Logger is the [telemetry.SLogger] used for this package's own
	// structured logging, independent of what Bus itself logs.
	Logger telemetry.SLogger

	// TimeNow returns the current time. Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults. bus must not be nil.
func NewConfig(bus *telemetry.Bus) *Config {
	return &Config{
		Dialer:  &net.Dialer{},
		Bus:     bus,
		Logger:  telemetry.DefaultSLogger(),
		TimeNow: time.Now,
	}
}
