// SPDX-License-Identifier: GPL-3.0-or-later

package telemetry

import (
	"os"
	"time"
)

// EnvLogDirective is the environment variable the [Config] default reads its
// initial tracer directive from.
const EnvLogDirective = "LINKERD2_PROXY_LOG"

// Config holds common configuration for the telemetry core.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// ErrClassifier classifies transport errors into the "errno" label.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time

	// ProcessStart is the timestamp the process started at, used both by
	// the Diagnostic Tracer's uptime clock and by the Metric Registry's
	// process_start_time_seconds gauge.
	//
	// Set by [NewConfig] to the time of the call.
	ProcessStart time.Time

	// InitialLogDirective is the tracer directive to install at startup.
	//
	// Set by [NewConfig] from the [EnvLogDirective] environment variable,
	// defaulting to "info" when unset or empty.
	InitialLogDirective string
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		ErrClassifier:       DefaultErrClassifier,
		TimeNow:             time.Now,
		ProcessStart:        time.Now(),
		InitialLogDirective: logDirectiveFromEnv(),
	}
}

func logDirectiveFromEnv() string {
	if v := os.Getenv(EnvLogDirective); v != "" {
		return v
	}
	return "info"
}
