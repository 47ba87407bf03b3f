// SPDX-License-Identifier: GPL-3.0-or-later

package telemetry

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)

	// ErrClassifier should use errclass by default.
	assert.Equal(t, "", cfg.ErrClassifier.Classify(nil))
	assert.Equal(t, "ETIMEDOUT", cfg.ErrClassifier.Classify(context.DeadlineExceeded))

	// TimeNow should be set and return a valid time.
	now := cfg.TimeNow()
	assert.False(t, now.IsZero())

	// ProcessStart should be recent and non-zero.
	assert.False(t, cfg.ProcessStart.IsZero())

	// InitialLogDirective defaults to "info" when the environment is unset.
	assert.Equal(t, "info", cfg.InitialLogDirective)
}

func TestNewConfigLogDirectiveFromEnv(t *testing.T) {
	t.Setenv(EnvLogDirective, "debug,proxy=trace")

	cfg := NewConfig()

	assert.Equal(t, "debug,proxy=trace", cfg.InitialLogDirective)
}

func TestLogDirectiveFromEnvEmpty(t *testing.T) {
	require.NoError(t, os.Unsetenv(EnvLogDirective))

	assert.Equal(t, "info", logDirectiveFromEnv())
}
