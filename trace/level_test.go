// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevelHandleDefaultsToInfo(t *testing.T) {
	h := NewLevelHandle("")
	assert.Equal(t, "", h.Current())
	assert.Equal(t, slog.LevelInfo, h.Leveler().Level())
}

func TestNewLevelHandleParsesSimpleLevel(t *testing.T) {
	h := NewLevelHandle("debug")
	assert.Equal(t, "debug", h.Current())
	assert.Equal(t, slog.LevelDebug, h.Leveler().Level())
}

func TestNewLevelHandleFallsBackOnGarbage(t *testing.T) {
	h := NewLevelHandle("not-a-level")
	assert.Equal(t, "info", h.Current())
	assert.Equal(t, slog.LevelInfo, h.Leveler().Level())
}

func TestSetLevelRejectsGarbageKeepsPrior(t *testing.T) {
	h := NewLevelHandle("warn")
	err := h.SetLevel("not-a-level")
	require.Error(t, err)
	assert.Equal(t, "warn", h.Current())
	assert.Equal(t, slog.LevelWarn, h.Leveler().Level())
}

func TestSetLevelWithTargetOverrides(t *testing.T) {
	h := NewLevelHandle("info")
	require.NoError(t, h.SetLevel("other=debug,proxy=trace"))
	assert.Equal(t, "other=debug,proxy=trace", h.Current())
	// Per-target overrides aren't separately enforced: the last token's
	// level applies globally.
	assert.Equal(t, LevelTrace, h.Leveler().Level())
}

func TestNewNoopHandle(t *testing.T) {
	h := NewNoopHandle()
	assert.Equal(t, "info", h.Current())
	require.NoError(t, h.SetLevel("error"))
	assert.Equal(t, slog.LevelError, h.Leveler().Level())
}
