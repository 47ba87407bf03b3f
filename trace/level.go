//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: original_source/linkerd/app/core/src/trace.rs (LevelHandle)
//

package trace

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// LevelTrace is a verbosity level finer than [slog.LevelDebug], matching
// the original filter's TRACE level (slog itself only defines Debug and
// coarser).
const LevelTrace = slog.Level(-8)

var levelNames = map[string]slog.Level{
	"trace":   LevelTrace,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// LevelHandle is a runtime-reloadable verbosity filter: the Go analog of
// tracing_subscriber::reload::Handle, using the stdlib's own atomic,
// concurrency-safe [slog.LevelVar] as the reload primitive.
type LevelHandle struct {
	mu        sync.Mutex
	levelVar  *slog.LevelVar
	directive string
}

// NewLevelHandle installs directive as the initial filter. An unparseable
// directive falls back to "info", matching the original's
// env::var(ENV_LOG).unwrap_or_default() defaulting behavior.
func NewLevelHandle(directive string) *LevelHandle {
	h := &LevelHandle{levelVar: &slog.LevelVar{}}
	if err := h.SetLevel(directive); err != nil {
		h.levelVar.Set(slog.LevelInfo)
		h.directive = "info"
	}
	return h
}

// NewNoopHandle returns a working LevelHandle starting at "info", for
// callers (tests, admin-endpoint stand-ins) that do not exercise log-level
// reload, the Go analog of LevelHandle::dangling(). It still accepts
// [LevelHandle.SetLevel] like any other handle.
func NewNoopHandle() *LevelHandle {
	return NewLevelHandle("info")
}

// Leveler returns the [*slog.LevelVar] backing this handle, for use as a
// [slog.HandlerOptions.Level].
func (h *LevelHandle) Leveler() *slog.LevelVar {
	return h.levelVar
}

// SetLevel parses and installs a new filter directive. An unparseable
// directive is rejected and the prior directive remains in force
// (spec.md §4.5, §7).
func (h *LevelHandle) SetLevel(directive string) error {
	level, err := parseDirective(directive)
	if err != nil {
		return fmt.Errorf("trace: invalid log directive %q: %w", directive, err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.levelVar.Set(level)
	h.directive = directive
	return nil
}

// Current returns the directive currently in force.
func (h *LevelHandle) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.directive
}

// parseDirective accepts a comma-separated list of "level" or
// "target=level" tokens, the directive syntax the original's EnvFilter
// uses. Per-target overrides are accepted syntax but not separately
// enforced: slog has no per-module filter tree, so the last token's level
// wins globally. An empty directive defaults to info.
func parseDirective(directive string) (slog.Level, error) {
	directive = strings.TrimSpace(directive)
	if directive == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	found := false
	for _, token := range strings.Split(directive, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		name := token
		if idx := strings.IndexByte(token, '='); idx >= 0 {
			name = token[idx+1:]
		}
		lvl, ok := levelNames[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("unrecognized level %q", name)
		}
		level = lvl
		found = true
	}
	if !found {
		return 0, fmt.Errorf("directive %q contains no level", directive)
	}
	return level, nil
}
