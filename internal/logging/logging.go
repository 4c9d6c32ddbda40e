// Package logging builds the process-wide slog.Backend the rest of the
// server requests per-subsystem Logger values from.
//
// Grounded on the shape of the teacher's vctt94/bisonbotkit/logging
// package (its NewLogBackend(LogConfig{DebugLevel}) constructor, used by
// cmd/pokersrv/main.go and wired into pkg/server.Server's log field) —
// reimplemented from scratch directly atop github.com/decred/slog rather
// than imported, since bisonbotkit itself sits behind an unfetchable local
// replace directive in the teacher's go.mod (see DESIGN.md's dropped
// dependency notes) and the "never fabricate dependencies" rule forbids
// vendoring or stubbing it.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/decred/slog"
)

// Config mirrors bisonbotkit's LogConfig: a single process-wide level name,
// applied to every subsystem Logger this Backend hands out.
type Config struct {
	// DebugLevel is one of slog's level names: trace, debug, info, warn,
	// error, critical, off. Defaults to "info" if empty or unrecognized.
	DebugLevel string

	// Writer receives formatted log lines. Defaults to os.Stdout.
	Writer io.Writer
}

// NewBackend constructs a slog.Backend and the level it will apply to every
// Logger it subsequently hands out via Logger(subsystem).
func NewBackend(cfg Config) (*slog.Backend, slog.Level) {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}

	level, ok := slog.LevelFromString(cfg.DebugLevel)
	if !ok {
		level = slog.LevelInfo
	}

	return slog.NewBackend(w), level
}

// Logger returns a subsystem-tagged Logger from backend, set to level.
// subsystem conventionally names the package or actor it logs for (e.g.
// "HUB", "ROOM", "STORE"), matching the all-caps subsystem tags the
// teacher's own slog.Backend.Logger calls use.
func Logger(backend *slog.Backend, level slog.Level, subsystem string) slog.Logger {
	log := backend.Logger(subsystem)
	log.SetLevel(level)
	return log
}

// MustLogger is Logger, panicking instead of silently degrading, for use at
// process startup where a misconfigured logger should abort the boot
// sequence immediately rather than run unobserved.
func MustLogger(backend *slog.Backend, level slog.Level, subsystem string) slog.Logger {
	if backend == nil {
		panic(fmt.Sprintf("logging: nil backend requested for subsystem %q", subsystem))
	}
	return Logger(backend, level, subsystem)
}
