// Package logctx is the concrete core.Log sink (spec.md §6.3), a thin
// verbosity-gating and argument-truncation layer over go.uber.org/zap. The
// teacher's own code never logs (its errors travel as plain fmt.Errorf
// wraps, surfaced straight to the CLI's stderr); zap is pulled in only
// transitively through the testcontainers dependency tree. This package
// gives it a real, direct job: the structured log sink every Session binds.
package logctx

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tempstore/internal/core"
)

// maxArgLen is the §6.3 argument-truncation threshold.
const maxArgLen = 255

const ellipsis = " … "

// Log adapts a *zap.Logger to the core.Log contract.
type Log struct {
	verbosity core.Verbosity
	zl        *zap.Logger
}

// New wraps zl, gating every Append below verbosity.
func New(verbosity core.Verbosity, zl *zap.Logger) *Log {
	return &Log{verbosity: verbosity, zl: zl}
}

// NewDevelopment builds a Log backed by zap's human-readable development
// encoder, convenient for the CLI (internal/config wires verbosity from
// the loaded configuration).
func NewDevelopment(verbosity core.Verbosity) (*Log, error) {
	zl, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return New(verbosity, zl), nil
}

// NewNop builds a Log that discards everything, for tests that need a
// core.Log but don't care about its output.
func NewNop(verbosity core.Verbosity) *Log {
	return New(verbosity, zap.NewNop())
}

// Verbosity reports the configured gating threshold.
func (l *Log) Verbosity() core.Verbosity { return l.verbosity }

// Append records one entry, dropping it unless entryType <= l.Verbosity().
func (l *Log) Append(entryType core.Verbosity, subtype, template string, args ...any) {
	if entryType > l.verbosity {
		return
	}
	msg := format(template, args...)
	var fields []zap.Field
	if subtype != "" {
		fields = append(fields, zap.String("subtype", subtype))
	}
	switch entryType {
	case core.VerbosityError:
		l.zl.Error(msg, fields...)
	case core.VerbosityWarning:
		l.zl.Warn(msg, fields...)
	case core.VerbosityStatus:
		l.zl.Info(msg, fields...)
	default:
		l.zl.Debug(msg, fields...)
	}
}

// Warning appends a VerbosityWarning entry.
func (l *Log) Warning(template string, args ...any) {
	l.Append(core.VerbosityWarning, "", template, args...)
}

// Status appends a VerbosityStatus entry.
func (l *Log) Status(template string, args ...any) {
	l.Append(core.VerbosityStatus, "", template, args...)
}

// Exception appends a VerbosityError entry and returns a core.Error
// carrying the same formatted, truncated message.
func (l *Log) Exception(template string, args ...any) error {
	msg := format(template, args...)
	l.Append(core.VerbosityError, "exception", template, args...)
	return core.NewError(core.KindStoreError, "%s", msg)
}

// format renders template against args, truncating any argument whose
// textual form exceeds maxArgLen before interpolation (§6.3).
func format(template string, args ...any) string {
	if len(args) == 0 {
		return template
	}
	truncated := make([]any, len(args))
	for i, a := range args {
		truncated[i] = truncateArg(a)
	}
	return fmt.Sprintf(template, truncated...)
}

func truncateArg(a any) any {
	s := fmt.Sprintf("%v", a)
	if len(s) <= maxArgLen {
		return a
	}
	return normalizeTrailingDots(truncateMiddle(s))
}

func truncateMiddle(s string) string {
	keep := maxArgLen - len(ellipsis)
	head := keep / 2
	tail := keep - head
	return s[:head] + ellipsis + s[len(s)-tail:]
}

// normalizeTrailingDots collapses a run of trailing dots produced by
// truncation landing right before a literal "..." in the source text down
// to a single "..." (§6.3).
func normalizeTrailingDots(s string) string {
	for strings.HasSuffix(s, "....") {
		s = s[:len(s)-1]
	}
	return s
}
