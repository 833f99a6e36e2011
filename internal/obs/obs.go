// Package obs threads a single structured logger through the CLI and the
// rule-file language server, the way the teacher's LSP server constructs
// one *zap.Logger and hands it to whatever needs to log. Sugar() is used
// only at CLI boundaries for a human-readable one-liner; everything else
// logs with structured fields.
package obs

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a *zap.Logger with the field names this codebase logs under
// consistently: rule, tseq_id, elapsed_ms.
type Logger struct {
	z *zap.Logger
}

// New builds a Logger at the given level ("debug", "info", "warn", "error").
// An unrecognized level falls back to info, matching the teacher's
// fall-back-to-Nop-logger tolerance for a bad zap configuration rather than
// failing startup over a logging detail.
func New(level string) *Logger {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// Nop returns a Logger that discards everything, for tests that don't care
// about log output.
func Nop() *Logger { return &Logger{z: zap.NewNop()} }

// Sugar exposes the underlying SugaredLogger for human-readable CLI output.
func (l *Logger) Sugar() *zap.SugaredLogger { return l.z.Sugar() }

// Sync flushes any buffered log entries; call before process exit.
func (l *Logger) Sync() error { return l.z.Sync() }

// WithRule returns a child logger tagged with the rule name a log line is
// about.
func (l *Logger) WithRule(name string) *Logger {
	return &Logger{z: l.z.With(zap.String("rule", name))}
}

// WithSequence returns a child logger tagged with the token sequence id a
// log line is about.
func (l *Logger) WithSequence(id string) *Logger {
	return &Logger{z: l.z.With(zap.String("tseq_id", id))}
}

// Scan logs that a named extractor finished scanning a token sequence,
// reporting how long it took and how many matches it produced.
func (l *Logger) Scan(rule, seqID string, elapsedMS float64, matchCount int) {
	l.z.Info("scan",
		zap.String("rule", rule),
		zap.String("tseq_id", seqID),
		zap.Float64("elapsed_ms", elapsedMS),
		zap.Int("matches", matchCount),
	)
}

// Error logs msg with err and any additional structured fields.
func (l *Logger) Error(msg string, err error, fields ...zapcore.Field) {
	l.z.Error(msg, append(fields, zap.Error(err))...)
}

// Info logs msg with structured fields.
func (l *Logger) Info(msg string, fields ...zapcore.Field) {
	l.z.Info(msg, fields...)
}
