// Package logging provides the engine-wide logger interface. It defaults to
// a structured log/slog handler, wiring slog.NewTextHandler at the level
// passed to NewSlog, so callers that don't care can still just call the
// package-level functions.
package logging

import (
	"fmt"
	"log/slog"
	"os"
)

// Logger is the narrow interface the engine logs through: a Printf-only
// logger widened with leveled methods since the pipeline needs to
// distinguish warnings (recoverable decode errors) from plain info (status
// lines).
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debugf(format string, args ...any) { s.l.Debug(sprintf(format, args...)) }
func (s *slogLogger) Infof(format string, args ...any)  { s.l.Info(sprintf(format, args...)) }
func (s *slogLogger) Warnf(format string, args ...any)  { s.l.Warn(sprintf(format, args...)) }
func (s *slogLogger) Errorf(format string, args ...any) { s.l.Error(sprintf(format, args...)) }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

var defaultLogger Logger = NewSlog(slog.LevelInfo)

// NewSlog builds a text-handler-backed Logger writing to stderr at the given
// minimum level, the same handler shape cmd/prism/main.go constructs.
func NewSlog(level slog.Level) Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &slogLogger{l: slog.New(h)}
}

// Default returns the process-wide logger.
func Default() Logger { return defaultLogger }

// SetDefault replaces the process-wide logger, e.g. to raise verbosity for
// -loglevel debug or to redirect into a -report file.
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}

func Debugf(format string, args ...any) { defaultLogger.Debugf(format, args...) }
func Infof(format string, args ...any)  { defaultLogger.Infof(format, args...) }
func Warnf(format string, args ...any)  { defaultLogger.Warnf(format, args...) }
func Errorf(format string, args ...any) { defaultLogger.Errorf(format, args...) }
