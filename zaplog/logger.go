// Package zaplog adapts a zap logger for use as the target of log messages
// produced by a stream manager.
package zaplog

import (
	"fmt"

	"github.com/dogmatiq/dodeca/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a logging.Logger that writes to a zap logger.
//
// Regular messages are written at the info level, debug messages at the debug
// level.
type Logger struct {
	Target *zap.Logger
}

var _ logging.Logger = (*Logger)(nil)

// New returns a logger that writes to z.
//
// If z is nil, a no-op logger is used.
func New(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}

	return &Logger{z}
}

// Log writes an application log message formatted according to a format
// specifier.
func (l *Logger) Log(f string, v ...interface{}) {
	l.write(zapcore.InfoLevel, fmt.Sprintf(f, v...))
}

// LogString writes a pre-formatted application log message.
func (l *Logger) LogString(s string) {
	l.write(zapcore.InfoLevel, s)
}

// Debug writes a debug log message formatted according to a format
// specifier.
func (l *Logger) Debug(f string, v ...interface{}) {
	if l.IsDebug() {
		l.write(zapcore.DebugLevel, fmt.Sprintf(f, v...))
	}
}

// DebugString writes a pre-formatted debug log message.
func (l *Logger) DebugString(s string) {
	l.write(zapcore.DebugLevel, s)
}

// IsDebug returns true if the underlying zap core accepts debug messages.
func (l *Logger) IsDebug() bool {
	return l.Target.Core().Enabled(zapcore.DebugLevel)
}

func (l *Logger) write(lvl zapcore.Level, s string) {
	if ce := l.Target.Check(lvl, s); ce != nil {
		ce.Write()
	}
}
