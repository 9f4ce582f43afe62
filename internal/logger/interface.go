package logger

import "codeberg.org/mutker/trendalarm/internal/errors"

// Logger is the logging surface injected into components that take one.
// Default() satisfies it with the package-level logger.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
}

var _ Logger = packageLogger{}
