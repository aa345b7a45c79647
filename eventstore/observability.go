package eventstore

// Logger is satisfied by *slog.Logger and by any logger with the same leveled methods.
//
// Debug level: queries and file I/O with timing (development use)
// Info level: event counts, durations, concurrency conflicts
// Warn level: non-critical issues like cleanup failures
// Error level: failures that make the operation fail.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
