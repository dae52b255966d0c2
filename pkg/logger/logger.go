package logger

// Sink is a logging backend. The package-level logging functions fan
// every record out to all registered sinks.
type Sink interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Logger dispatches log records to a set of sinks.
type Logger struct {
	sinks []Sink
}

var singleton *Logger

// Init installs the global logger with one or more sinks. Call it once
// at process start before any logging function; calls made without an
// initialized logger are dropped silently.
func Init(sinks ...Sink) {
	singleton = &Logger{sinks: sinks}
}

// Debug writes a record at DEBUG level to all sinks.
func Debug(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	for _, sink := range singleton.sinks {
		sink.Debug(message, keyvals...)
	}
}

// Info writes a record at INFO level to all sinks.
func Info(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	for _, sink := range singleton.sinks {
		sink.Info(message, keyvals...)
	}
}

// Warn writes a record at WARN level to all sinks.
func Warn(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	for _, sink := range singleton.sinks {
		sink.Warn(message, keyvals...)
	}
}

// Error writes a record at ERROR level to all sinks.
func Error(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	for _, sink := range singleton.sinks {
		sink.Error(message, keyvals...)
	}
}

// Fatal writes a record at FATAL level and terminates the process.
func Fatal(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	for _, sink := range singleton.sinks {
		sink.Fatal(message, keyvals...)
	}
}
