package logger

// NoOpLogger discards everything.
type NoOpLogger struct{}

// NewNoOp returns a logger that does nothing.
func NewNoOp() Interface {
	return NoOpLogger{}
}

func (NoOpLogger) Debug(string, ...any)    {}
func (NoOpLogger) Info(string, ...any)     {}
func (NoOpLogger) Warn(string, ...any)     {}
func (NoOpLogger) Error(string, ...any)    {}
func (n NoOpLogger) With(...any) Interface { return n }
func (NoOpLogger) Sync() error             { return nil }
