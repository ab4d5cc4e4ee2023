package log

import "context"

// Logger is the logging interface used throughout the session subsystem.
// It keeps the rest of the module decoupled from the concrete backend.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// nopLogger discards everything. Useful default for tests and for callers
// that construct components without configuring logging.
type nopLogger struct{}

// NewNop returns a Logger that discards all output.
func NewNop() Logger { return nopLogger{} }

func (nopLogger) Debug(context.Context, string, ...map[string]interface{}) {}
func (nopLogger) Info(context.Context, string, ...map[string]interface{})  {}
func (nopLogger) Warn(context.Context, string, ...map[string]interface{})  {}
func (nopLogger) Error(context.Context, string, error, ...map[string]interface{}) {
}
func (n nopLogger) With(map[string]interface{}) Logger { return n }
