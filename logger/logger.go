// Package logger defines the structured logging contract shared by every
// component. Stores and handlers receive a Logger; production wiring
// hands them the logrus implementation and tests hand them a capture
// logger they can assert against.
package logger

import "context"

// Logger is a leveled, structured logger. Fields may be nil when an
// entry needs no structure beyond its message.
type Logger interface {
	// Debug logs a debug-level message with optional fields.
	Debug(ctx context.Context, msg string, fields map[string]interface{})

	// Info logs an info-level message with optional fields.
	Info(ctx context.Context, msg string, fields map[string]interface{})

	// Warn logs a warning-level message with optional fields.
	Warn(ctx context.Context, msg string, fields map[string]interface{})

	// Error logs an error-level message with optional fields.
	Error(ctx context.Context, msg string, fields map[string]interface{})

	// WithField returns a logger that stamps every entry with the field.
	WithField(key string, value interface{}) Logger

	// WithFields returns a logger that stamps every entry with the fields.
	WithFields(fields map[string]interface{}) Logger
}
