// Package logger builds the structured slog loggers shared by the monitor,
// the rotation worker and the status API. Production output is JSON, every
// other environment gets the human readable text handler.
package logger
