// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// UserIDKey is the context key for user ID
	UserIDKey contextKey = "user_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and user_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("user_id", userID))}
	}

	return newLogger
}

// WithAccountID returns a logger scoped to an account being processed.
func (l *Logger) WithAccountID(accountID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("account_id", accountID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// AccountSkipped logs a per-account batch failure. The batch run continues;
// the account stays stale until the next run.
func (l *Logger) AccountSkipped(accountID string, err error) {
	l.Error("account_skipped",
		slog.String("account_id", accountID),
		slog.String("error", err.Error()),
	)
}

// CacheDegraded logs a cache write failure after a successful computation.
// The computed payload is still served; only cache consistency is affected.
func (l *Logger) CacheDegraded(key string, err error) {
	l.Warn("cache_degraded",
		slog.String("cache_key", key),
		slog.String("error", err.Error()),
	)
}

// BatchReport logs the outcome of a full risk scan.
func (l *Logger) BatchReport(processed, created, updated, errors int, durationMs float64) {
	l.Info("risk_scan_report",
		slog.Int("accounts_processed", processed),
		slog.Int("notifications_created", created),
		slog.Int("notifications_updated", updated),
		slog.Int("errors", errors),
		slog.Float64("duration_ms", durationMs),
	)
}
