package events

import (
	"context"
	"os"
)

type contextKey int

const (
	loggerKey contextKey = iota
	runIDKey
	platformKey
)

// FromContext extracts logger from context.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	// Return default logger
	return defaultLogger
}

// WithLogger adds logger to context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithRunID adds a verification run ID to context.
func WithRunID(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx).WithField("run_id", id)
	ctx = context.WithValue(ctx, runIDKey, id)
	return WithLogger(ctx, logger)
}

// WithPlatform adds the dataset platform tag to context.
func WithPlatform(ctx context.Context, platform string) context.Context {
	logger := FromContext(ctx).WithField("platform", platform)
	ctx = context.WithValue(ctx, platformKey, platform)
	return WithLogger(ctx, logger)
}

// GetRunID retrieves the run ID from context.
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// GetPlatform retrieves the platform tag from context.
func GetPlatform(ctx context.Context) string {
	if p, ok := ctx.Value(platformKey).(string); ok {
		return p
	}
	return ""
}

var defaultLogger = &Logger{
	level:  InfoLevel,
	format: "text",
	output: os.Stderr,
	fields: make(map[string]interface{}),
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
