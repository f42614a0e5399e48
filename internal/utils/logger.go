package utils

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// Logger is the minimal structured logging surface used across handlers and
// middleware. Arguments follow slog's alternating key/value convention.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// SlogLogger adapts *slog.Logger to the Logger interface.
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) Logger {
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

// ContextLogger attaches a request-scoped logger carrying the request ID to
// both the gin context and the request context.
func ContextLogger(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestLogger := logger
		if requestID := c.GetString("request_id"); requestID != "" {
			requestLogger = logger.With("request_id", requestID)
		}

		c.Set("logger", requestLogger)
		ctx := context.WithValue(c.Request.Context(), loggerContextKey, requestLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// LoggerFromContext returns the request-scoped logger, or nil when the
// middleware did not run.
func LoggerFromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerContextKey).(Logger); ok {
		return logger
	}
	return nil
}

// LoggerMiddleware logs one structured line per request after completion.
func LoggerMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if query != "" {
			args = append(args, "query", query)
		}
		if requestID := c.GetString("request_id"); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
			logger.Error("request completed", args...)
			return
		}

		logger.Info("request completed", args...)
	}
}
