// Package logger wraps the process-wide zap logger and carries request-scoped loggers
// through context.Context and gin.Context.
package logger

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
	ginLoggerKey    = "logger"
)

type ctxKey struct{}

var log = zap.NewNop()

// Init builds the global logger: JSON in production, colored console otherwise.
// An unknown level falls back to info.
func Init(level, env string) *zap.Logger {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level.SetLevel(lvl)

	built, err := cfg.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	Set(built)

	log.Info("Logger initialized", zap.String("level", lvl.String()), zap.String("env", env))
	return log
}

// Set replaces the global logger
func Set(l *zap.Logger) {
	log = l
	zap.ReplaceGlobals(l)
}

// L returns the global logger
func L() *zap.Logger {
	return log
}

// WithContext returns a copy of ctx carrying l
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger carried by ctx, or the global one
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return log
}

// FromGin returns the request logger set by Middleware
func FromGin(c *gin.Context) *zap.Logger {
	if l, ok := c.Get(ginLoggerKey); ok {
		if zl, ok := l.(*zap.Logger); ok {
			return zl
		}
	}
	return log
}

// Middleware logs every request once it is served. The request logger, tagged with the request
// id, is stored both on the gin context and on the request's context.Context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqLogger := log.With(zap.String(RequestIDKey, c.GetString(RequestIDKey)))
		c.Set(ginLoggerKey, reqLogger)
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), reqLogger))

		c.Next()

		fields := []zapcore.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if userID := c.GetString("userID"); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}

		switch {
		case len(c.Errors) > 0:
			fields = append(fields, zap.String("errors", c.Errors.String()))
			reqLogger.Error("HTTP request failed", fields...)
		case c.Writer.Status() >= 500:
			reqLogger.Error("HTTP request failed", fields...)
		default:
			reqLogger.Info("HTTP request completed", fields...)
		}
	}
}
