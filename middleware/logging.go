package middleware

import (
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/lambdakit/core/logger"
	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
	"github.com/dmitrymomot/lambdakit/core/router"
)

type startTimeContextKey struct{}

// LoggingConfig configures the access log hooks.
type LoggingConfig struct {
	// Skip defines a function to skip logging for specific requests
	Skip func(ctx *request.Context) bool

	// Logger is the slog logger to use (default: discards output)
	Logger *slog.Logger

	// LogLevel for access log entries (default: slog.LevelInfo)
	LogLevel slog.Level

	// LogHeaders enables logging of request headers (default: false for security)
	LogHeaders bool

	// SensitiveHeaders is a list of header names to redact (default: common auth headers)
	SensitiveHeaders []string

	// SlowRequestThreshold logs slow requests at warning level (default: 5s)
	SlowRequestThreshold time.Duration

	// Component name for structured logging
	Component string
}

// LoggingHooks is the pair of hooks that together produce one access log entry.
type LoggingHooks struct {
	Start router.BeforeRenderHook
	End   router.AfterRenderHook
}

// Register adds the hooks to r: Start first among beforeRender hooks and End
// last among afterRender hooks.
func (h LoggingHooks) Register(r *router.Router) {
	r.BeforeRender(h.Start, math.MinInt)
	r.AfterRender(h.End, math.MaxInt)
}

// Logging creates access log hooks with default configuration.
func Logging(log *slog.Logger) LoggingHooks {
	return LoggingWithConfig(LoggingConfig{Logger: log})
}

// LoggingWithConfig creates access log hooks with custom configuration.
func LoggingWithConfig(cfg LoggingConfig) LoggingHooks {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = slog.LevelInfo
	}
	if cfg.SensitiveHeaders == nil {
		cfg.SensitiveHeaders = []string{
			"Authorization",
			"Cookie",
			"X-Api-Key",
			"X-Auth-Token",
			"X-Csrf-Token",
		}
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}
	if cfg.Component == "" {
		cfg.Component = "function"
	}

	start := func(ctx *request.Context) (*request.Context, error) {
		ctx.SetValue(startTimeContextKey{}, time.Now())
		return ctx, nil
	}

	end := func(ctx *request.Context, env *response.Envelope) (*response.Envelope, error) {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			return env, nil
		}

		attrs := []slog.Attr{
			logger.Component(cfg.Component),
			logger.Event("request"),
			logger.Method(ctx.Method),
			logger.Path(ctx.Path),
			logger.Operation(ctx.OperationName),
			logger.StatusCode(env.StatusCode),
		}
		if id, ok := GetRequestID(ctx); ok {
			attrs = append(attrs, logger.RequestID(id))
		}

		level := cfg.LogLevel
		if began, ok := ctx.Value(startTimeContextKey{}).(time.Time); ok {
			elapsed := time.Since(began)
			attrs = append(attrs, logger.Duration(elapsed))
			if elapsed > cfg.SlowRequestThreshold {
				level = slog.LevelWarn
				attrs = append(attrs, slog.Bool("slow_request", true))
			}
		}
		if env.StatusCode >= 500 {
			level = slog.LevelError
		}

		if cfg.LogHeaders {
			headerAttrs := make([]slog.Attr, 0, len(ctx.Headers))
			for key, value := range ctx.Headers {
				if slices.ContainsFunc(cfg.SensitiveHeaders, func(s string) bool { return strings.EqualFold(s, key) }) {
					value = "[REDACTED]"
				}
				headerAttrs = append(headerAttrs, slog.String(key, value))
			}
			attrs = append(attrs, logger.Group("headers", headerAttrs...))
		}

		cfg.Logger.LogAttrs(ctx, level, "request completed", attrs...)
		return env, nil
	}

	return LoggingHooks{Start: start, End: end}
}
