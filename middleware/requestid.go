package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/router"
)

type requestIDContextKey struct{}

// RequestIDConfig configures the request ID hook.
type RequestIDConfig struct {
	// Skip defines a function to skip the hook for specific requests
	Skip func(ctx *request.Context) bool
	// Generator creates new request IDs (default: the invocation ID, else UUID v4)
	Generator func(ctx *request.Context) string
	// HeaderName specifies the header name for the request ID (default: "X-Request-ID")
	HeaderName string
	// UseExisting reuses a request ID sent by the client
	UseExisting bool
}

// RequestID returns a beforeRender hook that assigns a request ID, stores it on
// the context and echoes it in the response headers.
func RequestID() router.BeforeRenderHook {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig is RequestID with custom configuration.
func RequestIDWithConfig(cfg RequestIDConfig) router.BeforeRenderHook {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Request-ID"
	}
	if cfg.Generator == nil {
		cfg.Generator = func(ctx *request.Context) string {
			if ctx.Invocation.RequestID != "" {
				return ctx.Invocation.RequestID
			}
			return uuid.New().String()
		}
	}

	return func(ctx *request.Context) (*request.Context, error) {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			return ctx, nil
		}

		var requestID string
		if cfg.UseExisting {
			requestID = ctx.Header(cfg.HeaderName)
		}
		if requestID == "" {
			requestID = cfg.Generator(ctx)
		}

		ctx.SetValue(requestIDContextKey{}, requestID)
		ctx.SetHeader(cfg.HeaderName, requestID)
		return ctx, nil
	}
}

// GetRequestID retrieves the request ID stored by the hook.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey{}).(string)
	return id, ok
}
