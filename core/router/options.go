package router

import (
	"log/slog"

	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
)

// Config holds dispatcher settings loadable from the environment.
type Config struct {
	// ExpectedVersion enables the protocol version check for operations.
	ExpectedVersion string `env:"API_VERSION" envDefault:""`
	// CORSOrigins enables preflight acknowledgement for the listed origins.
	CORSOrigins []string       `env:"CORS_ALLOW_ORIGINS" envSeparator:","`
	Request     request.Config `envPrefix:""`
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used by the dispatcher.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithErrorHandler sets the error boundary handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Router) {
		if h != nil {
			r.errorHandler = h
		}
	}
}

// WithValidationHandler sets the handler for payload validation failures.
func WithValidationHandler(h ValidationHandler) Option {
	return func(r *Router) {
		if h != nil {
			r.validationHandler = h
		}
	}
}

// WithFallbackAction sets the action run when nothing matched. The default
// responds 204 No Content.
func WithFallbackAction(fn ActionFunc) Option {
	return func(r *Router) {
		if fn != nil {
			r.fallbackAction = fn
		}
	}
}

// WithExpectedVersion enables the protocol version check: operations declaring
// a different non-empty version get a versionExpired envelope. The version is
// also reported as apiVersion unless WithAPIVersion overrides it.
func WithExpectedVersion(version string) Option {
	return func(r *Router) {
		r.expectedVersion = version
	}
}

// WithAPIVersion sets the apiVersion reported in operation envelopes.
func WithAPIVersion(version string) Option {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithCORS enables preflight acknowledgement and Access-Control-Allow-Origin
// on regular responses.
func WithCORS(cfg response.CORS) Option {
	return func(r *Router) {
		r.cors = &cfg
	}
}

// WithBuilder sets the request context builder.
func WithBuilder(b *request.Builder) Option {
	return func(r *Router) {
		if b != nil {
			r.builder = b
		}
	}
}

// ActionOption configures a registered action.
type ActionOption func(*action)

// WithName names the action for logs.
func WithName(name string) ActionOption {
	return func(a *action) {
		a.name = name
	}
}

// WithValidator validates the operation payload (or the route body) before the
// action runs.
func WithValidator(v Validator) ActionOption {
	return func(a *action) {
		a.validator = v
	}
}
