package middleware

import (
	"errors"
	"io"
	"log/slog"

	"github.com/dmitrymomot/lambdakit/core/logger"
	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/router"
	"github.com/dmitrymomot/lambdakit/core/session"
)

// SessionConfig configures the session hook.
type SessionConfig struct {
	// Manager validates tokens and loads records (required)
	Manager *session.Manager
	// Skip defines a function to skip the hook for specific requests
	Skip func(ctx *request.Context) bool
	// Require fails the request when no valid session exists. The session error
	// reaches the router's error handler wrapped in router.ErrHookAborted.
	Require bool
	// Logger for structured logging (default: discards output)
	Logger *slog.Logger
}

// Session returns a beforeRender hook that attaches the session, if any, to the
// request context. Failures are treated as no session.
func Session(m *session.Manager) router.BeforeRenderHook {
	return SessionWithConfig(SessionConfig{Manager: m})
}

// RequireSession is Session that rejects requests without a valid session.
func RequireSession(m *session.Manager) router.BeforeRenderHook {
	return SessionWithConfig(SessionConfig{Manager: m, Require: true})
}

// SessionWithConfig creates a session hook with custom configuration.
//
//	r.BeforeRender(middleware.SessionWithConfig(middleware.SessionConfig{
//		Manager: sessions,
//		Require: true,
//		Skip: func(ctx *request.Context) bool {
//			return ctx.OperationName == "login"
//		},
//	}), 10)
//
// Operation requests must carry the CSRF token in the body; route reads only
// need a well-formed session cookie.
func SessionWithConfig(cfg SessionConfig) router.BeforeRenderHook {
	if cfg.Manager == nil {
		panic("session hook: manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return func(ctx *request.Context) (*request.Context, error) {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			return ctx, nil
		}

		ctrl := cfg.Manager.Controller(ctx)
		if !cfg.Require {
			_, _ = ctrl.FetchIfExists()
			return ctx, nil
		}

		if _, err := ctrl.Fetch(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if !IsSessionError(err) {
				cfg.Logger.ErrorContext(ctx, "session hook: failed to load session",
					logger.Component("session"),
					logger.Error(err),
				)
			}
			return nil, err
		}
		return ctx, nil
	}
}

// GetSession returns the session attached to ctx.
func GetSession(ctx *request.Context) (*session.Record, bool) {
	rec := session.RecordFrom(ctx.Session)
	return rec, rec != nil
}

// IsSessionError reports whether err means the caller has no usable session,
// as opposed to a store failure.
func IsSessionError(err error) bool {
	return errors.Is(err, session.ErrTokensInvalid) ||
		errors.Is(err, session.ErrNotFound) ||
		errors.Is(err, session.ErrInvalid)
}
