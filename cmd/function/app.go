package main

import (
	"context"
	"embed"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/dmitrymomot/lambdakit/core/health"
	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
	"github.com/dmitrymomot/lambdakit/core/router"
	"github.com/dmitrymomot/lambdakit/core/session"
	"github.com/dmitrymomot/lambdakit/core/validator"
	"github.com/dmitrymomot/lambdakit/middleware"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// rememberTTL is the session lifetime when login asks to be remembered.
const rememberTTL = 30 * 24 * time.Hour

// publicOperations run without a session.
var publicOperations = map[string]bool{
	"login": true,
}

type app struct {
	sessions *session.Manager
	schemas  *validator.Registry
	health   func(context.Context) error
	log      *slog.Logger
}

func (a *app) dispatcher(cfg router.Config) (*router.Dispatcher, error) {
	r := router.NewFromConfig(cfg,
		router.WithLogger(a.log),
		router.WithErrorHandler(errorHandler),
	)

	middleware.Logging(a.log).Register(r)
	r.BeforeRender(middleware.RequestID(), -10)
	r.BeforeRender(middleware.SecurityHeadersStrict())
	r.BeforeRender(middleware.SessionWithConfig(middleware.SessionConfig{
		Manager: a.sessions,
		Require: true,
		Logger:  a.log,
		Skip: func(ctx *request.Context) bool {
			return !ctx.IsOperation() || publicOperations[ctx.OperationName]
		},
	}), 10)

	r.OnCreated(func() error {
		a.log.Info("dispatcher ready", slog.Any("schemas", a.schemas.Names()))
		return nil
	})

	login, err := a.schemas.Get("login")
	if err != nil {
		return nil, err
	}
	profile, err := a.schemas.Get("updateProfile")
	if err != nil {
		return nil, err
	}

	r.Get("/ping", health.NoContent)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness(a.log, a.health))
	r.Get("/session", a.currentSessionAction)
	r.Operation("login", a.loginAction, router.WithValidator(login))
	r.Operation("whoami", a.whoamiAction)
	r.Operation("updateProfile", a.updateProfileAction, router.WithValidator(profile))
	r.Operation("logout", a.logoutAction)
	r.Operation("logoutAll", a.logoutAllAction)

	return r.Build()
}

// currentSessionAction reports whether the session cookie is valid without
// requiring one.
func (a *app) currentSessionAction(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
	rec, _ := a.sessions.Controller(ctx).FetchIfExists()
	if rec == nil {
		return res.JSON(map[string]any{"authenticated": false})
	}
	return res.JSON(map[string]any{
		"authenticated": true,
		"expiresAt":     rec.ExpiresAt,
	})
}

func (a *app) loginAction(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
	payload, _ := ctx.OperationPayload.(map[string]any)
	email, _ := payload["email"].(string)

	var ttl time.Duration
	if remember, _ := payload["remember"].(bool); remember {
		ttl = rememberTTL
	}

	rec, err := a.sessions.Controller(ctx).Create(email, map[string]any{"email": email}, ttl)
	if err != nil {
		return nil, err
	}
	ctx.LogToResponse("session created")
	return res.Operation(map[string]any{
		"csrfToken": rec.CSRFToken,
		"expiresAt": rec.ExpiresAt,
	})
}

func (a *app) whoamiAction(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
	rec, _ := middleware.GetSession(ctx)
	return res.Operation(rec.Data)
}

func (a *app) updateProfileAction(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
	rec, _ := middleware.GetSession(ctx)
	payload, _ := ctx.OperationPayload.(map[string]any)

	data := maps.Clone(rec.Data)
	if data == nil {
		data = make(map[string]any, len(payload))
	}
	maps.Copy(data, payload)
	if err := a.sessions.Controller(ctx).Update(rec, data); err != nil {
		return nil, err
	}
	return res.Operation(data)
}

func (a *app) logoutAction(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
	rec, _ := middleware.GetSession(ctx)
	if err := a.sessions.Controller(ctx).End(rec); err != nil {
		return nil, err
	}
	return res.Operation(nil, response.WithMessage("signed out"))
}

func (a *app) logoutAllAction(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
	rec, _ := middleware.GetSession(ctx)
	if err := a.sessions.Controller(ctx).EndAll(rec); err != nil {
		return nil, err
	}
	return res.Operation(nil, response.WithMessage("signed out everywhere"))
}

// errorHandler answers operations with the protocol envelope: session failures
// become sessionExpired so clients re-authenticate, anything else a generic
// error message. Route failures fall back to the default 500.
func errorHandler(err error, ctx *request.Context, res *router.Resolver, _ []any) *response.Envelope {
	expired := middleware.IsSessionError(err)

	if ctx != nil && ctx.IsOperation() {
		opt := response.WithErrorMessage("internal error")
		if expired {
			opt = response.WithSessionExpired()
		}
		env, encErr := res.Operation(nil, opt)
		if encErr == nil {
			return env
		}
	}
	if expired {
		return response.TextWithStatus(http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
	return nil
}
