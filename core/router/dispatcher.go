package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/events"

	"github.com/dmitrymomot/lambdakit/core/logger"
	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
)

// Dispatcher is the frozen snapshot produced by Router.Build. It is immutable
// and safe for concurrent use.
type Dispatcher struct {
	actions  []action
	before   []BeforeRenderHook
	after    []AfterRenderHook
	fallback []FallbackHook

	logger            *slog.Logger
	errorHandler      ErrorHandler
	validationHandler ValidationHandler
	fallbackAction    ActionFunc
	expectedVersion   string
	apiVersion        string
	cors              *response.CORS
	builder           *request.Builder
}

// Handle builds the request context from event and serves it. Every failure,
// including panics, is turned into an envelope by the error boundary.
func (d *Dispatcher) Handle(ctx context.Context, event events.APIGatewayV2HTTPRequest, inv request.Invocation) (env *response.Envelope) {
	defer func() {
		if p := recover(); p != nil {
			env = d.handleError(&panicError{value: p, stack: debug.Stack()}, nil, newResolver(nil, d.apiVersion, &completion{}))
		}
	}()

	rc, err := d.builder.Build(ctx, event, inv)
	if err != nil {
		return d.handleError(err, nil, newResolver(nil, d.apiVersion, &completion{}))
	}
	return d.Serve(rc)
}

// Serve runs the pipeline for an already built context.
func (d *Dispatcher) Serve(rc *request.Context) (env *response.Envelope) {
	done := &completion{}
	res := newResolver(rc, d.apiVersion, done)

	defer func() {
		if p := recover(); p != nil {
			if died := done.resolved(); died != nil {
				env = died
				return
			}
			env = d.handleError(&panicError{value: p, stack: debug.Stack()}, rc, res)
		}
	}()

	if d.cors != nil && rc.Method == http.MethodOptions {
		return response.CORSPreflight(*d.cors, rc.Header("origin"))
	}

	if d.versionExpired(rc) {
		d.logger.DebugContext(rc, "operation version expired",
			logger.Operation(rc.OperationName),
			slog.String("declared", rc.Version()),
			slog.String("expected", d.expectedVersion),
		)
		out, err := res.Operation(nil, response.WithVersionExpired())
		if err != nil {
			return d.handleError(err, rc, res)
		}
		return out
	}

	var (
		out *response.Envelope
		err error
	)
	if a, ok := d.match(rc); ok {
		rc, out, err = d.runAction(rc, a, done)
	} else {
		rc, out, err = d.runFallback(rc, done)
	}

	if died := done.resolved(); died != nil {
		return died
	}
	if err != nil {
		return d.handleError(err, rc, newResolver(rc, d.apiVersion, done))
	}
	if err := done.resolve(out); err != nil {
		if died := done.resolved(); died != nil {
			return died
		}
		return d.handleError(err, rc, newResolver(rc, d.apiVersion, done))
	}
	return out
}

func (d *Dispatcher) versionExpired(rc *request.Context) bool {
	if d.expectedVersion == "" || !rc.IsOperation() {
		return false
	}
	v := rc.Version()
	return v != "" && v != d.expectedVersion
}

func (d *Dispatcher) match(rc *request.Context) (action, bool) {
	for _, a := range d.actions {
		params, ok := a.cond.match(rc)
		if !ok {
			continue
		}
		for k, v := range params {
			rc.PathParams[k] = v
		}
		return a, true
	}
	return action{}, false
}

func (d *Dispatcher) runAction(rc *request.Context, a action, done *completion) (*request.Context, *response.Envelope, error) {
	d.logger.DebugContext(rc, "action matched",
		logger.Method(rc.Method),
		logger.Path(rc.Path),
		logger.Operation(rc.OperationName),
		slog.String("action", a.name),
	)

	for _, fn := range d.before {
		next, err := fn(rc)
		if err != nil {
			return rc, nil, errors.Join(ErrHookAborted, err)
		}
		if next != nil {
			rc = next
		}
	}

	res := newResolver(rc, d.apiVersion, done)

	if a.validator != nil {
		subject := any(rc.Body)
		if rc.IsOperation() {
			subject = rc.OperationPayload
		}
		if err := a.validator.Validate(subject); err != nil {
			d.logger.DebugContext(rc, "payload rejected", slog.String("action", a.name), logger.Error(err))
			out := d.validationHandler(fmt.Errorf("%w: %w", ErrValidationFailed, err), rc, res)
			if out == nil {
				out = defaultValidationHandler(err, rc, res)
			}
			return rc, d.applyHeaders(rc, out), nil
		}
	}

	out, err := a.fn(rc, res)
	if done.resolved() != nil {
		return rc, nil, nil
	}
	if err != nil {
		return rc, nil, errors.Join(ErrActionFailed, err)
	}
	if out == nil {
		return rc, nil, ErrNilResponse
	}

	for _, fn := range d.after {
		next, err := fn(rc, out)
		if err != nil {
			return rc, nil, errors.Join(ErrHookAborted, err)
		}
		if next != nil {
			out = next
		}
	}

	return rc, d.applyHeaders(rc, out), nil
}

func (d *Dispatcher) runFallback(rc *request.Context, done *completion) (*request.Context, *response.Envelope, error) {
	for _, fn := range d.fallback {
		next, err := fn(rc)
		if err != nil {
			return rc, nil, errors.Join(ErrHookAborted, err)
		}
		if next != nil {
			rc = next
		}
	}

	out, err := d.fallbackAction(rc, newResolver(rc, d.apiVersion, done))
	if done.resolved() != nil {
		return rc, nil, nil
	}
	if err != nil {
		return rc, nil, errors.Join(ErrActionFailed, err)
	}
	if out == nil {
		return rc, nil, ErrNilResponse
	}
	return rc, d.applyHeaders(rc, out), nil
}

// applyHeaders applies queued header sets, then queued appends.
func (d *Dispatcher) applyHeaders(rc *request.Context, env *response.Envelope) *response.Envelope {
	for _, h := range rc.HeaderSets() {
		env.SetHeader(h.Key, h.Value)
	}
	for _, h := range rc.HeaderAppends() {
		env.AddHeader(h.Key, h.Value)
	}

	if d.cors != nil {
		if origin := rc.Header("origin"); d.cors.AllowsOrigin(origin) {
			env.SetHeader("Access-Control-Allow-Origin", origin)
			env.AddHeader("Vary", "Origin")
			if d.cors.AllowCredentials {
				env.SetHeader("Access-Control-Allow-Credentials", "true")
			}
		}
	}
	return env
}

func defaultFallbackAction(_ *request.Context, res *Resolver) (*response.Envelope, error) {
	return res.NoContent()
}
