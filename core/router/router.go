package router

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
)

// ActionFunc handles a matched request.
type ActionFunc func(ctx *request.Context, res *Resolver) (*response.Envelope, error)

// Validator checks a payload before the action runs.
type Validator interface {
	Validate(v any) error
}

type action struct {
	cond      Condition
	fn        ActionFunc
	name      string
	validator Validator
}

// Router collects actions and hooks during setup. Build freezes them into a
// Dispatcher; registering on the Router afterwards does not affect dispatchers
// already built.
type Router struct {
	mu       sync.Mutex
	seq      int
	actions  []action
	created  []hook[CreatedHook]
	before   []hook[BeforeRenderHook]
	after    []hook[AfterRenderHook]
	fallback []hook[FallbackHook]
	started  bool

	logger            *slog.Logger
	errorHandler      ErrorHandler
	validationHandler ValidationHandler
	fallbackAction    ActionFunc
	expectedVersion   string
	apiVersion        string
	cors              *response.CORS
	builder           *request.Builder
}

// New creates a Router.
func New(opts ...Option) *Router {
	r := &Router{
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		validationHandler: defaultValidationHandler,
		fallbackAction:    defaultFallbackAction,
		builder:           request.NewBuilder(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromConfig creates a Router from cfg. Extra opts are applied last.
func NewFromConfig(cfg Config, opts ...Option) *Router {
	base := []Option{
		WithExpectedVersion(cfg.ExpectedVersion),
		WithBuilder(request.NewBuilderFromConfig(cfg.Request)),
	}
	if len(cfg.CORSOrigins) > 0 {
		base = append(base, WithCORS(response.CORS{AllowOrigins: cfg.CORSOrigins}))
	}
	return New(append(base, opts...)...)
}

// Register appends an action. Entries are matched in registration order and
// the first match wins. Register panics on an invalid condition or nil action.
func (r *Router) Register(cond Condition, fn ActionFunc, opts ...ActionOption) *Router {
	if !cond.valid() {
		panic(ErrInvalidCondition)
	}
	if fn == nil {
		panic(fmt.Errorf("%w for %s", ErrNilAction, cond))
	}

	a := action{cond: cond, fn: fn, name: cond.String()}
	for _, opt := range opts {
		opt(&a)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
	return r
}

// Get registers a GET route for a path template.
func (r *Router) Get(template string, fn ActionFunc, opts ...ActionOption) *Router {
	return r.Register(Path(template), fn, opts...)
}

// Operation registers an operation by exact name.
func (r *Router) Operation(name string, fn ActionFunc, opts ...ActionOption) *Router {
	return r.Register(Operation(name), fn, opts...)
}

// Match registers a GET route for paths matching expr. Match panics if expr
// does not compile.
func (r *Router) Match(expr string, fn ActionFunc, opts ...ActionOption) *Router {
	return r.Register(Pattern(regexp.MustCompile(expr)), fn, opts...)
}

// OperationMatch registers an operation for names matching expr.
func (r *Router) OperationMatch(expr string, fn ActionFunc, opts ...ActionOption) *Router {
	return r.Register(OperationPattern(regexp.MustCompile(expr)), fn, opts...)
}

// When registers an action guarded by a predicate.
func (r *Router) When(pred func(*request.Context) bool, fn ActionFunc, opts ...ActionOption) *Router {
	return r.Register(Predicate(pred), fn, opts...)
}

// OnCreated registers a hook that runs once in Build.
func (r *Router) OnCreated(fn CreatedHook, priority ...int) *Router {
	if fn == nil {
		return r
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, hook[CreatedHook]{priority: priorityOf(priority), seq: r.next(), fn: fn})
	return r
}

// BeforeRender registers a hook that runs after a match, before the action.
func (r *Router) BeforeRender(fn BeforeRenderHook, priority ...int) *Router {
	if fn == nil {
		return r
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.before = append(r.before, hook[BeforeRenderHook]{priority: priorityOf(priority), seq: r.next(), fn: fn})
	return r
}

// AfterRender registers a hook that runs after the action.
func (r *Router) AfterRender(fn AfterRenderHook, priority ...int) *Router {
	if fn == nil {
		return r
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.after = append(r.after, hook[AfterRenderHook]{priority: priorityOf(priority), seq: r.next(), fn: fn})
	return r
}

// Fallback registers a hook that runs when no action matched.
func (r *Router) Fallback(fn FallbackHook, priority ...int) *Router {
	if fn == nil {
		return r
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = append(r.fallback, hook[FallbackHook]{priority: priorityOf(priority), seq: r.next(), fn: fn})
	return r
}

func (r *Router) next() int {
	r.seq++
	return r.seq
}

// Build returns an immutable Dispatcher. The created hooks run on the first
// successful Build only; later calls take a fresh snapshot without them.
func (r *Router) Build() (*Dispatcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		for _, fn := range sortHooks(r.created) {
			if err := fn(); err != nil {
				return nil, errors.Join(ErrCreatedHook, err)
			}
		}
		r.started = true
	}

	apiVersion := r.apiVersion
	if apiVersion == "" {
		apiVersion = r.expectedVersion
	}

	d := &Dispatcher{
		actions:           slices.Clone(r.actions),
		before:            sortHooks(r.before),
		after:             sortHooks(r.after),
		fallback:          sortHooks(r.fallback),
		logger:            r.logger,
		errorHandler:      r.errorHandler,
		validationHandler: r.validationHandler,
		fallbackAction:    r.fallbackAction,
		expectedVersion:   r.expectedVersion,
		apiVersion:        apiVersion,
		builder:           r.builder,
	}
	if r.cors != nil {
		cors := *r.cors
		d.cors = &cors
	}

	names := make([]string, len(d.actions))
	for i, a := range d.actions {
		names[i] = a.name
	}
	r.logger.Debug("dispatcher built",
		slog.Int("actions", len(d.actions)),
		slog.String("order", strings.Join(names, ", ")),
	)
	return d, nil
}
