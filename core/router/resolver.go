package router

import (
	"net/http"
	"sync/atomic"

	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
)

// completion is the one-shot outcome of an invocation.
type completion struct {
	env atomic.Pointer[response.Envelope]
}

func (c *completion) resolve(env *response.Envelope) error {
	if env == nil {
		return ErrNilResponse
	}
	if !c.env.CompareAndSwap(nil, env) {
		return ErrAlreadyResolved
	}
	return nil
}

func (c *completion) resolved() *response.Envelope {
	return c.env.Load()
}

// Resolver builds envelopes with knowledge of the current request.
// Envelopes built through a resolver returned by Die complete the invocation
// immediately: afterRender hooks and header post-processing are skipped.
type Resolver struct {
	ctx        *request.Context
	apiVersion string
	done       *completion
	immediate  bool
}

func newResolver(ctx *request.Context, apiVersion string, done *completion) *Resolver {
	return &Resolver{ctx: ctx, apiVersion: apiVersion, done: done}
}

// Die returns a resolver whose builders complete the invocation immediately.
func (r *Resolver) Die() *Resolver {
	d := *r
	d.immediate = true
	return &d
}

// IsImmediate reports whether the resolver was returned by Die.
func (r *Resolver) IsImmediate() bool {
	return r.immediate
}

// APIVersion returns the version reported in operation envelopes.
func (r *Resolver) APIVersion() string {
	return r.apiVersion
}

// Send passes env through, completing the invocation when immediate.
func (r *Resolver) Send(env *response.Envelope) (*response.Envelope, error) {
	return r.finish(env, nil)
}

// JSON responds 200 with v encoded as JSON.
func (r *Resolver) JSON(v any) (*response.Envelope, error) {
	return r.finish(response.JSON(v))
}

// JSONWithStatus responds with v encoded as JSON and the given status.
func (r *Resolver) JSONWithStatus(v any, status int) (*response.Envelope, error) {
	return r.finish(response.JSONWithStatus(v, status))
}

// Text responds 200 with a plain text body.
func (r *Resolver) Text(content string) (*response.Envelope, error) {
	return r.finish(response.Text(content), nil)
}

// HTML responds 200 with a base64-encoded HTML body.
func (r *Resolver) HTML(content string) (*response.Envelope, error) {
	return r.finish(response.HTML(content), nil)
}

// XML responds 200 with a base64-encoded XML body.
func (r *Resolver) XML(content string) (*response.Envelope, error) {
	return r.finish(response.XML(content), nil)
}

// Redirect responds with a Location header. The default status is 302.
func (r *Resolver) Redirect(url string, status ...int) (*response.Envelope, error) {
	return r.finish(response.Redirect(url, status...), nil)
}

// NotFound responds 404.
func (r *Resolver) NotFound() (*response.Envelope, error) {
	return r.finish(response.NotFound(), nil)
}

// NoContent responds 204.
func (r *Resolver) NoContent() (*response.Envelope, error) {
	return r.finish(response.NoContent(), nil)
}

// Status responds with an empty body and the given status.
func (r *Resolver) Status(code int) (*response.Envelope, error) {
	return r.finish(response.Status(code), nil)
}

// Raw responds with the envelope fields as given.
func (r *Resolver) Raw(status int, body string, headers http.Header, isBinary bool) (*response.Envelope, error) {
	return r.finish(response.Raw(status, body, headers, isBinary), nil)
}

// Operation responds with an operation envelope. The log list defaults to the
// entries recorded with LogToResponse unless WithLogList is passed.
func (r *Resolver) Operation(payload any, opts ...response.OperationOption) (*response.Envelope, error) {
	return r.OperationWithStatus(payload, http.StatusOK, opts...)
}

// OperationWithStatus is Operation with a custom status code.
func (r *Resolver) OperationWithStatus(payload any, status int, opts ...response.OperationOption) (*response.Envelope, error) {
	all := opts
	if r.ctx != nil {
		if logs := r.ctx.ResponseLogs(); len(logs) > 0 {
			all = append([]response.OperationOption{response.WithLogList(logs)}, opts...)
		}
	}
	return r.finish(response.OperationWithStatus(r.apiVersion, payload, status, all...))
}

func (r *Resolver) finish(env *response.Envelope, err error) (*response.Envelope, error) {
	if err != nil || !r.immediate {
		return env, err
	}
	if err := r.done.resolve(env); err != nil {
		return nil, err
	}
	return env, nil
}
