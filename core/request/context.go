package request

import (
	"context"
	"strings"
	"time"
)

// Header is one queued response header operation.
type Header struct {
	Key   string
	Value string
}

// Invocation carries host-runtime metadata for one invocation.
type Invocation struct {
	RequestID   string
	FunctionARN string
	Deadline    time.Time
}

// Context is the canonical per-invocation request. It implements context.Context
// by delegating to the invocation's Go context, so it can be passed to stores
// and clients directly.
//
// A Context is owned by a single invocation and is not safe for concurrent use.
type Context struct {
	Host    string
	Path    string
	Method  string
	Query   map[string]string
	Body    map[string]any
	Cookies map[string]string
	Headers map[string]string // lower-cased keys

	// PathParams holds parameters extracted by the matched route condition.
	PathParams map[string]string

	// OperationName and OperationPayload are set only for operation invocations.
	OperationName    string
	OperationPayload any

	// Session holds the attached session record, nil when none.
	Session any

	Invocation Invocation

	ctx           context.Context
	setHeaders    []Header
	appendHeaders []Header
	responseLogs  []any
	operation     bool
	version       string
	csrfToken     string
}

// Option configures a Context created by New.
type Option func(*Context)

// New creates a Context bound to ctx. Without options it is a GET request for "/".
func New(ctx context.Context, opts ...Option) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Context{
		Path:       "/",
		Method:     "GET",
		Query:      make(map[string]string),
		Body:       make(map[string]any),
		Cookies:    make(map[string]string),
		Headers:    make(map[string]string),
		PathParams: make(map[string]string),
		ctx:        ctx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithMethod sets the request method.
func WithMethod(method string) Option {
	return func(c *Context) {
		c.Method = strings.ToUpper(method)
	}
}

// WithPath sets the request path.
func WithPath(path string) Option {
	return func(c *Context) {
		c.Path = path
	}
}

// WithCookie sets a request cookie.
func WithCookie(name, value string) Option {
	return func(c *Context) {
		c.Cookies[name] = value
	}
}

// WithHeader sets a request header. The key is lower-cased.
func WithHeader(key, value string) Option {
	return func(c *Context) {
		c.Headers[strings.ToLower(key)] = value
	}
}

// WithOperation marks the request as an operation invocation.
func WithOperation(name string, payload any) Option {
	return func(c *Context) {
		c.operation = true
		c.OperationName = name
		c.OperationPayload = payload
	}
}

// WithVersion sets the client-declared protocol version.
func WithVersion(version string) Option {
	return func(c *Context) {
		c.version = version
	}
}

// WithCSRFToken sets the CSRF token carried in the operation body.
func WithCSRFToken(token string) Option {
	return func(c *Context) {
		c.csrfToken = token
	}
}

// Deadline delegates to the invocation context.
func (c *Context) Deadline() (deadline time.Time, ok bool) {
	return c.ctx.Deadline()
}

// Done delegates to the invocation context.
func (c *Context) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Err delegates to the invocation context.
func (c *Context) Err() error {
	return c.ctx.Err()
}

// Value delegates to the invocation context.
func (c *Context) Value(key any) any {
	return c.ctx.Value(key)
}

// SetValue stores a value retrievable through Value.
func (c *Context) SetValue(key, val any) {
	c.ctx = context.WithValue(c.ctx, key, val)
}

// IsOperation reports whether the invocation targets the operation endpoint.
func (c *Context) IsOperation() bool {
	return c.operation
}

// Version returns the client-declared protocol version, empty when undeclared.
func (c *Context) Version() string {
	return c.version
}

// CSRFToken returns the CSRF token from the operation body.
func (c *Context) CSRFToken() string {
	return c.csrfToken
}

// Cookie returns the named request cookie or "".
func (c *Context) Cookie(name string) string {
	return c.Cookies[name]
}

// Header returns the request header value or "". Lookup is case-insensitive.
func (c *Context) Header(key string) string {
	return c.Headers[strings.ToLower(key)]
}

// Param returns a path parameter extracted by the matched condition.
func (c *Context) Param(key string) string {
	return c.PathParams[key]
}

// SetHeader queues a response header that replaces existing values for key.
func (c *Context) SetHeader(key, value string) {
	c.setHeaders = append(c.setHeaders, Header{Key: key, Value: value})
}

// AppendHeader queues a response header value appended to key.
func (c *Context) AppendHeader(key, value string) {
	c.appendHeaders = append(c.appendHeaders, Header{Key: key, Value: value})
}

// HeaderSets returns the queued replace operations in call order.
func (c *Context) HeaderSets() []Header {
	return c.setHeaders
}

// HeaderAppends returns the queued append operations in call order.
func (c *Context) HeaderAppends() []Header {
	return c.appendHeaders
}

// LogToResponse records a diagnostic entry that surfaces in the operation
// response log list unless the action supplies one explicitly.
func (c *Context) LogToResponse(entry any) {
	c.responseLogs = append(c.responseLogs, entry)
}

// ResponseLogs returns the recorded diagnostic entries.
func (c *Context) ResponseLogs() []any {
	return c.responseLogs
}

// AttachSession sets the session record. A nil value clears it.
func (c *Context) AttachSession(s any) {
	c.Session = s
}
