package request

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/dmitrymomot/lambdakit/core/cookie"
)

// Operation body field names.
const (
	FieldOperationName = "operationName"
	FieldVersion       = "version"
	FieldToken         = "token"
	FieldPayload       = "payload"
)

// Config holds context builder settings.
type Config struct {
	OperationPath   string `env:"OPERATION_PATH" envDefault:"/operation"`
	OperationMethod string `env:"OPERATION_METHOD" envDefault:"POST"`
	MaxBodySize     int    `env:"MAX_BODY_SIZE" envDefault:"6291456"` // synchronous Lambda payload limit
}

// Builder converts raw gateway events into Contexts.
type Builder struct {
	operationPath   string
	operationMethod string
	maxBodySize     int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithOperationPath sets the path of the single operation endpoint.
func WithOperationPath(path string) BuilderOption {
	return func(b *Builder) {
		if path != "" {
			b.operationPath = path
		}
	}
}

// WithOperationMethod sets the method used for operation calls.
func WithOperationMethod(method string) BuilderOption {
	return func(b *Builder) {
		if method != "" {
			b.operationMethod = strings.ToUpper(method)
		}
	}
}

// WithMaxBodySize limits the decoded body size in bytes. Zero disables the limit.
func WithMaxBodySize(n int) BuilderOption {
	return func(b *Builder) {
		b.maxBodySize = n
	}
}

// NewBuilder creates a Builder. Defaults: operations are POST /operation.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		operationPath:   "/operation",
		operationMethod: http.MethodPost,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewBuilderFromConfig creates a Builder from cfg.
func NewBuilderFromConfig(cfg Config, opts ...BuilderOption) *Builder {
	base := []BuilderOption{
		WithOperationPath(cfg.OperationPath),
		WithOperationMethod(cfg.OperationMethod),
		WithMaxBodySize(cfg.MaxBodySize),
	}
	return NewBuilder(append(base, opts...)...)
}

// OperationPath returns the configured operation endpoint path.
func (b *Builder) OperationPath() string {
	return b.operationPath
}

// Build converts event into a Context bound to ctx.
func (b *Builder) Build(ctx context.Context, event events.APIGatewayV2HTTPRequest, inv Invocation) (*Context, error) {
	method := strings.ToUpper(event.RequestContext.HTTP.Method)
	path := event.RawPath
	if path == "" {
		path = event.RequestContext.HTTP.Path
	}
	if method == "" || path == "" {
		return nil, ErrInvalidEvent
	}

	c := New(ctx, WithMethod(method), WithPath(path))
	c.Invocation = inv

	for k, v := range event.Headers {
		c.Headers[strings.ToLower(k)] = v
	}
	maps.Copy(c.Query, event.QueryStringParameters)

	c.Host = event.RequestContext.DomainName
	if c.Host == "" {
		c.Host = c.Headers["host"]
	}

	cookieLines := append([]string(nil), event.Cookies...)
	if h := c.Headers["cookie"]; h != "" {
		cookieLines = append(cookieLines, h)
	}
	c.Cookies = cookie.Parse(cookieLines...)

	body, err := b.parseBody(event, c.Headers["content-type"])
	if err != nil {
		return nil, err
	}
	c.Body = body

	if method == b.operationMethod && path == b.operationPath {
		if name, ok := body[FieldOperationName].(string); ok && name != "" {
			c.operation = true
			c.OperationName = name
			c.OperationPayload = body[FieldPayload]
			c.version = stringField(body[FieldVersion])
			c.csrfToken = stringField(body[FieldToken])
		}
	}

	return c, nil
}

func (b *Builder) parseBody(event events.APIGatewayV2HTTPRequest, contentType string) (map[string]any, error) {
	out := make(map[string]any)
	if event.Body == "" {
		return out, nil
	}

	raw := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, errors.Join(ErrInvalidBody, err)
		}
		raw = decoded
	}
	if b.maxBodySize > 0 && len(raw) > b.maxBodySize {
		return nil, ErrBodyTooLarge
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, errors.Join(ErrInvalidBody, err)
		}
		for k, vs := range values {
			if len(vs) == 1 {
				out[k] = vs[0]
				continue
			}
			out[k] = vs
		}
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, errors.Join(ErrInvalidBody, err)
		}
	case mediaType == "":
		// Clients often omit the content type on operation calls. Best effort only.
		if err := json.Unmarshal(raw, &out); err != nil {
			return make(map[string]any), nil
		}
	}
	return out, nil
}

func stringField(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
