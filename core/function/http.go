package function

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
	"github.com/dmitrymomot/lambdakit/core/router"
)

// DefaultMaxBodySize matches the synchronous Lambda invocation payload limit.
const DefaultMaxBodySize = 6 << 20

// HTTPHandler serves d over net/http, converting each request to the event
// shape the gateway would deliver. Intended for local development.
func HTTPHandler(d *router.Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		event, err := EventFromRequest(r, DefaultMaxBodySize)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, ErrBodyTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, http.StatusText(status), status)
			return
		}

		inv := request.Invocation{RequestID: event.RequestContext.RequestID}
		if deadline, ok := r.Context().Deadline(); ok {
			inv.Deadline = deadline
		}
		WriteEnvelope(w, d.Handle(r.Context(), event, inv))
	})
}

// EventFromRequest converts r to a payload format 2.0 event. Cookie headers move
// to Cookies, repeated headers and query values are comma-joined, and non-UTF-8
// bodies are base64-encoded.
func EventFromRequest(r *http.Request, maxBodySize int64) (events.APIGatewayV2HTTPRequest, error) {
	event := events.APIGatewayV2HTTPRequest{
		Version:        "2.0",
		RouteKey:       "$default",
		RawPath:        r.URL.Path,
		RawQueryString: r.URL.RawQuery,
		Headers:        make(map[string]string, len(r.Header)),
	}

	for key, values := range r.Header {
		if http.CanonicalHeaderKey(key) == "Cookie" {
			for _, line := range values {
				for part := range strings.SplitSeq(line, ";") {
					if part = strings.TrimSpace(part); part != "" {
						event.Cookies = append(event.Cookies, part)
					}
				}
			}
			continue
		}
		event.Headers[strings.ToLower(key)] = strings.Join(values, ",")
	}
	if r.Host != "" {
		event.Headers["host"] = r.Host
	}

	if query := r.URL.Query(); len(query) > 0 {
		event.QueryStringParameters = make(map[string]string, len(query))
		for key, values := range query {
			event.QueryStringParameters[key] = strings.Join(values, ",")
		}
	}

	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
		if err != nil {
			return event, err
		}
		if int64(len(body)) > maxBodySize {
			return event, ErrBodyTooLarge
		}
		if utf8.Valid(body) {
			event.Body = string(body)
		} else {
			event.Body = base64.StdEncoding.EncodeToString(body)
			event.IsBase64Encoded = true
		}
	}

	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	event.RequestContext = events.APIGatewayV2HTTPRequestContext{
		RouteKey:   "$default",
		Stage:      "$default",
		RequestID:  requestID,
		DomainName: r.Host,
		TimeEpoch:  time.Now().UnixMilli(),
		HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
			Method:    r.Method,
			Path:      r.URL.Path,
			Protocol:  r.Proto,
			SourceIP:  r.RemoteAddr,
			UserAgent: r.UserAgent(),
		},
	}
	return event, nil
}

// WriteEnvelope writes env to w, decoding binary bodies.
func WriteEnvelope(w http.ResponseWriter, env *response.Envelope) {
	if env == nil {
		env = router.DefaultErrorResponse()
	}

	body, err := env.DecodedBody()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	for key, values := range env.Headers {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(env.StatusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}
