package response

import (
	"encoding/base64"
	"net/http"
)

// Envelope is the outbound response of one invocation.
// Headers are multi-valued so several Set-Cookie lines survive.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Headers    http.Header `json:"headers"`
	Body       string      `json:"body,omitempty"`
	IsBinary   bool        `json:"isBinary"`
}

// New creates an empty envelope with the given status (200 when zero).
func New(status int) *Envelope {
	if status == 0 {
		status = http.StatusOK
	}
	return &Envelope{
		StatusCode: status,
		Headers:    make(http.Header),
	}
}

// SetHeader replaces all values of key.
func (e *Envelope) SetHeader(key, value string) *Envelope {
	e.headers().Set(key, value)
	return e
}

// AddHeader appends value to key, keeping existing values.
func (e *Envelope) AddHeader(key, value string) *Envelope {
	e.headers().Add(key, value)
	return e
}

// DecodedBody returns the raw body bytes, decoding base64 for binary envelopes.
func (e *Envelope) DecodedBody() ([]byte, error) {
	if !e.IsBinary {
		return []byte(e.Body), nil
	}
	return base64.StdEncoding.DecodeString(e.Body)
}

// Clone returns a deep copy of the envelope.
func (e *Envelope) Clone() *Envelope {
	if e == nil {
		return nil
	}
	out := *e
	out.Headers = e.Headers.Clone()
	if out.Headers == nil {
		out.Headers = make(http.Header)
	}
	return &out
}

func (e *Envelope) headers() http.Header {
	if e.Headers == nil {
		e.Headers = make(http.Header)
	}
	return e.Headers
}
