package response

import (
	"encoding/base64"
	"net/http"
)

// Content types used by the builders.
const (
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeXML  = "application/xml; charset=utf-8"
)

// Text creates a text/plain response with 200 OK status.
func Text(content string) *Envelope {
	return TextWithStatus(content, http.StatusOK)
}

// TextWithStatus creates a text/plain response with custom status code.
func TextWithStatus(content string, status int) *Envelope {
	env := New(status)
	env.Headers.Set("Content-Type", ContentTypeText)
	env.Body = content
	return env
}

// HTML creates a text/html response with 200 OK status.
// The body is base64-encoded and flagged binary so gateways pass markup through untouched.
func HTML(content string) *Envelope {
	return HTMLWithStatus(content, http.StatusOK)
}

// HTMLWithStatus creates a text/html response with custom status code.
func HTMLWithStatus(content string, status int) *Envelope {
	return BytesWithStatus([]byte(content), ContentTypeHTML, status)
}

// XML creates an application/xml response with 200 OK status.
func XML(content string) *Envelope {
	return XMLWithStatus(content, http.StatusOK)
}

// XMLWithStatus creates an application/xml response with custom status code.
func XMLWithStatus(content string, status int) *Envelope {
	return BytesWithStatus([]byte(content), ContentTypeXML, status)
}

// Bytes creates a binary response with custom content type and 200 OK status.
func Bytes(content []byte, contentType string) *Envelope {
	return BytesWithStatus(content, contentType, http.StatusOK)
}

// BytesWithStatus creates a binary response with custom content type and status code.
func BytesWithStatus(content []byte, contentType string, status int) *Envelope {
	env := New(status)
	if contentType != "" {
		env.Headers.Set("Content-Type", contentType)
	}
	env.Body = base64.StdEncoding.EncodeToString(content)
	env.IsBinary = true
	return env
}

// Raw creates a passthrough response. Headers are copied.
func Raw(status int, body string, headers http.Header, isBinary bool) *Envelope {
	env := New(status)
	for k, vs := range headers {
		for _, v := range vs {
			env.Headers.Add(k, v)
		}
	}
	env.Body = body
	env.IsBinary = isBinary
	return env
}

// NotFound creates a 404 Not Found text response.
func NotFound() *Envelope {
	return TextWithStatus(http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// NoContent creates a 204 No Content response.
func NoContent() *Envelope {
	return New(http.StatusNoContent)
}

// Status creates an empty response with the specified status code.
func Status(code int) *Envelope {
	return New(code)
}

// InternalServerError is the generic failure envelope. It never carries error detail.
func InternalServerError() *Envelope {
	return TextWithStatus(http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
