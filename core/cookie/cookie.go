package cookie

import (
	"net/http"
	"strings"
	"time"
)

// MaxCookieSize is the conservative per-cookie limit browsers honour.
const MaxCookieSize = 4096

// Manager renders Set-Cookie header values and parses Cookie request headers.
// Function responses are envelopes rather than http.ResponseWriter writes, so the
// manager returns header strings that callers queue on the request context.
type Manager struct {
	defaults Options
	maxSize  int
}

// New creates a manager. Defaults: Path "/", HttpOnly, SameSite=Lax.
func New(opts ...Option) *Manager {
	defaults := applyOptions(Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, opts)

	return &Manager{
		defaults: defaults,
		maxSize:  MaxCookieSize,
	}
}

// Set returns a Set-Cookie header value for name=value.
func (m *Manager) Set(name, value string, opts ...Option) (string, error) {
	if name == "" || strings.ContainsAny(name, "=;, \t\r\n") {
		return "", ErrInvalidName
	}

	options := applyOptions(m.defaults, opts)
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Expires:  options.Expires,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	}
	if err := c.Valid(); err != nil {
		return "", ErrInvalidValue
	}

	header := c.String()
	if len(header) > m.maxSize {
		return "", ErrCookieTooLarge{Name: name, Size: len(header), Max: m.maxSize}
	}
	return header, nil
}

// Delete returns a Set-Cookie header value that overwrites name with an empty
// value and an expiry in the past.
func (m *Manager) Delete(name string, opts ...Option) string {
	options := applyOptions(m.defaults, opts)
	c := &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	}
	return c.String()
}

// Parse collects name/value pairs from one or more Cookie header lines.
// Malformed pairs are skipped. The first occurrence of a name wins.
func Parse(lines ...string) map[string]string {
	out := make(map[string]string)
	if len(lines) == 0 {
		return out
	}

	req := &http.Request{Header: http.Header{"Cookie": lines}}
	for _, c := range req.Cookies() {
		if _, ok := out[c.Name]; !ok {
			out[c.Name] = c.Value
		}
	}
	return out
}
