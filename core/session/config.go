package session

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/lambdakit/core/cookie"
)

// Default cookie names.
const (
	DefaultCookieName     = "session_token"
	DefaultCSRFCookieName = "csrf_token"
)

// Config holds session manager configuration loadable from the environment.
type Config struct {
	Secret         string        `env:"SESSION_SECRET,required"`
	TTL            time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	Sliding        bool          `env:"SESSION_SLIDING" envDefault:"true"`
	CookieName     string        `env:"SESSION_COOKIE_NAME" envDefault:"session_token"`
	CSRFCookieName string        `env:"SESSION_CSRF_COOKIE_NAME" envDefault:"csrf_token"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the default session lifetime used when Create gets a zero ttl.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithSlidingExpiration toggles sliding expiration. When enabled, every
// successful fetch pushes ExpiresAt to now + TTL.
func WithSlidingExpiration(enabled bool) Option {
	return func(m *Manager) {
		m.sliding = enabled
	}
}

// WithCookieNames overrides the session and CSRF cookie names.
func WithCookieNames(session, csrf string) Option {
	return func(m *Manager) {
		if session != "" {
			m.cookieName = session
		}
		if csrf != "" {
			m.csrfCookieName = csrf
		}
	}
}

// WithCookieManager sets the cookie renderer. Flags required by the session
// cookies (Secure, HttpOnly, SameSite) are always applied on top.
func WithCookieManager(cm *cookie.Manager) Option {
	return func(m *Manager) {
		if cm != nil {
			m.cookies = cm
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}
