package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/lambdakit/core/cookie"
)

// Request is the subset of the request context the controller needs.
// *request.Context satisfies it.
type Request interface {
	context.Context
	Cookie(name string) string
	CSRFToken() string
	IsOperation() bool
	AppendHeader(key, value string)
	AttachSession(s any)
}

// Controller binds a Manager to one request. It reads tokens from the request,
// attaches the fetched record and queues Set-Cookie headers.
type Controller struct {
	m   *Manager
	req Request
}

// Controller returns a controller bound to req.
func (m *Manager) Controller(req Request) *Controller {
	return &Controller{m: m, req: req}
}

// AreRequestTokensValid reports whether req carries a well-formed session cookie
// and, for operation requests, a non-empty CSRF token. No store I/O happens.
func (m *Manager) AreRequestTokensValid(req Request) bool {
	if _, _, ok := SplitToken(req.Cookie(m.cookieName)); !ok {
		return false
	}
	if req.IsOperation() && req.CSRFToken() == "" {
		return false
	}
	return true
}

// Create stores a new session, queues both cookies and attaches the record.
func (c *Controller) Create(sessionKey string, data map[string]any, ttl time.Duration) (*Record, error) {
	rec, err := c.m.Create(c.req, sessionKey, data, ttl)
	if err != nil {
		return nil, err
	}
	if err := c.setCookies(rec); err != nil {
		return nil, err
	}
	c.req.AttachSession(rec)
	return rec, nil
}

// Fetch validates the request tokens, loads the session and attaches it. CSRF is
// enforced for operation requests only; route reads still need the cookie.
func (c *Controller) Fetch() (*Record, error) {
	if !c.m.AreRequestTokensValid(c.req) {
		return nil, ErrTokensInvalid
	}

	rec, err := c.m.Fetch(c.req, c.req.Cookie(c.m.cookieName), c.req.CSRFToken(), !c.req.IsOperation())
	if err != nil {
		return nil, err
	}
	if c.m.sliding {
		if err := c.setCookies(rec); err != nil {
			return nil, err
		}
	}
	c.req.AttachSession(rec)
	return rec, nil
}

// FetchIfExists is Fetch that reports any failure as no session.
func (c *Controller) FetchIfExists() (*Record, error) {
	rec, err := c.Fetch()
	if err != nil {
		return nil, nil
	}
	return rec, nil
}

// Update replaces the session payload and re-issues cookies with the new expiry.
func (c *Controller) Update(rec *Record, data map[string]any) error {
	if err := c.m.UpdateData(c.req, rec, data); err != nil {
		return err
	}
	if err := c.setCookies(rec); err != nil {
		return err
	}
	c.req.AttachSession(rec)
	return nil
}

// Regenerate swaps rec for a fresh session and re-issues cookies.
func (c *Controller) Regenerate(rec *Record) (*Record, error) {
	next, err := c.m.Regenerate(c.req, rec)
	if err != nil {
		return nil, err
	}
	if err := c.setCookies(next); err != nil {
		return nil, err
	}
	c.req.AttachSession(next)
	return next, nil
}

// End deletes the session and expires both cookies. A record that is already
// gone counts as ended: the cookies are still expired and End returns nil.
func (c *Controller) End(rec *Record) error {
	if err := c.m.End(c.req, rec); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	c.clearCookies()
	return nil
}

// EndAll deletes every session of rec's principal and expires both cookies.
func (c *Controller) EndAll(rec *Record) error {
	if err := c.m.EndAll(c.req, rec); err != nil {
		return err
	}
	c.clearCookies()
	return nil
}

func (c *Controller) setCookies(rec *Record) error {
	expires := rec.Expires()

	sessionCookie, err := c.m.cookies.Set(c.m.cookieName, rec.SessionToken,
		cookie.WithExpires(expires),
		cookie.WithSecure(true),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	)
	if err != nil {
		return errors.Join(ErrSetCookie, err)
	}
	csrfCookie, err := c.m.cookies.Set(c.m.csrfCookieName, rec.CSRFToken,
		cookie.WithExpires(expires),
		cookie.WithSecure(true),
		cookie.WithHTTPOnly(false),
		cookie.WithSameSite(http.SameSiteLaxMode),
	)
	if err != nil {
		return errors.Join(ErrSetCookie, err)
	}

	c.req.AppendHeader("Set-Cookie", sessionCookie)
	c.req.AppendHeader("Set-Cookie", csrfCookie)
	return nil
}

func (c *Controller) clearCookies() {
	c.req.AppendHeader("Set-Cookie", c.m.cookies.Delete(c.m.cookieName,
		cookie.WithSecure(true),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	))
	c.req.AppendHeader("Set-Cookie", c.m.cookies.Delete(c.m.csrfCookieName,
		cookie.WithSecure(true),
		cookie.WithHTTPOnly(false),
		cookie.WithSameSite(http.SameSiteLaxMode),
	))
	c.req.AttachSession(nil)
}
