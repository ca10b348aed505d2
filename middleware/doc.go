// Package middleware provides reusable router hooks for request IDs, access
// logging, session loading and security headers.
//
// Each hook follows the same shape: a zero-config constructor plus a
// WithConfig variant whose Config struct carries a Skip predicate.
//
//	r := router.New(router.WithLogger(log))
//	middleware.Logging(log).Register(r)
//	r.BeforeRender(middleware.RequestID(), -10)
//	r.BeforeRender(middleware.Session(sessions))
//	r.BeforeRender(middleware.SecurityHeadersStrict())
//
// Hooks queue response headers on the request context. The router writes them
// onto the final envelope, so they reach both route and operation responses.
package middleware
