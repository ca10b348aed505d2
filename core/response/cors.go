package response

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORS describes the preflight acknowledgement sent when CORS is enabled.
type CORS struct {
	AllowOrigins     []string // "*" allows any origin
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	MaxAge           int // seconds
}

// AllowsOrigin reports whether origin may access the function.
func (c CORS) AllowsOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	return slices.Contains(c.AllowOrigins, "*") || slices.Contains(c.AllowOrigins, origin)
}

// CORSPreflight acknowledges an OPTIONS preflight request from origin.
// Disallowed origins receive a bare 204 without CORS headers.
func CORSPreflight(cfg CORS, origin string) *Envelope {
	env := NoContent()
	if !cfg.AllowsOrigin(origin) {
		return env
	}

	allowOrigin := origin
	if slices.Contains(cfg.AllowOrigins, "*") && !cfg.AllowCredentials {
		allowOrigin = "*"
	} else {
		env.Headers.Add("Vary", "Origin")
	}
	env.Headers.Set("Access-Control-Allow-Origin", allowOrigin)

	methods := cfg.AllowMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	env.Headers.Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))

	if len(cfg.AllowHeaders) > 0 {
		env.Headers.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
	}
	if cfg.AllowCredentials {
		env.Headers.Set("Access-Control-Allow-Credentials", "true")
	}
	if cfg.MaxAge > 0 {
		env.Headers.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
	}
	return env
}
