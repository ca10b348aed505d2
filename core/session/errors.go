package session

import "errors"

var (
	// ErrTokensInvalid is returned when the request lacks a well-formed session
	// cookie, or an operation request lacks its CSRF token.
	ErrTokensInvalid = errors.New("session tokens missing or malformed")
	// ErrNotFound is returned when no record exists for the session key pair.
	ErrNotFound = errors.New("session not found")
	// ErrInvalid is returned when a record exists but fails validation
	// (expired, incomplete or token mismatch).
	ErrInvalid = errors.New("session is invalid")
	// ErrMissingSecret is returned when the manager is created without a server secret.
	ErrMissingSecret = errors.New("session secret is required")
	// ErrNilStore is returned when the manager is created without a store.
	ErrNilStore = errors.New("session store is required")
	// ErrEmptySessionKey is returned when creating a session without a session key.
	ErrEmptySessionKey = errors.New("session key is required")
	// ErrNilRecord is returned when an operation receives a nil record.
	ErrNilRecord = errors.New("session record is nil")
	// ErrTokenGeneration is returned when random token generation fails.
	ErrTokenGeneration = errors.New("failed to generate token")
	// ErrSaveSession is returned when persisting a record fails.
	ErrSaveSession = errors.New("failed to save session")
	// ErrDeleteSession is returned when deleting a record fails.
	ErrDeleteSession = errors.New("failed to delete session")
	// ErrSetCookie is returned when a session cookie cannot be rendered.
	ErrSetCookie = errors.New("failed to set session cookie")
)
