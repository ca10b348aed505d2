package function

import "errors"

var (
	// ErrBodyTooLarge is returned when a local request body exceeds the limit.
	ErrBodyTooLarge = errors.New("request body too large")
	// ErrServerAlreadyRunning is returned when Start is called twice.
	ErrServerAlreadyRunning = errors.New("server is already running")
	// ErrMissingAddress is returned when the local server has no address.
	ErrMissingAddress = errors.New("server address is required")
)
