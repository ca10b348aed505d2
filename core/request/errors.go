package request

import "errors"

var (
	// ErrInvalidEvent is returned when the raw event lacks a method or path.
	ErrInvalidEvent = errors.New("invalid invocation event")
	// ErrInvalidBody is returned when a JSON body cannot be decoded.
	ErrInvalidBody = errors.New("invalid request body")
	// ErrBodyTooLarge is returned when the decoded body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("request body too large")
)
