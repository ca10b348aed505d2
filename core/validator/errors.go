package validator

import "errors"

var (
	// ErrInvalidSchema is returned when a schema document cannot be compiled.
	ErrInvalidSchema = errors.New("invalid json schema")
	// ErrInvalidPayload is returned when a payload does not satisfy its schema.
	ErrInvalidPayload = errors.New("payload does not match schema")
	// ErrUnknownSchema is returned by Registry.Get for unregistered names.
	ErrUnknownSchema = errors.New("unknown schema")
)
