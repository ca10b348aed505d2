package cookie

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName indicates the cookie name is empty or contains invalid characters.
	ErrInvalidName = errors.New("invalid cookie name")
	// ErrInvalidValue indicates the cookie value cannot be serialized.
	ErrInvalidValue = errors.New("invalid cookie value")
)

// ErrCookieTooLarge indicates the cookie exceeds the maximum allowed size.
type ErrCookieTooLarge struct {
	Name string
	Size int
	Max  int
}

// Error implements the error interface.
func (e ErrCookieTooLarge) Error() string {
	return fmt.Sprintf("cookie %q size %d exceeds maximum %d bytes", e.Name, e.Size, e.Max)
}
