package response

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrEncode is returned when a payload cannot be encoded as JSON.
var ErrEncode = errors.New("failed to encode response body")

// JSON creates an application/json response with 200 OK status.
func JSON(v any) (*Envelope, error) {
	return JSONWithStatus(v, http.StatusOK)
}

// JSONWithStatus creates an application/json response with custom status code.
// With status 0 a nil value yields 204 and anything else 200.
func JSONWithStatus(v any, status int) (*Envelope, error) {
	if status == 0 {
		if v == nil {
			status = http.StatusNoContent
		} else {
			status = http.StatusOK
		}
	}

	env := New(status)
	env.Headers.Set("Content-Type", ContentTypeJSON)

	// No body for 204 or 304.
	switch status {
	case http.StatusNoContent, http.StatusNotModified:
		return env, nil
	}

	body, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	env.Body = string(body)
	return env, nil
}
