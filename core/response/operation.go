package response

import "net/http"

// OperationBody is the uniform body of every operation response.
type OperationBody struct {
	APIVersion     string `json:"apiVersion"`
	Payload        any    `json:"payload"`
	VersionExpired bool   `json:"versionExpired,omitempty"`
	SessionExpired bool   `json:"sessionExpired,omitempty"`
	NotAuthorized  bool   `json:"notAuthorized,omitempty"`
	Message        string `json:"message,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	LogList        []any  `json:"logList,omitempty"`
}

// OperationOption sets an out-of-band signal on an operation body.
type OperationOption func(*OperationBody)

// WithVersionExpired tells the client its protocol version is stale.
func WithVersionExpired() OperationOption {
	return func(b *OperationBody) {
		b.VersionExpired = true
	}
}

// WithSessionExpired tells the client to re-authenticate.
func WithSessionExpired() OperationOption {
	return func(b *OperationBody) {
		b.SessionExpired = true
	}
}

// WithNotAuthorized tells the client the session lacks permission.
func WithNotAuthorized() OperationOption {
	return func(b *OperationBody) {
		b.NotAuthorized = true
	}
}

// WithMessage attaches an informational message.
func WithMessage(msg string) OperationOption {
	return func(b *OperationBody) {
		b.Message = msg
	}
}

// WithErrorMessage attaches a user-facing error message.
func WithErrorMessage(msg string) OperationOption {
	return func(b *OperationBody) {
		b.ErrorMessage = msg
	}
}

// WithLogList sets the diagnostic log list explicitly.
func WithLogList(logs []any) OperationOption {
	return func(b *OperationBody) {
		b.LogList = logs
	}
}

// Operation creates a 200 JSON response wrapping payload in an OperationBody.
func Operation(apiVersion string, payload any, opts ...OperationOption) (*Envelope, error) {
	return OperationWithStatus(apiVersion, payload, http.StatusOK, opts...)
}

// OperationWithStatus is like Operation with a custom status code.
func OperationWithStatus(apiVersion string, payload any, status int, opts ...OperationOption) (*Envelope, error) {
	body := OperationBody{
		APIVersion: apiVersion,
		Payload:    payload,
	}
	for _, opt := range opts {
		opt(&body)
	}
	return JSONWithStatus(body, status)
}
