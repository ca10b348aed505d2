package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/lambdakit/core/session"
)

var (
	ErrMissingTable      = errors.New("dynamodb table name is required")
	ErrOperationTimeout  = errors.New("dynamodb operation timed out")
	ErrOperationCanceled = errors.New("dynamodb operation canceled")
	ErrThrottled         = errors.New("dynamodb request throttled")
	ErrTableNotFound     = errors.New("dynamodb table not found")
	ErrAccessDenied      = errors.New("dynamodb access denied")
	ErrMarshal           = errors.New("failed to marshal session record")
)

// classifyError converts SDK errors into stable sentinels.
func classifyError(err error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s operation", ErrOperationTimeout, operation)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s operation", ErrOperationCanceled, operation)
	}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return session.ErrNotFound
	}
	var rnf *types.ResourceNotFoundException
	if errors.As(err, &rnf) {
		return fmt.Errorf("%w: %s", ErrTableNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch code {
		case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
			return fmt.Errorf("%w: %s operation", ErrThrottled, operation)
		case "AccessDeniedException", "UnrecognizedClientException":
			return fmt.Errorf("%w: %s operation", ErrAccessDenied, operation)
		default:
			return fmt.Errorf("%s operation failed (code: %s): %w", operation, code, err)
		}
	}

	return fmt.Errorf("%s operation failed: %w", operation, err)
}
