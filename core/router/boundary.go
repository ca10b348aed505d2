package router

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/dmitrymomot/lambdakit/core/logger"
	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
)

// ErrorHandler converts a pipeline failure into an envelope. ctx is nil only when
// the request context could not be built. logs holds the entries recorded with
// LogToResponse.
type ErrorHandler func(err error, ctx *request.Context, res *Resolver, logs []any) *response.Envelope

// ValidationHandler converts a payload validation failure into an envelope.
// It runs instead of the action and never reaches the ErrorHandler.
type ValidationHandler func(err error, ctx *request.Context, res *Resolver) *response.Envelope

// DefaultErrorResponse is the fixed envelope returned when no error handler is
// registered or the registered one fails. It reveals nothing about the error.
func DefaultErrorResponse() *response.Envelope {
	return response.InternalServerError()
}

func (d *Dispatcher) handleError(err error, ctx *request.Context, res *Resolver) (env *response.Envelope) {
	attrs := []any{logger.Error(err)}
	if ctx != nil {
		attrs = append(attrs, logger.Method(ctx.Method), logger.Path(ctx.Path), logger.Operation(ctx.OperationName))
	}
	var pe PanicError
	if errors.As(err, &pe) {
		attrs = append(attrs, logger.Stack(pe.Stack()))
	}
	d.logger.Error("request failed", attrs...)

	if d.errorHandler == nil {
		return DefaultErrorResponse()
	}

	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("error handler panicked",
				slog.Any("value", p),
				logger.Stack(debug.Stack()),
			)
			env = DefaultErrorResponse()
		}
	}()

	var logs []any
	if ctx != nil {
		logs = ctx.ResponseLogs()
	}
	env = d.errorHandler(err, ctx, res, logs)
	if env == nil {
		return DefaultErrorResponse()
	}
	return env
}

func defaultValidationHandler(err error, ctx *request.Context, res *Resolver) *response.Envelope {
	if ctx != nil && ctx.IsOperation() {
		env, encErr := res.Operation(nil, response.WithErrorMessage(err.Error()))
		if encErr == nil {
			return env
		}
	}
	return response.TextWithStatus(http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
}
