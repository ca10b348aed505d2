package health

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/lambdakit/core/logger"
	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
	"github.com/dmitrymomot/lambdakit/core/router"
)

// Readiness returns an action that runs every check in order. It answers
// "READY", or 503 on the first failure.
func Readiness(log *slog.Logger, checks ...func(context.Context) error) router.ActionFunc {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return func(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
		for _, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", logger.Component("health"), logger.Error(err))
				return res.Send(response.TextWithStatus(http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable))
			}
		}
		return res.Text("READY")
	}
}
