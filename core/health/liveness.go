package health

import (
	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
	"github.com/dmitrymomot/lambdakit/core/router"
)

// Liveness reports that the function is running. No dependency checks.
func Liveness(_ *request.Context, res *router.Resolver) (*response.Envelope, error) {
	return res.Text("ALIVE")
}

// NoContent answers 204 without a body.
func NoContent(_ *request.Context, res *router.Resolver) (*response.Envelope, error) {
	return res.NoContent()
}
