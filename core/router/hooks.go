package router

import (
	"cmp"
	"slices"

	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
)

// CreatedHook runs once during Build, before any request is served.
type CreatedHook func() error

// BeforeRenderHook runs after a match and before the action. It may return a
// replacement context; a nil context keeps the current one. A non-nil error
// aborts the pipeline.
type BeforeRenderHook func(*request.Context) (*request.Context, error)

// AfterRenderHook runs after the action. It may return a replacement envelope;
// a nil envelope keeps the current one. A non-nil error aborts the pipeline.
type AfterRenderHook func(*request.Context, *response.Envelope) (*response.Envelope, error)

// FallbackHook runs when no action matched, before the fallback action.
type FallbackHook func(*request.Context) (*request.Context, error)

type hook[F any] struct {
	priority int
	seq      int
	fn       F
}

// sortHooks orders by ascending priority; ties keep registration order.
func sortHooks[F any](hooks []hook[F]) []F {
	sorted := slices.Clone(hooks)
	slices.SortStableFunc(sorted, func(a, b hook[F]) int {
		return cmp.Or(cmp.Compare(a.priority, b.priority), cmp.Compare(a.seq, b.seq))
	})

	out := make([]F, len(sorted))
	for i, h := range sorted {
		out[i] = h.fn
	}
	return out
}

func priorityOf(p []int) int {
	if len(p) > 0 {
		return p[0]
	}
	return 0
}
