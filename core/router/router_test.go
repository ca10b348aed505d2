package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
	"github.com/dmitrymomot/lambdakit/core/router"
)

func build(t *testing.T, r *router.Router) *router.Dispatcher {
	t.Helper()
	d, err := r.Build()
	require.NoError(t, err)
	return d
}

func get(path string) *request.Context {
	return request.New(context.Background(), request.WithPath(path))
}

func operation(name string, payload any, opts ...request.Option) *request.Context {
	base := []request.Option{
		request.WithMethod("POST"),
		request.WithPath("/operation"),
		request.WithOperation(name, payload),
	}
	return request.New(context.Background(), append(base, opts...)...)
}

func decodeOperation(t *testing.T, env *response.Envelope) response.OperationBody {
	t.Helper()
	var body response.OperationBody
	require.NoError(t, json.Unmarshal([]byte(env.Body), &body))
	return body
}

func text(s string) router.ActionFunc {
	return func(_ *request.Context, res *router.Resolver) (*response.Envelope, error) {
		return res.Text(s)
	}
}

func TestScenarios(t *testing.T) {
	t.Parallel()

	t.Run("route params", func(t *testing.T) {
		t.Parallel()

		var got string
		r := router.New()
		r.Get("/user/:id", func(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
			got = ctx.Param("id")
			return res.NoContent()
		})

		env := build(t, r).Serve(get("/user/42"))
		assert.Equal(t, 204, env.StatusCode)
		assert.Equal(t, "42", got)
	})

	t.Run("before render rewrites operation payload", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.BeforeRender(func(ctx *request.Context) (*request.Context, error) {
			payload := ctx.OperationPayload.(map[string]any)
			payload["message"] = strings.ToUpper(payload["message"].(string))
			return ctx, nil
		}, 10)
		r.Operation("echo", func(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
			return res.Operation(ctx.OperationPayload.(map[string]any)["message"])
		})

		env := build(t, r).Serve(operation("echo", map[string]any{"message": "hi"}))
		require.Equal(t, 200, env.StatusCode)
		assert.Equal(t, "HI", decodeOperation(t, env).Payload)
	})

	t.Run("no match without fallback", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.Get("/present", text("ok"))

		env := build(t, r).Serve(get("/missing"))
		assert.Equal(t, 204, env.StatusCode)
		assert.Empty(t, env.Body)
	})

	t.Run("hook error reaches error boundary", func(t *testing.T) {
		t.Parallel()

		called := false
		hookErr := errors.New("denied")
		var boundaryErr error

		r := router.New(router.WithErrorHandler(func(err error, _ *request.Context, _ *router.Resolver, _ []any) *response.Envelope {
			boundaryErr = err
			return response.TextWithStatus("nope", 403)
		}))
		r.BeforeRender(func(*request.Context) (*request.Context, error) {
			return nil, hookErr
		})
		r.Get("/", func(_ *request.Context, res *router.Resolver) (*response.Envelope, error) {
			called = true
			return res.NoContent()
		})

		env := build(t, r).Serve(get("/"))
		assert.Equal(t, 403, env.StatusCode)
		assert.False(t, called)
		assert.ErrorIs(t, boundaryErr, router.ErrHookAborted)
		assert.ErrorIs(t, boundaryErr, hookErr)
	})
}

func TestDispatcher_FirstMatchWins(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.When(func(ctx *request.Context) bool { return strings.HasPrefix(ctx.Path, "/a") }, text("predicate"))
	r.Get("/a/b", text("specific"))
	r.Match(`^/a/.*$`, text("pattern"))

	d := build(t, r)
	assert.Equal(t, "predicate", d.Serve(get("/a/b")).Body)

	r2 := router.New()
	r2.Match(`^/a/(?P<rest>.*)$`, text("pattern"))
	r2.Get("/a/b", text("specific"))
	assert.Equal(t, "pattern", build(t, r2).Serve(get("/a/b")).Body)
}

func TestDispatcher_RouteConstraints(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.Get("/items", text("route"))
	r.Operation("items", text("operation"))

	d := build(t, r)

	t.Run("route requires GET", func(t *testing.T) {
		t.Parallel()

		ctx := request.New(context.Background(), request.WithPath("/items"), request.WithMethod("POST"))
		assert.Equal(t, 204, d.Serve(ctx).StatusCode)
	})

	t.Run("route ignores operations", func(t *testing.T) {
		t.Parallel()

		ctx := operation("other", nil, request.WithPath("/items"), request.WithMethod("GET"))
		assert.Equal(t, 204, d.Serve(ctx).StatusCode)
	})

	t.Run("operation requires operation endpoint", func(t *testing.T) {
		t.Parallel()

		ctx := request.New(context.Background(), request.WithPath("/operation"))
		ctx.OperationName = "items"
		assert.Equal(t, 204, d.Serve(ctx).StatusCode)
	})

	t.Run("operation is method agnostic", func(t *testing.T) {
		t.Parallel()

		ctx := operation("items", nil, request.WithMethod("PUT"))
		assert.Equal(t, "operation", d.Serve(ctx).Body)
	})
}

func TestDispatcher_Params(t *testing.T) {
	t.Parallel()

	capture := func(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
		return res.JSON(ctx.PathParams)
	}
	params := func(t *testing.T, env *response.Envelope) map[string]string {
		t.Helper()
		var out map[string]string
		require.NoError(t, json.Unmarshal([]byte(env.Body), &out))
		return out
	}

	r := router.New()
	r.Get("/files/*", capture)
	r.Get("/org/:org/repo/:repo", capture)
	r.Register(router.Pattern(regexp.MustCompile(`^/v(\d+)/(?P<name>\w+)$`)), capture)
	r.OperationMatch(`^user\.(?P<action>\w+)$`, capture)
	d := build(t, r)

	assert.Equal(t, map[string]string{"*": "a/b/c.txt"}, params(t, d.Serve(get("/files/a/b/c.txt"))))
	assert.Equal(t, map[string]string{"org": "acme", "repo": "kit"}, params(t, d.Serve(get("/org/acme/repo/kit/"))))
	assert.Equal(t, map[string]string{"$1": "2", "name": "thing"}, params(t, d.Serve(get("/v2/thing"))))
	assert.Equal(t, map[string]string{"action": "delete"}, params(t, d.Serve(operation("user.delete", nil))))
	assert.Equal(t, 204, d.Serve(get("/org/acme")).StatusCode)
}

func TestRouter_RegisterPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { router.Path("no-slash") })
	assert.Panics(t, func() { router.Path("/a/*/b") })
	assert.Panics(t, func() { router.Path("/a/:id/:id") })
	assert.Panics(t, func() { router.Operation("") })
	assert.Panics(t, func() { router.New().Register(router.Condition{}, text("x")) })
	assert.Panics(t, func() { router.New().Get("/", nil) })
}

func TestCondition_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "route /user/:id", router.Path("/user/:id").String())
	assert.Equal(t, "operation echo", router.Operation("echo").String())
	assert.Equal(t, router.KindPattern, router.OperationPattern(regexp.MustCompile("x")).Kind())
	assert.Equal(t, router.TargetOperation, router.OperationPattern(regexp.MustCompile("x")).Target())
}
