package router_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lambdakit/core/request"
	"github.com/dmitrymomot/lambdakit/core/response"
	"github.com/dmitrymomot/lambdakit/core/router"
)

func TestHooks_Ordering(t *testing.T) {
	t.Parallel()

	var order []string
	record := func(name string) router.BeforeRenderHook {
		return func(ctx *request.Context) (*request.Context, error) {
			order = append(order, name)
			return ctx, nil
		}
	}

	r := router.New()
	r.BeforeRender(record("p5-a"), 5)
	r.BeforeRender(record("p0-a"))
	r.BeforeRender(record("p-1"), -1)
	r.BeforeRender(record("p5-b"), 5)
	r.BeforeRender(record("p0-b"), 0)
	r.AfterRender(func(_ *request.Context, env *response.Envelope) (*response.Envelope, error) {
		order = append(order, "after-10")
		return env, nil
	}, 10)
	r.AfterRender(func(_ *request.Context, env *response.Envelope) (*response.Envelope, error) {
		order = append(order, "after-1")
		return nil, nil
	}, 1)
	r.Get("/", func(_ *request.Context, res *router.Resolver) (*response.Envelope, error) {
		order = append(order, "action")
		return res.NoContent()
	})

	env := build(t, r).Serve(get("/"))
	assert.Equal(t, 204, env.StatusCode)
	assert.Equal(t, []string{"p-1", "p0-a", "p0-b", "p5-a", "p5-b", "action", "after-1", "after-10"}, order)
}

func TestHooks_Replace(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.BeforeRender(func(ctx *request.Context) (*request.Context, error) {
		next := request.New(ctx, request.WithPath(ctx.Path))
		next.Query["replaced"] = "yes"
		return next, nil
	})
	r.AfterRender(func(_ *request.Context, _ *response.Envelope) (*response.Envelope, error) {
		return response.TextWithStatus("rewritten", 202), nil
	})
	r.Get("/", func(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
		return res.Text(ctx.Query["replaced"])
	})

	var seen string
	r.AfterRender(func(_ *request.Context, env *response.Envelope) (*response.Envelope, error) {
		seen = env.Body
		return nil, nil
	}, -1)

	env := build(t, r).Serve(get("/"))
	assert.Equal(t, "yes", seen)
	assert.Equal(t, 202, env.StatusCode)
	assert.Equal(t, "rewritten", env.Body)
}

func TestHooks_AfterRenderError(t *testing.T) {
	t.Parallel()

	var gotErr error
	r := router.New(router.WithErrorHandler(func(err error, _ *request.Context, _ *router.Resolver, _ []any) *response.Envelope {
		gotErr = err
		return response.Status(418)
	}))
	r.AfterRender(func(*request.Context, *response.Envelope) (*response.Envelope, error) {
		return nil, errors.New("late failure")
	})
	r.Get("/", text("ok"))

	env := build(t, r).Serve(get("/"))
	assert.Equal(t, 418, env.StatusCode)
	assert.ErrorIs(t, gotErr, router.ErrHookAborted)
}

func TestHeaders_SetBeforeAppend(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.BeforeRender(func(ctx *request.Context) (*request.Context, error) {
		ctx.AppendHeader("Set-Cookie", "a=1")
		return ctx, nil
	})
	r.Get("/", func(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
		ctx.AppendHeader("Set-Cookie", "b=2")
		ctx.SetHeader("Set-Cookie", "base=0")
		ctx.SetHeader("X-Mode", "first")
		ctx.SetHeader("X-Mode", "second")
		env, err := res.Text("ok")
		if err != nil {
			return nil, err
		}
		env.SetHeader("X-Action", "1")
		return env, nil
	})

	env := build(t, r).Serve(get("/"))
	assert.Equal(t, []string{"base=0", "a=1", "b=2"}, env.Headers.Values("Set-Cookie"))
	assert.Equal(t, "second", env.Headers.Get("X-Mode"))
	assert.Equal(t, "1", env.Headers.Get("X-Action"))
}

func TestResolver_Die(t *testing.T) {
	t.Parallel()

	t.Run("bypasses after render and headers", func(t *testing.T) {
		t.Parallel()

		afterCalled := false
		r := router.New()
		r.AfterRender(func(_ *request.Context, env *response.Envelope) (*response.Envelope, error) {
			afterCalled = true
			return env, nil
		})
		r.Get("/", func(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
			ctx.SetHeader("X-Queued", "1")
			return res.Die().Text("early")
		})

		env := build(t, r).Serve(get("/"))
		assert.Equal(t, "early", env.Body)
		assert.False(t, afterCalled)
		assert.Empty(t, env.Headers.Get("X-Queued"))
	})

	t.Run("first resolution wins", func(t *testing.T) {
		t.Parallel()

		var second error
		r := router.New()
		r.Get("/", func(_ *request.Context, res *router.Resolver) (*response.Envelope, error) {
			die := res.Die()
			assert.True(t, die.IsImmediate())
			assert.False(t, res.IsImmediate())
			if _, err := die.Text("one"); err != nil {
				return nil, err
			}
			_, second = die.Text("two")
			return res.Text("normal")
		})

		env := build(t, r).Serve(get("/"))
		assert.Equal(t, "one", env.Body)
		assert.ErrorIs(t, second, router.ErrAlreadyResolved)
	})

	t.Run("die then error keeps died envelope", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.Get("/", func(_ *request.Context, res *router.Resolver) (*response.Envelope, error) {
			_, _ = res.Die().Status(202)
			return nil, errors.New("ignored")
		})

		assert.Equal(t, 202, build(t, r).Serve(get("/")).StatusCode)
	})

	t.Run("die in fallback action", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.WithFallbackAction(func(_ *request.Context, res *router.Resolver) (*response.Envelope, error) {
			return res.Die().NotFound()
		}))
		assert.Equal(t, 404, build(t, r).Serve(get("/x")).StatusCode)
	})
}

func TestDispatcher_VersionExpired(t *testing.T) {
	t.Parallel()

	beforeCalled, actionCalled := false, false
	r := router.New(router.WithExpectedVersion("3"))
	r.BeforeRender(func(ctx *request.Context) (*request.Context, error) {
		beforeCalled = true
		return ctx, nil
	})
	r.Operation("ping", func(_ *request.Context, res *router.Resolver) (*response.Envelope, error) {
		actionCalled = true
		return res.Operation("pong")
	})
	d := build(t, r)

	env := d.Serve(operation("ping", nil, request.WithVersion("2")))
	body := decodeOperation(t, env)
	assert.True(t, body.VersionExpired)
	assert.Equal(t, "3", body.APIVersion)
	assert.False(t, beforeCalled)
	assert.False(t, actionCalled)

	env = d.Serve(operation("ping", nil, request.WithVersion("3")))
	assert.Equal(t, "pong", decodeOperation(t, env).Payload)

	env = d.Serve(operation("ping", nil))
	assert.Equal(t, "pong", decodeOperation(t, env).Payload)
}

func TestDispatcher_Fallback(t *testing.T) {
	t.Parallel()

	var order []string
	r := router.New(router.WithFallbackAction(func(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
		order = append(order, "action:"+ctx.Query["tag"])
		ctx.AppendHeader("X-Fallback", "1")
		return res.NotFound()
	}))
	r.Fallback(func(ctx *request.Context) (*request.Context, error) {
		order = append(order, "hook-2")
		return ctx, nil
	}, 2)
	r.Fallback(func(ctx *request.Context) (*request.Context, error) {
		order = append(order, "hook-1")
		ctx.Query["tag"] = "set"
		return nil, nil
	}, 1)
	r.BeforeRender(func(ctx *request.Context) (*request.Context, error) {
		order = append(order, "before")
		return ctx, nil
	})

	env := build(t, r).Serve(get("/missing"))
	assert.Equal(t, 404, env.StatusCode)
	assert.Equal(t, "1", env.Headers.Get("X-Fallback"))
	assert.Equal(t, []string{"hook-1", "hook-2", "action:set"}, order)
}

func TestErrorBoundary(t *testing.T) {
	t.Parallel()

	t.Run("default hides details", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.Get("/", func(*request.Context, *router.Resolver) (*response.Envelope, error) {
			return nil, errors.New("secret database failure")
		})

		env := build(t, r).Serve(get("/"))
		assert.Equal(t, 500, env.StatusCode)
		assert.Equal(t, "Internal Server Error", env.Body)
	})

	t.Run("action error and logs reach handler", func(t *testing.T) {
		t.Parallel()

		actionErr := errors.New("boom")
		var (
			gotErr  error
			gotCtx  *request.Context
			gotLogs []any
		)
		r := router.New(router.WithErrorHandler(func(err error, ctx *request.Context, res *router.Resolver, logs []any) *response.Envelope {
			gotErr, gotCtx, gotLogs = err, ctx, logs
			env, _ := res.Operation(nil, response.WithErrorMessage("failed"))
			return env
		}))
		r.Operation("fail", func(ctx *request.Context, _ *router.Resolver) (*response.Envelope, error) {
			ctx.LogToResponse("step 1")
			return nil, actionErr
		})

		env := build(t, r).Serve(operation("fail", nil))
		assert.ErrorIs(t, gotErr, router.ErrActionFailed)
		assert.ErrorIs(t, gotErr, actionErr)
		require.NotNil(t, gotCtx)
		assert.Equal(t, "fail", gotCtx.OperationName)
		assert.Equal(t, []any{"step 1"}, gotLogs)

		body := decodeOperation(t, env)
		assert.Equal(t, "failed", body.ErrorMessage)
		assert.Equal(t, []any{"step 1"}, body.LogList)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		t.Parallel()

		var gotErr error
		r := router.New(router.WithErrorHandler(func(err error, _ *request.Context, _ *router.Resolver, _ []any) *response.Envelope {
			gotErr = err
			return response.Status(503)
		}))
		r.Get("/", func(*request.Context, *router.Resolver) (*response.Envelope, error) {
			panic("kaboom")
		})

		env := build(t, r).Serve(get("/"))
		assert.Equal(t, 503, env.StatusCode)

		var pe router.PanicError
		require.ErrorAs(t, gotErr, &pe)
		assert.Equal(t, "kaboom", pe.Value())
		assert.NotEmpty(t, pe.Stack())
	})

	t.Run("panicking handler falls back to default", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.WithErrorHandler(func(error, *request.Context, *router.Resolver, []any) *response.Envelope {
			panic("handler broke")
		}))
		r.Get("/", func(*request.Context, *router.Resolver) (*response.Envelope, error) {
			return nil, errors.New("x")
		})

		env := build(t, r).Serve(get("/"))
		assert.Equal(t, 500, env.StatusCode)
		assert.Equal(t, "Internal Server Error", env.Body)
	})

	t.Run("nil from handler falls back to default", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.WithErrorHandler(func(error, *request.Context, *router.Resolver, []any) *response.Envelope {
			return nil
		}))
		r.Get("/", func(*request.Context, *router.Resolver) (*response.Envelope, error) {
			return nil, nil
		})

		assert.Equal(t, 500, build(t, r).Serve(get("/")).StatusCode)
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()

		var gotErr error
		r := router.New(router.WithErrorHandler(func(err error, _ *request.Context, _ *router.Resolver, _ []any) *response.Envelope {
			gotErr = err
			return response.Status(500)
		}))
		r.Get("/", func(*request.Context, *router.Resolver) (*response.Envelope, error) {
			return nil, nil
		})

		build(t, r).Serve(get("/"))
		assert.ErrorIs(t, gotErr, router.ErrNilResponse)
	})

	t.Run("context build failure passes nil context", func(t *testing.T) {
		t.Parallel()

		var (
			gotErr error
			gotCtx = &request.Context{}
		)
		r := router.New(router.WithErrorHandler(func(err error, ctx *request.Context, _ *router.Resolver, _ []any) *response.Envelope {
			gotErr, gotCtx = err, ctx
			return response.Status(400)
		}))

		env := build(t, r).Handle(context.Background(), events.APIGatewayV2HTTPRequest{}, request.Invocation{})
		assert.Equal(t, 400, env.StatusCode)
		assert.ErrorIs(t, gotErr, request.ErrInvalidEvent)
		assert.Nil(t, gotCtx)
	})
}

func TestRouter_Build(t *testing.T) {
	t.Parallel()

	t.Run("created hooks run once in priority order", func(t *testing.T) {
		t.Parallel()

		var order []int
		r := router.New()
		r.OnCreated(func() error { order = append(order, 2); return nil }, 2)
		r.OnCreated(func() error { order = append(order, 1); return nil }, 1)

		build(t, r)
		assert.Equal(t, []int{1, 2}, order)
	})

	t.Run("created hooks do not rerun on rebuild", func(t *testing.T) {
		t.Parallel()

		calls := 0
		r := router.New()
		r.OnCreated(func() error { calls++; return nil })
		r.Get("/a", text("a"))

		build(t, r)
		r.Get("/b", text("b"))
		d := build(t, r)

		assert.Equal(t, 1, calls)
		assert.Equal(t, 200, d.Serve(get("/b")).StatusCode)
	})

	t.Run("failed created hook retries on next build", func(t *testing.T) {
		t.Parallel()

		calls := 0
		r := router.New()
		r.OnCreated(func() error {
			calls++
			if calls == 1 {
				return errors.New("not ready")
			}
			return nil
		})

		_, err := r.Build()
		require.ErrorIs(t, err, router.ErrCreatedHook)
		build(t, r)
		build(t, r)
		assert.Equal(t, 2, calls)
	})

	t.Run("created hook error", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.OnCreated(func() error { return errors.New("bad config") })

		_, err := r.Build()
		assert.ErrorIs(t, err, router.ErrCreatedHook)
	})

	t.Run("snapshot ignores later registration", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.Get("/a", text("a"))
		d := build(t, r)

		r.Get("/b", text("b"))
		r.BeforeRender(func(*request.Context) (*request.Context, error) {
			return nil, errors.New("should not run")
		})

		assert.Equal(t, "a", d.Serve(get("/a")).Body)
		assert.Equal(t, 204, d.Serve(get("/b")).StatusCode)
	})
}

func TestDispatcher_Concurrent(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.Get("/user/:id", func(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
		ctx.AppendHeader("X-Id", ctx.Param("id"))
		return res.Text(ctx.Param("id"))
	})
	d := build(t, r)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprint(i)
			env := d.Serve(get("/user/" + id))
			assert.Equal(t, id, env.Body)
			assert.Equal(t, []string{id}, env.Headers.Values("X-Id"))
		}()
	}
	wg.Wait()
}

func TestDispatcher_CORS(t *testing.T) {
	t.Parallel()

	r := router.New(router.WithCORS(response.CORS{AllowOrigins: []string{"https://app.example"}}))
	r.Get("/", text("ok"))
	d := build(t, r)

	preflight := request.New(context.Background(),
		request.WithMethod("OPTIONS"),
		request.WithHeader("Origin", "https://app.example"),
	)
	env := d.Serve(preflight)
	assert.Equal(t, 204, env.StatusCode)
	assert.Equal(t, "https://app.example", env.Headers.Get("Access-Control-Allow-Origin"))

	env = d.Serve(request.New(context.Background(), request.WithHeader("Origin", "https://app.example")))
	assert.Equal(t, "ok", env.Body)
	assert.Equal(t, "https://app.example", env.Headers.Get("Access-Control-Allow-Origin"))

	env = d.Serve(request.New(context.Background(), request.WithHeader("Origin", "https://evil.example")))
	assert.Empty(t, env.Headers.Get("Access-Control-Allow-Origin"))
}

type rejectAll struct{}

func (rejectAll) Validate(any) error { return errors.New("field required") }

func TestDispatcher_Validation(t *testing.T) {
	t.Parallel()

	t.Run("default handler", func(t *testing.T) {
		t.Parallel()

		boundary := false
		called := false
		r := router.New(router.WithErrorHandler(func(error, *request.Context, *router.Resolver, []any) *response.Envelope {
			boundary = true
			return nil
		}))
		r.Operation("create", func(*request.Context, *router.Resolver) (*response.Envelope, error) {
			called = true
			return nil, nil
		}, router.WithValidator(rejectAll{}))
		r.Get("/form", text("ok"), router.WithValidator(rejectAll{}))
		d := build(t, r)

		env := d.Serve(operation("create", map[string]any{}))
		assert.Equal(t, 200, env.StatusCode)
		assert.Contains(t, decodeOperation(t, env).ErrorMessage, "field required")
		assert.Equal(t, 400, d.Serve(get("/form")).StatusCode)
		assert.False(t, called)
		assert.False(t, boundary)
	})

	t.Run("custom handler", func(t *testing.T) {
		t.Parallel()

		var gotErr error
		r := router.New(router.WithValidationHandler(func(err error, _ *request.Context, _ *router.Resolver) *response.Envelope {
			gotErr = err
			return response.Status(422)
		}))
		r.Operation("create", text("ok"), router.WithValidator(rejectAll{}), router.WithName("create user"))

		env := build(t, r).Serve(operation("create", nil))
		assert.Equal(t, 422, env.StatusCode)
		assert.ErrorIs(t, gotErr, router.ErrValidationFailed)
	})
}

func TestDispatcher_Handle(t *testing.T) {
	t.Parallel()

	r := router.New(router.WithAPIVersion("v1"))
	r.Operation("echo", func(ctx *request.Context, res *router.Resolver) (*response.Envelope, error) {
		ctx.LogToResponse("echoed")
		return res.Operation(ctx.OperationPayload)
	})
	d := build(t, r)

	ev := events.APIGatewayV2HTTPRequest{
		RawPath: "/operation",
		Headers: map[string]string{"content-type": "application/json"},
		Body:    `{"operationName":"echo","payload":{"n":1}}`,
	}
	ev.RequestContext.HTTP.Method = "POST"

	env := d.Handle(context.Background(), ev, request.Invocation{RequestID: "abc"})
	body := decodeOperation(t, env)
	assert.Equal(t, "v1", body.APIVersion)
	assert.Equal(t, map[string]any{"n": float64(1)}, body.Payload)
	assert.Equal(t, []any{"echoed"}, body.LogList)
}
