package request_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lambdakit/core/request"
)

type ctxKey struct{}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		c := request.New(context.Background())
		assert.Equal(t, "GET", c.Method)
		assert.Equal(t, "/", c.Path)
		assert.False(t, c.IsOperation())
		assert.NotNil(t, c.Query)
		assert.NotNil(t, c.Body)
		assert.NotNil(t, c.PathParams)
		assert.Nil(t, c.Session)
	})

	t.Run("nil parent context", func(t *testing.T) {
		t.Parallel()

		//nolint:staticcheck // nil context is accepted on purpose
		c := request.New(nil)
		assert.NoError(t, c.Err())
	})

	t.Run("operation options", func(t *testing.T) {
		t.Parallel()

		c := request.New(context.Background(),
			request.WithMethod("post"),
			request.WithPath("/operation"),
			request.WithOperation("getUser", map[string]any{"id": 1}),
			request.WithVersion("3"),
			request.WithCSRFToken("csrf"),
			request.WithCookie("session_token", "a:b"),
			request.WithHeader("X-Custom", "v"),
		)

		assert.Equal(t, "POST", c.Method)
		assert.True(t, c.IsOperation())
		assert.Equal(t, "getUser", c.OperationName)
		assert.Equal(t, map[string]any{"id": 1}, c.OperationPayload)
		assert.Equal(t, "3", c.Version())
		assert.Equal(t, "csrf", c.CSRFToken())
		assert.Equal(t, "a:b", c.Cookie("session_token"))
		assert.Equal(t, "v", c.Header("x-custom"))
		assert.Equal(t, "v", c.Header("X-CUSTOM"))
	})
}

func TestContext_ContextDelegation(t *testing.T) {
	t.Parallel()

	deadline := time.Now().Add(time.Minute)
	parent, cancel := context.WithDeadline(context.WithValue(context.Background(), ctxKey{}, "parent"), deadline)
	defer cancel()

	c := request.New(parent)

	got, ok := c.Deadline()
	require.True(t, ok)
	assert.Equal(t, deadline, got)
	assert.Equal(t, "parent", c.Value(ctxKey{}))

	c.SetValue(ctxKey{}, "child")
	assert.Equal(t, "child", c.Value(ctxKey{}))

	cancel()
	<-c.Done()
	assert.ErrorIs(t, c.Err(), context.Canceled)
}

func TestContext_Accumulators(t *testing.T) {
	t.Parallel()

	c := request.New(context.Background())

	c.AppendHeader("Set-Cookie", "a=1")
	c.SetHeader("X-Frame", "DENY")
	c.AppendHeader("Set-Cookie", "b=2")

	assert.Equal(t, []request.Header{{Key: "X-Frame", Value: "DENY"}}, c.HeaderSets())
	assert.Equal(t, []request.Header{
		{Key: "Set-Cookie", Value: "a=1"},
		{Key: "Set-Cookie", Value: "b=2"},
	}, c.HeaderAppends())

	c.LogToResponse("first")
	c.LogToResponse(map[string]any{"step": 2})
	assert.Equal(t, []any{"first", map[string]any{"step": 2}}, c.ResponseLogs())

	c.AttachSession("record")
	assert.Equal(t, "record", c.Session)
	c.AttachSession(nil)
	assert.Nil(t, c.Session)
}
