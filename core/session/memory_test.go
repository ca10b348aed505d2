package session_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lambdakit/core/session"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("get returns copies", func(t *testing.T) {
		t.Parallel()

		s := session.NewMemoryStore()
		rec := &session.Record{PartitionKey: "pk", SortKey: "sk", Data: map[string]any{"a": 1}}
		require.NoError(t, s.Put(ctx, rec))

		rec.Data["a"] = 2
		got, err := s.Get(ctx, "pk", "sk")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Data["a"])
	})

	t.Run("missing records", func(t *testing.T) {
		t.Parallel()

		s := session.NewMemoryStore()
		_, err := s.Get(ctx, "pk", "sk")
		assert.ErrorIs(t, err, session.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "pk", "sk"), session.ErrNotFound)
	})

	t.Run("query pages in sort key order", func(t *testing.T) {
		t.Parallel()

		s := session.NewMemoryStore(session.WithPageSize(2))
		for i := range 5 {
			require.NoError(t, s.Put(ctx, &session.Record{PartitionKey: "pk", SortKey: fmt.Sprintf("sk%d", i)}))
		}
		require.NoError(t, s.Put(ctx, &session.Record{PartitionKey: "other", SortKey: "sk0"}))

		var keys []string
		cursor := ""
		pages := 0
		for {
			page, next, err := s.QueryByPartition(ctx, "pk", cursor)
			require.NoError(t, err)
			pages++
			for _, r := range page {
				keys = append(keys, r.SortKey)
			}
			if next == "" {
				break
			}
			cursor = next
		}

		assert.Equal(t, []string{"sk0", "sk1", "sk2", "sk3", "sk4"}, keys)
		assert.Equal(t, 3, pages)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := session.NewMemoryStore().Get(cctx, "pk", "sk")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
