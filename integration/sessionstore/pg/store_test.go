package pg_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lambdakit/core/session"
	"github.com/dmitrymomot/lambdakit/integration/sessionstore/pg"
)

type execCall struct {
	sql  string
	args []any
}

// fakeDB records calls. Exec answers with a fixed command tag; Query hands
// out the queued result sets in order.
type fakeDB struct {
	tag     string
	calls   []execCall
	queries []execCall
	results []*fakeRows
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag(f.tag), nil
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, execCall{sql: sql, args: args})
	if len(f.results) == 0 {
		return &fakeRows{}, nil
	}
	rows := f.results[0]
	f.results = f.results[1:]
	return rows, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not used")
}

var sessionColumns = []string{
	"pk", "sk", "session_token", "csrf_token", "session_key", "data",
	"created_at", "last_accessed_at", "expires_at", "ttl_in_seconds",
}

// fakeRows serves rows in sessionColumns order. The data column holds raw
// JSON and is decoded on Scan the way pgx decodes jsonb.
type fakeRows struct {
	rows [][]any
	pos  int
	err  error
}

func sessionRow(sk string, data string) []any {
	return []any{"pk", sk, "pk:" + sk, "csrf-" + sk, "user", []byte(data),
		int64(100), int64(200), int64(3700), int64(3600)}
}

func (r *fakeRows) Close()                        {}
func (r *fakeRows) Err() error                    { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) Values() ([]any, error)        { return r.rows[r.pos-1], nil }
func (r *fakeRows) RawValues() [][]byte           { return nil }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(sessionColumns))
	for i, name := range sessionColumns {
		fds[i] = pgconn.FieldDescription{Name: name}
	}
	return fds
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d targets for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		if raw, ok := row[i].([]byte); ok {
			if err := json.Unmarshal(raw, d); err != nil {
				return err
			}
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := pg.New(nil)
	assert.ErrorIs(t, err, pg.ErrNilPool)

	_, err = pg.New(&fakeDB{}, pg.WithTable("sessions; drop table users"))
	assert.ErrorIs(t, err, pg.ErrInvalidTableName)

	_, err = pg.New(&fakeDB{}, pg.WithTable("auth.sessions"))
	assert.NoError(t, err)
}

func TestMigrations(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(pg.Migrations(), ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	raw, err := fs.ReadFile(pg.Migrations(), entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "-- +goose Up")
	assert.Contains(t, string(raw), "PRIMARY KEY (pk, sk)")
}

func TestStore_Put(t *testing.T) {
	t.Parallel()

	db := &fakeDB{tag: "INSERT 0 1"}
	s, err := pg.New(db, pg.WithTable("custom_sessions"))
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), &session.Record{PartitionKey: "pk", SortKey: "sk", ExpiresAt: 10}))
	require.Len(t, db.calls, 1)
	assert.True(t, strings.HasPrefix(db.calls[0].sql, "INSERT INTO custom_sessions"))
	assert.Contains(t, db.calls[0].sql, "ON CONFLICT (pk, sk)")
	assert.Equal(t, "pk", db.calls[0].args[0])
	assert.Equal(t, map[string]any{}, db.calls[0].args[5])

	assert.ErrorIs(t, s.Put(context.Background(), nil), session.ErrNilRecord)
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	s, err := pg.New(&fakeDB{tag: "DELETE 1"})
	require.NoError(t, err)
	assert.NoError(t, s.Delete(context.Background(), "pk", "sk"))

	s, err = pg.New(&fakeDB{tag: "DELETE 0"})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Delete(context.Background(), "pk", "sk"), session.ErrNotFound)
}

func TestStore_PurgeExpired(t *testing.T) {
	t.Parallel()

	db := &fakeDB{tag: "DELETE 3"}
	s, err := pg.New(db)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0)
	n, err := s.PurgeExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []any{int64(1700000000)}, db.calls[0].args)
}

func TestStore_Get(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{results: []*fakeRows{{rows: [][]any{
			sessionRow("sk", `{"profile":{"name":"a"},"roles":["admin"]}`),
		}}}}
		s, err := pg.New(db)
		require.NoError(t, err)

		rec, err := s.Get(context.Background(), "pk", "sk")
		require.NoError(t, err)
		assert.Equal(t, "pk:sk", rec.SessionToken)
		assert.Equal(t, "csrf-sk", rec.CSRFToken)
		assert.Equal(t, "user", rec.SessionKey)
		assert.Equal(t, int64(3700), rec.ExpiresAt)
		assert.Equal(t, int64(3600), rec.TTLInSeconds)
		assert.Equal(t, map[string]any{"name": "a"}, rec.Data["profile"])
		assert.Equal(t, []any{"admin"}, rec.Data["roles"])

		require.Len(t, db.queries, 1)
		assert.Contains(t, db.queries[0].sql, "FROM sessions WHERE pk = $1 AND sk = $2")
		assert.Equal(t, []any{"pk", "sk"}, db.queries[0].args)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		s, err := pg.New(&fakeDB{})
		require.NoError(t, err)

		_, err = s.Get(context.Background(), "pk", "sk")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})
}

func TestStore_QueryByPartition(t *testing.T) {
	t.Parallel()

	db := &fakeDB{results: []*fakeRows{
		{rows: [][]any{sessionRow("sk1", `{}`), sessionRow("sk2", `{}`), sessionRow("sk3", `{}`)}},
		{rows: [][]any{sessionRow("sk3", `{}`)}},
	}}
	s, err := pg.New(db, pg.WithPageSize(2))
	require.NoError(t, err)
	ctx := context.Background()

	page, next, err := s.QueryByPartition(ctx, "pk", "")
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "sk1", page[0].SortKey)
	assert.Equal(t, "sk2", next)

	page, next, err = s.QueryByPartition(ctx, "pk", next)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "sk3", page[0].SortKey)
	assert.Empty(t, next)

	require.Len(t, db.queries, 2)
	assert.Contains(t, db.queries[0].sql, "sk > $2 ORDER BY sk LIMIT $3")
	assert.Equal(t, []any{"pk", "", 3}, db.queries[0].args)
	assert.Equal(t, []any{"pk", "sk2", 3}, db.queries[1].args)
}
