package pg

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/lambdakit/core/session"
	pgdb "github.com/dmitrymomot/lambdakit/integration/database/pg"
)

var _ session.Store = (*Store)(nil)

var (
	ErrNilPool          = errors.New("postgres pool is required")
	ErrInvalidTableName = errors.New("invalid sessions table name")
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose migrations creating the default sessions table.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// DefaultTable is the table created by Migrations.
const DefaultTable = "sessions"

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// Store persists sessions in a PostgreSQL table. Writes join a transaction
// carried by the context (see integration/database/pg.WithTx).
type Store struct {
	db       pgdb.Querier
	pageSize int
	q        queries
}

type queries struct {
	get, put, del, query, purge string
}

// Option configures a Store.
type Option func(*Store) error

// WithTable sets the table name. It must be a plain or schema-qualified identifier.
func WithTable(name string) Option {
	return func(s *Store) error {
		if !tableName.MatchString(name) {
			return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
		}
		s.q = buildQueries(name)
		return nil
	}
}

// WithPageSize sets the QueryByPartition page size.
func WithPageSize(n int) Option {
	return func(s *Store) error {
		if n > 0 {
			s.pageSize = n
		}
		return nil
	}
}

// New creates a Store. db is usually a *pgxpool.Pool.
func New(db pgdb.Querier, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilPool
	}
	s := &Store{
		db:       db,
		pageSize: session.DefaultPageSize,
		q:        buildQueries(DefaultTable),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

const columns = `pk, sk, session_token, csrf_token, session_key, data, created_at, last_accessed_at, expires_at, ttl_in_seconds`

func buildQueries(table string) queries {
	return queries{
		get: `SELECT ` + columns + ` FROM ` + table + ` WHERE pk = $1 AND sk = $2`,
		put: `INSERT INTO ` + table + ` (` + columns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (pk, sk) DO UPDATE SET
				session_token = EXCLUDED.session_token,
				csrf_token = EXCLUDED.csrf_token,
				session_key = EXCLUDED.session_key,
				data = EXCLUDED.data,
				created_at = EXCLUDED.created_at,
				last_accessed_at = EXCLUDED.last_accessed_at,
				expires_at = EXCLUDED.expires_at,
				ttl_in_seconds = EXCLUDED.ttl_in_seconds`,
		del:   `DELETE FROM ` + table + ` WHERE pk = $1 AND sk = $2`,
		query: `SELECT ` + columns + ` FROM ` + table + ` WHERE pk = $1 AND sk > $2 ORDER BY sk LIMIT $3`,
		purge: `DELETE FROM ` + table + ` WHERE expires_at <= $1`,
	}
}

func (s *Store) Get(ctx context.Context, pk, sk string) (*session.Record, error) {
	rows, err := pgdb.Conn(ctx, s.db).Query(ctx, s.q.get, pk, sk)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[session.Record])
	if pgdb.IsNotFoundError(err) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return rec, nil
}

func (s *Store) Put(ctx context.Context, rec *session.Record) error {
	if rec == nil {
		return session.ErrNilRecord
	}
	data := rec.Data
	if data == nil {
		data = map[string]any{}
	}
	_, err := pgdb.Conn(ctx, s.db).Exec(ctx, s.q.put,
		rec.PartitionKey, rec.SortKey, rec.SessionToken, rec.CSRFToken, rec.SessionKey,
		data, rec.CreatedAt, rec.LastAccessedAt, rec.ExpiresAt, rec.TTLInSeconds,
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, pk, sk string) error {
	tag, err := pgdb.Conn(ctx, s.db).Exec(ctx, s.q.del, pk, sk)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (s *Store) QueryByPartition(ctx context.Context, pk, cursor string) ([]*session.Record, string, error) {
	rows, err := pgdb.Conn(ctx, s.db).Query(ctx, s.q.query, pk, cursor, s.pageSize+1)
	if err != nil {
		return nil, "", fmt.Errorf("query sessions: %w", err)
	}
	recs, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[session.Record])
	if err != nil {
		return nil, "", fmt.Errorf("query sessions: %w", err)
	}

	next := ""
	if len(recs) > s.pageSize {
		recs = recs[:s.pageSize]
		next = recs[len(recs)-1].SortKey
	}
	return recs, next, nil
}

// PurgeExpired deletes sessions expired at now and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := pgdb.Conn(ctx, s.db).Exec(ctx, s.q.purge, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
