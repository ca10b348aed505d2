package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/lambdakit/core/session"
)

var _ session.Store = (*Store)(nil)

var (
	ErrNilClient = errors.New("redis client is required")
	ErrCorrupted = errors.New("stored session is not valid JSON")
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "session"

// Store keeps each record as a JSON string expiring at the record's ExpiresAt,
// plus one sorted set per partition indexing its sort keys.
//
//	{prefix}:{pk}:{sk}  record
//	{prefix}:{pk}       index, members scored 0 and ordered lexically
//
// Index members whose record has expired are pruned on the next query.
type Store struct {
	client   redis.UniversalClient
	prefix   string
	pageSize int64
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithPageSize sets the QueryByPartition page size.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = int64(n)
		}
	}
}

// WithClock overrides the time source used to compute key expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store over client.
func New(client redis.UniversalClient, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	s := &Store{
		client:   client,
		prefix:   DefaultPrefix,
		pageSize: session.DefaultPageSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) recordKey(pk, sk string) string {
	return s.prefix + ":" + pk + ":" + sk
}

func (s *Store) indexKey(pk string) string {
	return s.prefix + ":" + pk
}

func (s *Store) Get(ctx context.Context, pk, sk string) (*session.Record, error) {
	raw, err := s.client.Get(ctx, s.recordKey(pk, sk)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec session.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.Join(ErrCorrupted, err)
	}
	return &rec, nil
}

func (s *Store) Put(ctx context.Context, rec *session.Record) error {
	if rec == nil {
		return session.ErrNilRecord
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := rec.Expires().Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(rec.PartitionKey, rec.SortKey), raw, ttl)
		pipe.ZAdd(ctx, s.indexKey(rec.PartitionKey), redis.Z{Member: rec.SortKey})
		return nil
	})
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, pk, sk string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.recordKey(pk, sk))
		pipe.ZRem(ctx, s.indexKey(pk), sk)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if del.Val() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// QueryByPartition pages through the partition index in sort key order.
func (s *Store) QueryByPartition(ctx context.Context, pk, cursor string) ([]*session.Record, string, error) {
	start := "-"
	if cursor != "" {
		start = "(" + cursor
	}

	sks, err := s.client.ZRangeArgs(ctx, redis.ZRangeArgs{
		Key:   s.indexKey(pk),
		Start: start,
		Stop:  "+",
		ByLex: true,
		Count: s.pageSize + 1,
	}).Result()
	if err != nil {
		return nil, "", fmt.Errorf("query sessions: %w", err)
	}

	next := ""
	if int64(len(sks)) > s.pageSize {
		sks = sks[:s.pageSize]
		next = sks[len(sks)-1]
	}
	if len(sks) == 0 {
		return nil, next, nil
	}

	keys := make([]string, len(sks))
	for i, sk := range sks {
		keys[i] = s.recordKey(pk, sk)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, "", fmt.Errorf("query sessions: %w", err)
	}

	recs := make([]*session.Record, 0, len(values))
	var stale []any
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			stale = append(stale, sks[i])
			continue
		}
		var rec session.Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return nil, "", errors.Join(ErrCorrupted, err)
		}
		recs = append(recs, &rec)
	}
	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, s.indexKey(pk), stale...).Err(); err != nil {
			return nil, "", fmt.Errorf("prune session index: %w", err)
		}
	}
	return recs, next, nil
}
