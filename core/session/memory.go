package session

import (
	"context"
	"slices"
	"sync"
)

// DefaultPageSize is the QueryByPartition page size used by built-in stores.
const DefaultPageSize = 100

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]map[string]*Record
	pageSize int
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithPageSize sets the QueryByPartition page size.
func WithPageSize(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		records:  make(map[string]map[string]*Record),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, pk, sk string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[pk][sk]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec == nil {
		return ErrNilRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.records[rec.PartitionKey]
	if !ok {
		partition = make(map[string]*Record)
		s.records[rec.PartitionKey] = partition
	}
	partition[rec.SortKey] = rec.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, pk, sk string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.records[pk]
	if !ok {
		return ErrNotFound
	}
	if _, ok := partition[sk]; !ok {
		return ErrNotFound
	}
	delete(partition, sk)
	if len(partition) == 0 {
		delete(s.records, pk)
	}
	return nil
}

// QueryByPartition pages through a partition in sort key order. The cursor is
// the last sort key of the previous page.
func (s *MemoryStore) QueryByPartition(ctx context.Context, pk, cursor string) ([]*Record, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	partition := s.records[pk]
	keys := make([]string, 0, len(partition))
	for sk := range partition {
		if sk > cursor {
			keys = append(keys, sk)
		}
	}
	slices.Sort(keys)

	next := ""
	if len(keys) > s.pageSize {
		keys = keys[:s.pageSize]
		next = keys[len(keys)-1]
	}

	out := make([]*Record, 0, len(keys))
	for _, sk := range keys {
		out = append(out, partition[sk].Clone())
	}
	return out, next, nil
}
