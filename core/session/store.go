package session

import "context"

// Store persists session records under a composite (partition, sort) key.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the record with a strongly consistent read, or ErrNotFound.
	Get(ctx context.Context, pk, sk string) (*Record, error)
	// Put inserts or replaces the record.
	Put(ctx context.Context, rec *Record) error
	// Delete removes the record, or returns ErrNotFound when it does not exist.
	Delete(ctx context.Context, pk, sk string) error
	// QueryByPartition returns one page of records sharing pk. An empty cursor
	// starts from the beginning; an empty next cursor means no more pages.
	QueryByPartition(ctx context.Context, pk, cursor string) ([]*Record, string, error)
}
