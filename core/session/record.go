package session

import (
	"maps"
	"time"
)

// Record is a persisted session. PartitionKey is derived from the session key, so
// every session of one principal shares a partition; SortKey is random per session.
//
// Timestamps are Unix seconds, which DynamoDB TTL attributes expect.
type Record struct {
	PartitionKey   string         `json:"pk" dynamodbav:"pk" bson:"pk" db:"pk"`
	SortKey        string         `json:"sk" dynamodbav:"sk" bson:"sk" db:"sk"`
	SessionToken   string         `json:"sessionToken" dynamodbav:"sessionToken" bson:"session_token" db:"session_token"`
	CSRFToken      string         `json:"csrfToken" dynamodbav:"csrfToken" bson:"csrf_token" db:"csrf_token"`
	SessionKey     string         `json:"sessionKey" dynamodbav:"sessionKey" bson:"session_key" db:"session_key"`
	Data           map[string]any `json:"data,omitempty" dynamodbav:"data,omitempty" bson:"data,omitempty" db:"data"`
	CreatedAt      int64          `json:"createdAt" dynamodbav:"createdAt" bson:"created_at" db:"created_at"`
	LastAccessedAt int64          `json:"lastAccessedAt" dynamodbav:"lastAccessedAt" bson:"last_accessed_at" db:"last_accessed_at"`
	ExpiresAt      int64          `json:"expiresAt" dynamodbav:"expiresAt" bson:"expires_at" db:"expires_at"`
	TTLInSeconds   int64          `json:"ttlInSeconds" dynamodbav:"ttlInSeconds" bson:"ttl_in_seconds" db:"ttl_in_seconds"`
}

// Expires returns ExpiresAt as a time.
func (r *Record) Expires() time.Time {
	return time.Unix(r.ExpiresAt, 0)
}

// TTL returns the record lifetime.
func (r *Record) TTL() time.Duration {
	return time.Duration(r.TTLInSeconds) * time.Second
}

// IsExpired reports whether the record is expired at now.
func (r *Record) IsExpired(now time.Time) bool {
	return now.Unix() >= r.ExpiresAt
}

// IsComplete reports whether every field needed for validation is present.
func (r *Record) IsComplete() bool {
	return r.PartitionKey != "" &&
		r.SortKey != "" &&
		r.SessionToken != "" &&
		r.CSRFToken != "" &&
		r.SessionKey != "" &&
		r.TTLInSeconds > 0 &&
		r.CreatedAt > 0 &&
		r.LastAccessedAt > 0 &&
		r.ExpiresAt > 0
}

// Clone returns a copy with its own Data map. Nested values are shared.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Data = maps.Clone(r.Data)
	return &c
}

// RecordFrom extracts a record attached to a request, nil when none.
func RecordFrom(v any) *Record {
	rec, _ := v.(*Record)
	return rec
}
