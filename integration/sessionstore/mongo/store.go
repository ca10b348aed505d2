package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/lambdakit/core/session"
)

var _ session.Store = (*Store)(nil)

var ErrNilCollection = errors.New("mongodb collection is required")

// Collection is the subset of *mongo.Collection used by Store.
type Collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	ReplaceOne(ctx context.Context, filter any, replacement any, opts ...options.Lister[options.ReplaceOptions]) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
	Indexes() mongo.IndexView
}

var _ Collection = (*mongo.Collection)(nil)

// DefaultCollection is the collection name used by cmd wiring.
const DefaultCollection = "sessions"

// document adds a BSON date for the TTL index; Record keeps epoch seconds.
type document struct {
	session.Record `bson:",inline"`
	ExpireAt       time.Time `bson:"expire_at"`
}

func toDocument(rec *session.Record) document {
	return document{Record: *rec, ExpireAt: rec.Expires().UTC()}
}

// record returns the decoded Record with Data converted back from bson.D and
// bson.A to plain maps and slices.
func (d *document) record() *session.Record {
	rec := d.Record
	if rec.Data != nil {
		data := make(map[string]any, len(rec.Data))
		for k, v := range rec.Data {
			data[k] = plain(v)
		}
		rec.Data = data
	}
	return &rec
}

func plain(v any) any {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plain(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = plain(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = plain(e)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}

// Store persists sessions in a MongoDB collection.
type Store struct {
	coll     Collection
	pageSize int64
}

// Option configures a Store.
type Option func(*Store)

// WithPageSize sets the QueryByPartition page size.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = int64(n)
		}
	}
}

// New creates a Store over coll. Call EnsureIndexes once per deployment.
func New(coll Collection, opts ...Option) (*Store, error) {
	if coll == nil {
		return nil, ErrNilCollection
	}
	if c, ok := coll.(*mongo.Collection); ok && c == nil {
		return nil, ErrNilCollection
	}
	s := &Store{coll: coll, pageSize: session.DefaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Indexes returns the unique key index and the TTL index on expire_at.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pk", Value: 1}, {Key: "sk", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("pk_sk"),
		},
		{
			Keys:    bson.D{{Key: "expire_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("expire_at_ttl"),
		},
	}
}

// EnsureIndexes creates the indexes returned by Indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.coll.Indexes().CreateMany(ctx, Indexes()); err != nil {
		return fmt.Errorf("create session indexes: %w", err)
	}
	return nil
}

func keyFilter(pk, sk string) bson.D {
	return bson.D{{Key: "pk", Value: pk}, {Key: "sk", Value: sk}}
}

func (s *Store) Get(ctx context.Context, pk, sk string) (*session.Record, error) {
	var doc document
	err := s.coll.FindOne(ctx, keyFilter(pk, sk)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return doc.record(), nil
}

func (s *Store) Put(ctx context.Context, rec *session.Record) error {
	if rec == nil {
		return session.ErrNilRecord
	}
	_, err := s.coll.ReplaceOne(ctx,
		keyFilter(rec.PartitionKey, rec.SortKey),
		toDocument(rec),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, pk, sk string) error {
	res, err := s.coll.DeleteOne(ctx, keyFilter(pk, sk))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if res.DeletedCount == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (s *Store) QueryByPartition(ctx context.Context, pk, cursor string) ([]*session.Record, string, error) {
	filter := bson.D{
		{Key: "pk", Value: pk},
		{Key: "sk", Value: bson.D{{Key: "$gt", Value: cursor}}},
	}
	cur, err := s.coll.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "sk", Value: 1}}).
			SetLimit(s.pageSize+1),
	)
	if err != nil {
		return nil, "", fmt.Errorf("query sessions: %w", err)
	}

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, "", fmt.Errorf("query sessions: %w", err)
	}

	next := ""
	if int64(len(docs)) > s.pageSize {
		docs = docs[:s.pageSize]
		next = docs[len(docs)-1].SortKey
	}

	recs := make([]*session.Record, len(docs))
	for i := range docs {
		recs[i] = docs[i].record()
	}
	return recs, next, nil
}
