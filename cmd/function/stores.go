package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/lambdakit/core/config"
	"github.com/dmitrymomot/lambdakit/core/session"
	"github.com/dmitrymomot/lambdakit/integration/database/mongo"
	"github.com/dmitrymomot/lambdakit/integration/database/pg"
	"github.com/dmitrymomot/lambdakit/integration/database/redis"
	dynamostore "github.com/dmitrymomot/lambdakit/integration/sessionstore/dynamodb"
	mongostore "github.com/dmitrymomot/lambdakit/integration/sessionstore/mongo"
	pgstore "github.com/dmitrymomot/lambdakit/integration/sessionstore/pg"
	redisstore "github.com/dmitrymomot/lambdakit/integration/sessionstore/redis"
)

// Session store backends selectable with SESSION_STORE.
const (
	backendMemory   = "memory"
	backendDynamoDB = "dynamodb"
	backendRedis    = "redis"
	backendPostgres = "postgres"
	backendMongo    = "mongo"
)

var ErrUnknownBackend = errors.New("unknown session store backend")

// backend is an opened session store with its probe and release func.
type backend struct {
	store  session.Store
	health func(context.Context) error
	close  func()
}

// openBackend connects the store named by kind. Backend settings are loaded
// only for the selected kind, so unrelated required variables may stay unset.
func openBackend(ctx context.Context, kind string, log *slog.Logger) (*backend, error) {
	switch kind {
	case backendMemory, "":
		return &backend{store: session.NewMemoryStore(), close: func() {}}, nil

	case backendDynamoDB:
		var cfg dynamostore.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		store, err := dynamostore.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &backend{store: store, close: func() {}}, nil

	case backendRedis:
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store, err := redisstore.New(client)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &backend{
			store:  store,
			health: redis.Healthcheck(client),
			close:  func() { _ = client.Close() },
		}, nil

	case backendPostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, pgstore.Migrations(), cfg, log); err != nil {
			pool.Close()
			return nil, err
		}
		store, err := pgstore.New(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return &backend{store: store, health: pg.Healthcheck(pool), close: pool.Close}, nil

	case backendMongo:
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		db, err := mongo.NewWithDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		release := func() { _ = db.Client().Disconnect(context.Background()) }
		store, err := mongostore.New(db.Collection(mongostore.DefaultCollection))
		if err != nil {
			release()
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			release()
			return nil, err
		}
		return &backend{store: store, health: mongo.Healthcheck(db.Client()), close: release}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
}
