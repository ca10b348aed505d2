// Package pg connects pgx pools with retry, applies goose migrations from an
// fs.FS and classifies common PostgreSQL errors.
//
// Configuration is read from the environment:
//
//	PG_CONN_URL            (required)
//	PG_MAX_OPEN_CONNS      (default: 4)
//	PG_MAX_IDLE_CONNS      (default: 1)
//	PG_RETRY_ATTEMPTS      (default: 3)
//	PG_RETRY_INTERVAL      (default: 2s)
//	PG_MIGRATIONS_TABLE    (default: schema_migrations)
//
// Pools stay small because every function instance holds its own.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, migrations, cfg, log); err != nil {
//		return err
//	}
//
// WithTx and TxFromContext carry a pgx.Tx through the context so stores can
// join a caller's transaction.
package pg
