// Package pg implements session.Store on PostgreSQL.
//
// Migrations returns the goose migrations for the default table; apply them
// with integration/database/pg.Migrate on deploy or cold start. PostgreSQL has
// no native row TTL, so call PurgeExpired from a scheduled invocation.
package pg
