// Package health provides router actions for health probes.
//
//	r.Get("/health/live", health.Liveness)
//	r.Get("/health/ready", health.Readiness(log, pg.Healthcheck(pool)))
//	r.Get("/ping", health.NoContent)
//
// Dependency checks follow the func(context.Context) error signature that the
// integration packages' Healthcheck functions return.
package health
