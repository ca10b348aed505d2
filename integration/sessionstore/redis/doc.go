// Package redis implements session.Store on Redis. Records expire with their
// session, and a per-partition sorted set supports ending every session of
// one principal.
package redis
