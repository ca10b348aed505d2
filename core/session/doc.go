// Package session implements server-side sessions with tamper-resistant tokens
// backed by a key-value store with a composite (partition, sort) key.
//
// # Tokens
//
// A session token has the form "pk:sk". The partition key pk is the hex
// BLAKE2b-256 of the caller-supplied session key (for example a user ID), keyed
// with the server secret, so all sessions of one principal share a partition and
// can be ended together. The sort key sk and the CSRF token are independent
// 32-byte random values encoded as base64url.
//
// Token and CSRF comparisons use crypto/subtle. A record is valid only while it
// is complete and unexpired. With sliding expiration each successful fetch moves
// ExpiresAt to now + TTL and persists the record.
//
// # Usage
//
//	store := session.NewMemoryStore()
//	m, err := session.NewManager(store, []byte(secret),
//		session.WithTTL(12*time.Hour),
//	)
//	if err != nil {
//		return err
//	}
//
//	// Inside an action, bound to the request context:
//	ctrl := m.Controller(ctx)
//	rec, err := ctrl.Create(userID, map[string]any{"role": "admin"}, 0)
//
//	// Later requests:
//	rec, err := ctrl.Fetch()
//	switch {
//	case errors.Is(err, session.ErrTokensInvalid),
//		errors.Is(err, session.ErrNotFound),
//		errors.Is(err, session.ErrInvalid):
//		// treat as signed out
//	}
//
// The controller queues Set-Cookie headers on the request: the session cookie is
// HttpOnly, Secure and SameSite=Lax; the CSRF cookie is Secure and SameSite=Lax
// but readable by scripts so clients can echo it in the operation body.
// Route (non-operation) requests skip the CSRF check but still need a
// well-formed session cookie.
//
// # Stores
//
// MemoryStore ships with this package. DynamoDB, Redis, PostgreSQL and MongoDB
// implementations live under integration/sessionstore.
package session
