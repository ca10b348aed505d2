// Package mongo implements session.Store on a MongoDB collection.
//
// Each document carries the record fields plus expire_at, a BSON date covered
// by a TTL index so MongoDB removes expired sessions. EnsureIndexes also
// creates the unique (pk, sk) index the store relies on for upserts.
package mongo
