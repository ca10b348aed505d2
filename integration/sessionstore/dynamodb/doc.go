// Package dynamodb implements session.Store on a DynamoDB table keyed by
// (pk HASH, sk RANGE).
//
// Reads are strongly consistent. Delete is conditional on the item existing so
// a missing session surfaces as session.ErrNotFound. Enable the table's TTL on
// the expiresAt attribute to have expired sessions purged server-side.
//
//	store, err := dynamodb.New(ctx, dynamodb.Config{TableName: "sessions"})
//	if err != nil {
//		return err
//	}
//	sessions, err := session.NewFromConfig(store, cfg.Session)
//
// DYNAMODB_ENDPOINT points the client at DynamoDB Local for development.
package dynamodb
