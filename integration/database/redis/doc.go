// Package redis connects go-redis clients with retry and exposes a ping health
// check. The session store in integration/sessionstore/redis builds on it.
//
// Configuration is read from the environment:
//
//	REDIS_URL              (required, redis:// or rediss://)
//	REDIS_RETRY_ATTEMPTS   (default: 3)
//	REDIS_RETRY_INTERVAL   (default: 5s, doubled after each failed attempt)
//	REDIS_CONNECT_TIMEOUT  (default: 30s)
//
// Usage:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Errors are stable sentinels: ErrEmptyConnectionURL,
// ErrFailedToParseRedisConnString, ErrRedisNotReady and ErrHealthcheckFailed.
package redis
