// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is parsed once per process and cached,
// which matters for functions that call Load on every warm invocation.
//
// The package loads a .env file on first use (if present) and uses
// caarlos0/env for parsing environment variables into struct fields.
//
//	type Config struct {
//		Session session.Config
//		Router  router.Config
//		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or panic on failure during cold start.
//	config.MustLoad(&cfg)
package config
