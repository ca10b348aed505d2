package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNilConfig is returned when Load receives a nil pointer.
var ErrNilConfig = errors.New("config: target must be a non-nil pointer")

var (
	loadEnvOnce sync.Once
	cache       sync.Map // reflect.Type -> any (struct value)
)

// Load parses environment variables into cfg. The first call loads .env from the
// working directory when present. Each config type is parsed once; later calls
// with the same type receive the cached value.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}

	loadEnvOnce.Do(func() {
		// Missing .env is normal in deployed functions.
		_ = godotenv.Load()
	})

	typ := reflect.TypeFor[T]()
	if cached, ok := cache.Load(typ); ok {
		*cfg = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", typ, err)
	}

	actual, _ := cache.LoadOrStore(typ, parsed)
	*cfg = actual.(T)
	return nil
}

// MustLoad is like Load but panics on failure. Useful during cold start.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// reset clears the cache. Used by tests.
func reset() {
	cache.Range(func(key, _ any) bool {
		cache.Delete(key)
		return true
	})
}
