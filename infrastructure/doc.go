// Package infrastructure provides concrete implementations of the interfaces
// defined in the core package. These implementations handle external concerns
// such as storage, HTTP communication, and logging.
//
// The infrastructure package is organized by technical concern:
//
// - cache/redis: Redis-backed store with RediSearch secondary indexes
// - cache/memory: In-memory store used by tests and as a fallback backend
// - cache/sqlite: File-backed store that survives restarts
// - http/standard: Standard library HTTP client with retry logic
// - logger/logrus: Structured JSON logger
//
// # Design Philosophy
//
// Infrastructure components are designed to be:
// - Pluggable: Easy to swap implementations
// - Configurable: Accept configuration objects
// - Testable: Include both unit and integration tests
// - Production-ready: Include retries, timeouts, and error handling
//
// # Store Implementations
//
// Memory Store Example:
//
//	store := memory.NewMemoryStore()
//	err := store.SetHash(ctx, "key", map[string]string{"id": "1"}, time.Hour)
//	fields, err := store.GetHash(ctx, "key")
//
// Redis Store Example:
//
//	cfg := config.RedisConfig{
//	    Address:  "localhost:6379",
//	    Password: "",
//	    DB:       0,
//	}
//	store, err := redis.NewRedisStore(cfg)
//
// # HTTP Client
//
// The HTTP client includes automatic retry logic for transient failures:
//
//	client := standard.NewStandardHTTPClient(30 * time.Second)
//	resp, err := client.Get(ctx, "https://example.com")
//	if err != nil {
//	    // Handle error
//	}
//	defer resp.Body().Close()
//
// # Logger
//
// The logger supports structured logging with fields:
//
//	logger := logrus.NewLogger("info")
//	logger.Info("Processing request", map[string]interface{}{
//	    "operation": "get",
//	    "prefix":    "entity-cache:user:",
//	})
package infrastructure
