// ABOUTME: Demo entry point exercising the entity cache end to end
// ABOUTME: Wires config, store, index manager and services, then runs a short tour

package main

import (
	"context"
	"log"
	"time"

	"entity-cache-api/core/index"
	"entity-cache-api/core/interfaces"
	"entity-cache-api/core/product"
	"entity-cache-api/core/user"
	"entity-cache-api/infrastructure/cache/memory"
	"entity-cache-api/infrastructure/cache/redis"
	"entity-cache-api/infrastructure/cache/sqlite"
	stdhttp "entity-cache-api/infrastructure/http/standard"
	logruslogger "entity-cache-api/infrastructure/logger/logrus"
	"entity-cache-api/pkg/config"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logruslogger.NewLogger(cfg.App.LogLevel)
	logger.Info("Starting entity cache demo", map[string]interface{}{
		"store_type":    cfg.Store.Type,
		"global_prefix": cfg.App.GlobalPrefix,
	})

	store := buildStore(cfg, logger)

	httpClient := stdhttp.NewStandardHTTPClientWithOptions(stdhttp.Options{
		Timeout:           time.Duration(cfg.SourceAPI.Timeout) * time.Second,
		APIKey:            cfg.SourceAPI.APIKey,
		RequestsPerSecond: cfg.SourceAPI.RequestsPerSecond,
	})

	deps := interfaces.Dependencies{
		Store:      store,
		HTTPClient: httpClient,
		Logger:     logger,
	}
	indexes := index.NewManager(store, logger)

	users, err := user.NewService(deps, indexes, user.Config{
		GlobalPrefix:     cfg.App.GlobalPrefix,
		TTL:              cfg.Users.TTLDuration(),
		FallbackToAPI:    cfg.Users.FallbackToAPI,
		SourceAPIBaseURL: cfg.SourceAPI.BaseURL,
		FallbackTTL:      cfg.Users.FallbackTTLDuration(),
	})
	if err != nil {
		log.Fatalf("Failed to create user service: %v", err)
	}

	products, err := product.NewService(deps, indexes, product.Config{
		GlobalPrefix:     cfg.App.GlobalPrefix,
		TTL:              cfg.Products.TTLDuration(),
		FallbackToAPI:    cfg.Products.FallbackToAPI,
		SourceAPIBaseURL: cfg.SourceAPI.BaseURL,
		FallbackTTL:      cfg.Products.FallbackTTLDuration(),
	})
	if err != nil {
		log.Fatalf("Failed to create product service: %v", err)
	}

	runTour(context.Background(), logger, users, products)
}

// buildStore selects the configured backend, falling back to memory when
// the external one is unreachable.
func buildStore(cfg *config.Config, logger interfaces.Logger) interfaces.Store {
	switch cfg.Store.Type {
	case "redis":
		redisStore, err := redis.NewRedisStore(cfg.Store.Redis)
		if err != nil {
			logger.Error("Failed to create Redis store, falling back to memory", map[string]interface{}{
				"error": err.Error(),
			})
			return memory.NewMemoryStore()
		}
		logger.Info("Using Redis store", map[string]interface{}{
			"address": cfg.Store.Redis.Address,
		})
		return redisStore
	case "sqlite":
		sqliteStore, err := sqlite.NewSQLiteStore(cfg.Store.SQLite.FilePath)
		if err != nil {
			logger.Error("Failed to create SQLite store, falling back to memory", map[string]interface{}{
				"error": err.Error(),
			})
			return memory.NewMemoryStore()
		}
		logger.Info("Using SQLite store", map[string]interface{}{
			"path": cfg.Store.SQLite.FilePath,
		})
		return sqliteStore
	default:
		logger.Info("Using memory store", nil)
		return memory.NewMemoryStore()
	}
}

// runTour populates both caches and walks through the main operations.
func runTour(ctx context.Context, logger interfaces.Logger, users *user.Service, products *product.Service) {
	created := users.Populate(ctx, 10, "demo-user", 42)
	logger.Info("Populated users", map[string]interface{}{"count": created})

	created = products.Populate(ctx, 10, "demo-product", 42)
	logger.Info("Populated products", map[string]interface{}{"count": created})

	if u, found := users.Get(ctx, "demo-user-1"); found {
		logger.Info("Fetched user by id", map[string]interface{}{
			"id": u.ID, "name": u.Name, "age": u.Age,
		})
	}

	for _, u := range users.List(ctx, 0, 3, true) {
		logger.Info("User page entry (youngest first)", map[string]interface{}{
			"id": u.ID, "age": u.Age,
		})
	}

	hits := users.SearchByName(ctx, "ma", 5)
	logger.Info("Name search", map[string]interface{}{"query": "ma", "hits": len(hits)})

	for _, p := range products.List(ctx, 0, 3, true) {
		logger.Info("Product page entry (cheapest first)", map[string]interface{}{
			"id": p.ID, "name": p.Name, "price": p.Price,
		})
	}

	// Cache misses; demonstrates the miss path (and fallback when enabled).
	if _, found := users.Get(ctx, "missing-user"); !found {
		logger.Info("Miss for unknown user", map[string]interface{}{"id": "missing-user"})
	}

	logger.Info("Totals", map[string]interface{}{
		"users":    users.Count(ctx),
		"products": products.Count(ctx),
	})

	removedUsers := users.Clear(ctx)
	removedProducts := products.Clear(ctx)
	logger.Info("Cleared namespaces", map[string]interface{}{
		"users_removed":    removedUsers,
		"products_removed": removedProducts,
	})
}
