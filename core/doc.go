// Package core contains the business logic for the entity cache API.
// It is designed to be framework-agnostic and can be used independently
// of any storage backend or infrastructure concerns.
//
// The core package is organized into several sub-packages:
//
// - domain: Contains pure domain models (User, Product) and validation
// - cache: Generic typed read-through cache over the fast store
// - index: Secondary index manager with idempotent creation
// - user: User service with uniqueness checks and fallback fetches
// - product: Product service mirroring the user service
// - errors: Custom error types for better error handling
// - interfaces: Contracts for external dependencies (store, HTTP, logger)
//
// # Design Principles
//
// The core package follows clean architecture principles:
// - No external framework dependencies
// - All external dependencies are injected via interfaces
// - Business logic is testable in isolation
// - Domain models are free from persistence concerns
//
// # Usage Example
//
//	import (
//	    "entity-cache-api/core/index"
//	    "entity-cache-api/core/interfaces"
//	    "entity-cache-api/core/user"
//	)
//
//	// Create dependencies
//	deps := interfaces.Dependencies{
//	    Store:      myStore,      // implements interfaces.Store
//	    HTTPClient: myHTTPClient, // implements interfaces.HTTPClient
//	    Logger:     myLogger,     // implements interfaces.Logger
//	}
//
//	// Create service
//	indexes := index.NewManager(myStore, myLogger)
//	users, err := user.NewService(deps, indexes, user.Config{})
//
//	// Fetch with source-of-truth fallback
//	u, found := users.Get(ctx, "u-1", user.WithFallback(true))
package core
