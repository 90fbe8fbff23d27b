// ABOUTME: Dependencies container provides dependency injection for core services
// ABOUTME: Defines the contract for dependencies required by the core business logic

package interfaces

// Dependencies holds all external dependencies required by the core business logic
type Dependencies struct {
	// Store provides access to the fast key-value store
	Store Store

	// HTTPClient provides HTTP request functionality for the
	// source-of-truth fallback
	HTTPClient HTTPClient

	// Logger provides structured logging
	Logger Logger
}
