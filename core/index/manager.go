// ABOUTME: Secondary index manager with idempotent index creation
// ABOUTME: Provides exact-match, full-text and sorted paging queries over store indexes

package index

import (
	"context"
	"errors"
	"sync"

	"entity-cache-api/core/interfaces"
)

// DefaultSearchLimit bounds full-text queries when the caller passes no limit.
const DefaultSearchLimit = 100

// Manager creates and queries secondary indexes on the fast store.
// Ensure is idempotent: each index name is created at most once per
// manager, and an index already known to the store is never re-created.
//
// Manager methods propagate store errors; converting faults to default
// return values is the job of the public cache/service boundary.
type Manager struct {
	store  interfaces.IndexStore
	logger interfaces.Logger

	mu      sync.Mutex
	ensured map[string]bool
}

// NewManager creates an index manager on top of a store.
func NewManager(store interfaces.IndexStore, logger interfaces.Logger) *Manager {
	return &Manager{
		store:   store,
		logger:  logger,
		ensured: make(map[string]bool),
	}
}

// Ensure creates the index described by def unless it already exists.
// The first successful call per name marks the index ensured; later calls
// are no-ops that never reach the store.
func (m *Manager) Ensure(ctx context.Context, def interfaces.IndexDefinition) error {
	if def.Name == "" {
		return errors.New("index name cannot be empty")
	}
	if len(def.Fields) == 0 {
		return errors.New("index must declare at least one field")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ensured[def.Name] {
		return nil
	}

	exists, err := m.store.IndexExists(ctx, def.Name)
	if err != nil {
		return err
	}
	if exists {
		m.ensured[def.Name] = true
		return nil
	}

	if err := m.store.CreateIndex(ctx, def); err != nil {
		return err
	}

	if m.logger != nil {
		m.logger.Info("Created secondary index", map[string]interface{}{
			"index":  def.Name,
			"prefix": def.Prefix,
		})
	}

	m.ensured[def.Name] = true
	return nil
}

// FindExact returns entries whose tag field equals value, with paging.
// Matching is case-sensitive on the stored string representation.
func (m *Manager) FindExact(ctx context.Context, name, field, value string, offset, limit int) (interfaces.IndexResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	return m.store.SearchIndex(ctx, name, interfaces.IndexQuery{
		Match:  interfaces.MatchExact,
		Field:  field,
		Value:  value,
		Offset: offset,
		Limit:  limit,
	})
}

// SearchText returns entries whose text field has a token starting with
// query. Result order is store-defined.
func (m *Manager) SearchText(ctx context.Context, name, field, query string, limit int) (interfaces.IndexResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	return m.store.SearchIndex(ctx, name, interfaces.IndexQuery{
		Match: interfaces.MatchPrefix,
		Field: field,
		Value: query,
		Limit: limit,
	})
}

// List returns a page of all indexed entries ordered by sortBy.
func (m *Manager) List(ctx context.Context, name, sortBy string, asc bool, offset, limit int) (interfaces.IndexResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	return m.store.SearchIndex(ctx, name, interfaces.IndexQuery{
		Match:    interfaces.MatchAll,
		Offset:   offset,
		Limit:    limit,
		SortBy:   sortBy,
		SortDesc: !asc,
	})
}

// Count returns the total number of entries covered by the index.
func (m *Manager) Count(ctx context.Context, name string) (int, error) {
	res, err := m.store.SearchIndex(ctx, name, interfaces.IndexQuery{
		Match:    interfaces.MatchAll,
		Limit:    1,
		KeysOnly: true,
	})
	if err != nil {
		return 0, err
	}

	return res.Total, nil
}

// Drop removes the index and forgets its ensured state, so a later
// Ensure re-creates it.
func (m *Manager) Drop(ctx context.Context, name string) error {
	m.mu.Lock()
	delete(m.ensured, name)
	m.mu.Unlock()

	return m.store.DropIndex(ctx, name)
}
