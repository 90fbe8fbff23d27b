package index

import (
	"context"

	"entity-cache-api/core/interfaces"
)

// mockIndexStore is a mock implementation of the IndexStore interface
type mockIndexStore struct {
	indexExistsFunc func(ctx context.Context, name string) (bool, error)
	createIndexFunc func(ctx context.Context, def interfaces.IndexDefinition) error
	dropIndexFunc   func(ctx context.Context, name string) error
	searchIndexFunc func(ctx context.Context, name string, query interfaces.IndexQuery) (interfaces.IndexResult, error)
}

func (m *mockIndexStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFunc != nil {
		return m.indexExistsFunc(ctx, name)
	}
	return false, nil
}

func (m *mockIndexStore) CreateIndex(ctx context.Context, def interfaces.IndexDefinition) error {
	if m.createIndexFunc != nil {
		return m.createIndexFunc(ctx, def)
	}
	return nil
}

func (m *mockIndexStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFunc != nil {
		return m.dropIndexFunc(ctx, name)
	}
	return nil
}

func (m *mockIndexStore) SearchIndex(ctx context.Context, name string, query interfaces.IndexQuery) (interfaces.IndexResult, error) {
	if m.searchIndexFunc != nil {
		return m.searchIndexFunc(ctx, name, query)
	}
	return interfaces.IndexResult{}, nil
}

// mockLogger is a mock implementation of the Logger interface
type mockLogger struct {
	infoFunc  func(msg string, fields map[string]interface{})
	errorFunc func(msg string, fields map[string]interface{})
}

func (m *mockLogger) Debug(msg string, fields map[string]interface{}) {}

func (m *mockLogger) Info(msg string, fields map[string]interface{}) {
	if m.infoFunc != nil {
		m.infoFunc(msg, fields)
	}
}

func (m *mockLogger) Warn(msg string, fields map[string]interface{}) {}

func (m *mockLogger) Error(msg string, fields map[string]interface{}) {
	if m.errorFunc != nil {
		m.errorFunc(msg, fields)
	}
}
