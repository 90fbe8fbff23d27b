package cache

import (
	"context"
	"time"

	"entity-cache-api/core/interfaces"
)

// mockStore is a mock implementation of the Store interface
type mockStore struct {
	setHashFunc       func(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	getHashFunc       func(ctx context.Context, key string) (map[string]string, error)
	setStringFunc     func(ctx context.Context, key string, value string, ttl time.Duration) error
	getStringFunc     func(ctx context.Context, key string) (string, bool, error)
	deleteFunc        func(ctx context.Context, keys ...string) (int64, error)
	existsFunc        func(ctx context.Context, key string) (bool, error)
	expireFunc        func(ctx context.Context, key string, ttl time.Duration) error
	keysFunc          func(ctx context.Context, pattern string) ([]string, error)
	setHashBulkFunc   func(ctx context.Context, entries []interfaces.HashEntry, ttl time.Duration) error
	setStringBulkFunc func(ctx context.Context, entries []interfaces.StringEntry, ttl time.Duration) error
	indexExistsFunc   func(ctx context.Context, name string) (bool, error)
	createIndexFunc   func(ctx context.Context, def interfaces.IndexDefinition) error
	dropIndexFunc     func(ctx context.Context, name string) error
	searchIndexFunc   func(ctx context.Context, name string, query interfaces.IndexQuery) (interfaces.IndexResult, error)
}

func (m *mockStore) SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if m.setHashFunc != nil {
		return m.setHashFunc(ctx, key, fields, ttl)
	}
	return nil
}

func (m *mockStore) GetHash(ctx context.Context, key string) (map[string]string, error) {
	if m.getHashFunc != nil {
		return m.getHashFunc(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	if m.setStringFunc != nil {
		return m.setStringFunc(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockStore) GetString(ctx context.Context, key string) (string, bool, error) {
	if m.getStringFunc != nil {
		return m.getStringFunc(ctx, key)
	}
	return "", false, nil
}

func (m *mockStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, keys...)
	}
	return 0, nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, key)
	}
	return false, nil
}

func (m *mockStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if m.expireFunc != nil {
		return m.expireFunc(ctx, key, ttl)
	}
	return nil
}

func (m *mockStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	if m.keysFunc != nil {
		return m.keysFunc(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) SetHashBulk(ctx context.Context, entries []interfaces.HashEntry, ttl time.Duration) error {
	if m.setHashBulkFunc != nil {
		return m.setHashBulkFunc(ctx, entries, ttl)
	}
	return nil
}

func (m *mockStore) SetStringBulk(ctx context.Context, entries []interfaces.StringEntry, ttl time.Duration) error {
	if m.setStringBulkFunc != nil {
		return m.setStringBulkFunc(ctx, entries, ttl)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFunc != nil {
		return m.indexExistsFunc(ctx, name)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def interfaces.IndexDefinition) error {
	if m.createIndexFunc != nil {
		return m.createIndexFunc(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFunc != nil {
		return m.dropIndexFunc(ctx, name)
	}
	return nil
}

func (m *mockStore) SearchIndex(ctx context.Context, name string, query interfaces.IndexQuery) (interfaces.IndexResult, error) {
	if m.searchIndexFunc != nil {
		return m.searchIndexFunc(ctx, name, query)
	}
	return interfaces.IndexResult{}, nil
}

// fakeStore is a map-backed Store for round-trip tests. It ignores TTLs
// beyond recording the last one it saw.
type fakeStore struct {
	mockStore
	hashes  map[string]map[string]string
	strings map[string]string
	lastTTL time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hashes:  make(map[string]map[string]string),
		strings: make(map[string]string),
	}
}

func (f *fakeStore) SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	f.hashes[key] = fields
	f.lastTTL = ttl
	return nil
}

func (f *fakeStore) GetHash(ctx context.Context, key string) (map[string]string, error) {
	fields, ok := f.hashes[key]
	if !ok {
		return map[string]string{}, nil
	}
	return fields, nil
}

func (f *fakeStore) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.strings[key] = value
	f.lastTTL = ttl
	return nil
}

func (f *fakeStore) GetString(ctx context.Context, key string) (string, bool, error) {
	value, ok := f.strings[key]
	return value, ok, nil
}

func (f *fakeStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	var count int64
	for _, key := range keys {
		if _, ok := f.hashes[key]; ok {
			delete(f.hashes, key)
			count++
		}
		if _, ok := f.strings[key]; ok {
			delete(f.strings, key)
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	if _, ok := f.hashes[key]; ok {
		return true, nil
	}
	_, ok := f.strings[key]
	return ok, nil
}

func (f *fakeStore) SetHashBulk(ctx context.Context, entries []interfaces.HashEntry, ttl time.Duration) error {
	for _, entry := range entries {
		f.hashes[entry.Key] = entry.Fields
	}
	f.lastTTL = ttl
	return nil
}

func (f *fakeStore) SetStringBulk(ctx context.Context, entries []interfaces.StringEntry, ttl time.Duration) error {
	for _, entry := range entries {
		f.strings[entry.Key] = entry.Value
	}
	f.lastTTL = ttl
	return nil
}

// mockLogger records error log calls
type mockLogger struct {
	errors []map[string]interface{}
}

func (m *mockLogger) Debug(msg string, fields map[string]interface{}) {}
func (m *mockLogger) Info(msg string, fields map[string]interface{})  {}
func (m *mockLogger) Warn(msg string, fields map[string]interface{})  {}

func (m *mockLogger) Error(msg string, fields map[string]interface{}) {
	m.errors = append(m.errors, fields)
}
