package user

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"entity-cache-api/core/interfaces"
)

var errTransport = fmt.Errorf("connection refused")

// fakeStore is a map-backed Store with a working scan-based index,
// good enough to exercise exact-match, text and sorted queries.
type fakeStore struct {
	hashes  map[string]map[string]string
	strings map[string]string
	indexes map[string]interfaces.IndexDefinition

	failSearch error
	failBulk   error
	lastTTL    time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hashes:  make(map[string]map[string]string),
		strings: make(map[string]string),
		indexes: make(map[string]interfaces.IndexDefinition),
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

func (f *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

func (f *fakeStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for key := range f.hashes {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	for key := range f.strings {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *fakeStore) SetHashBulk(ctx context.Context, entries []interfaces.HashEntry, ttl time.Duration) error {
	if f.failBulk != nil {
		return f.failBulk
	}
	for _, entry := range entries {
		f.hashes[entry.Key] = entry.Fields
	}
	f.lastTTL = ttl
	return nil
}

func (f *fakeStore) SetStringBulk(ctx context.Context, entries []interfaces.StringEntry, ttl time.Duration) error {
	if f.failBulk != nil {
		return f.failBulk
	}
	for _, entry := range entries {
		f.strings[entry.Key] = entry.Value
	}
	f.lastTTL = ttl
	return nil
}

func (f *fakeStore) IndexExists(ctx context.Context, name string) (bool, error) {
	_, ok := f.indexes[name]
	return ok, nil
}

func (f *fakeStore) CreateIndex(ctx context.Context, def interfaces.IndexDefinition) error {
	f.indexes[def.Name] = def
	return nil
}

func (f *fakeStore) DropIndex(ctx context.Context, name string) error {
	delete(f.indexes, name)
	return nil
}

func (f *fakeStore) SearchIndex(ctx context.Context, name string, query interfaces.IndexQuery) (interfaces.IndexResult, error) {
	if f.failSearch != nil {
		return interfaces.IndexResult{}, f.failSearch
	}

	def, ok := f.indexes[name]
	if !ok {
		return interfaces.IndexResult{}, nil
	}

	var matched []interfaces.IndexDoc
	for key, fields := range f.hashes {
		if !strings.HasPrefix(key, def.Prefix) {
			continue
		}
		if !matches(fields, query) {
			continue
		}
		matched = append(matched, interfaces.IndexDoc{Key: key, Fields: fields})
	}

	// Deterministic base order before any explicit sort.
	sort.Slice(matched, func(i, j int) bool { return matched[i].Key < matched[j].Key })

	if query.SortBy != "" {
		field := query.SortBy
		sort.SliceStable(matched, func(i, j int) bool {
			a, errA := strconv.ParseFloat(matched[i].Fields[field], 64)
			b, errB := strconv.ParseFloat(matched[j].Fields[field], 64)
			var less bool
			if errA == nil && errB == nil {
				less = a < b
			} else {
				less = matched[i].Fields[field] < matched[j].Fields[field]
			}
			if query.SortDesc {
				return !less
			}
			return less
		})
	}

	total := len(matched)
	start := query.Offset
	if start > total {
		start = total
	}
	end := total
	if query.Limit > 0 && start+query.Limit < end {
		end = start + query.Limit
	}
	page := matched[start:end]

	if query.KeysOnly {
		for i := range page {
			page[i] = interfaces.IndexDoc{Key: page[i].Key}
		}
	}

	return interfaces.IndexResult{Total: total, Docs: page}, nil
}

func matches(fields map[string]string, query interfaces.IndexQuery) bool {
	switch query.Match {
	case interfaces.MatchExact:
		return fields[query.Field] == query.Value
	case interfaces.MatchPrefix:
		needle := strings.ToLower(query.Value)
		for _, token := range strings.Fields(strings.ToLower(fields[query.Field])) {
			if strings.HasPrefix(token, needle) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// mockHTTPClient is a mock implementation of the HTTPClient interface
type mockHTTPClient struct {
	getFunc  func(ctx context.Context, url string) (interfaces.Response, error)
	postFunc func(ctx context.Context, url string, body io.Reader) (interfaces.Response, error)
	calls    int
}

func (m *mockHTTPClient) Get(ctx context.Context, url string) (interfaces.Response, error) {
	m.calls++
	if m.getFunc != nil {
		return m.getFunc(ctx, url)
	}
	return &mockResponse{statusCode: 404}, nil
}

func (m *mockHTTPClient) Post(ctx context.Context, url string, body io.Reader) (interfaces.Response, error) {
	if m.postFunc != nil {
		return m.postFunc(ctx, url, body)
	}
	return &mockResponse{statusCode: 404}, nil
}

// mockResponse is a mock implementation of the Response interface
type mockResponse struct {
	statusCode int
	body       string
	headers    map[string]string
}

func (m *mockResponse) StatusCode() int {
	return m.statusCode
}

func (m *mockResponse) Body() io.ReadCloser {
	return io.NopCloser(strings.NewReader(m.body))
}

func (m *mockResponse) Header(key string) string {
	if m.headers != nil {
		return m.headers[key]
	}
	return ""
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
