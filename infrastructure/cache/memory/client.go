// ABOUTME: In-memory store implementation backed by go-cache
// ABOUTME: Scan-based index search approximating the Redis store's behavior

package memory

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"entity-cache-api/core/interfaces"

	gocache "github.com/patrickmn/go-cache"
)

const cleanupInterval = time.Minute

// MemoryStore implements the Store interface in process memory. It backs
// tests and serves as the fallback backend when Redis is unreachable.
type MemoryStore struct {
	items *gocache.Cache

	mu      sync.RWMutex
	indexes map[string]interfaces.IndexDefinition
}

// NewMemoryStore creates a new in-memory store instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:   gocache.New(gocache.NoExpiration, cleanupInterval),
		indexes: make(map[string]interfaces.IndexDefinition),
	}
}

// SetHash stores a field mapping under key. The mapping is copied so
// later mutation by the caller cannot leak into the store.
func (s *MemoryStore) SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.items.Set(key, copyFields(fields), expiration(ttl))
	return nil
}

// GetHash retrieves a field mapping. A missing or expired key comes back
// as an empty map, matching the Redis HGETALL contract.
func (s *MemoryStore) GetHash(ctx context.Context, key string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, ok := s.items.Get(key)
	if !ok {
		return map[string]string{}, nil
	}
	fields, ok := value.(map[string]string)
	if !ok {
		return map[string]string{}, nil
	}
	return copyFields(fields), nil
}

// SetString stores a plain string value.
func (s *MemoryStore) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.items.Set(key, value, expiration(ttl))
	return nil
}

// GetString retrieves a plain string value.
func (s *MemoryStore) GetString(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	value, ok := s.items.Get(key)
	if !ok {
		return "", false, nil
	}
	str, ok := value.(string)
	if !ok {
		return "", false, nil
	}
	return str, true, nil
}

// Delete removes keys and returns how many existed.
func (s *MemoryStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	for _, key := range keys {
		if _, ok := s.items.Get(key); ok {
			s.items.Delete(key)
			count++
		}
	}
	return count, nil
}

// Exists reports whether the key is present and unexpired.
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, ok := s.items.Get(key)
	return ok, nil
}

// Expire resets the TTL on an existing key.
func (s *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, ok := s.items.Get(key)
	if !ok {
		return errors.New("key not found")
	}
	s.items.Set(key, value, expiration(ttl))
	return nil
}

// Keys returns every live key matching the glob pattern. Only the
// trailing-star form used for namespace scans is supported.
func (s *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := strings.TrimSuffix(pattern, "*")
	keys := make([]string, 0)
	for key := range s.items.Items() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// SetHashBulk stores a batch of hashes.
func (s *MemoryStore) SetHashBulk(ctx context.Context, entries []interfaces.HashEntry, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	exp := expiration(ttl)
	for _, entry := range entries {
		s.items.Set(entry.Key, copyFields(entry.Fields), exp)
	}
	return nil
}

// SetStringBulk stores a batch of string values.
func (s *MemoryStore) SetStringBulk(ctx context.Context, entries []interfaces.StringEntry, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	exp := expiration(ttl)
	for _, entry := range entries {
		s.items.Set(entry.Key, entry.Value, exp)
	}
	return nil
}

// IndexExists reports whether an index definition is registered.
func (s *MemoryStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// CreateIndex registers an index definition. Search scans live entries
// under the definition's prefix, so no backfill is needed.
func (s *MemoryStore) CreateIndex(ctx context.Context, def interfaces.IndexDefinition) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[def.Name] = def
	return nil
}

// DropIndex removes an index definition. Stored entries stay untouched.
func (s *MemoryStore) DropIndex(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; !ok {
		return errors.New("unknown index " + name)
	}
	delete(s.indexes, name)
	return nil
}

// SearchIndex scans hashes under the index prefix and applies the query.
// Tag matches are exact; text matches are case-insensitive token-prefix,
// approximating RediSearch tokenization.
func (s *MemoryStore) SearchIndex(ctx context.Context, name string, query interfaces.IndexQuery) (interfaces.IndexResult, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.IndexResult{}, err
	}

	s.mu.RLock()
	def, ok := s.indexes[name]
	s.mu.RUnlock()
	if !ok {
		return interfaces.IndexResult{}, errors.New("unknown index " + name)
	}

	var matched []interfaces.IndexDoc
	for key, item := range s.items.Items() {
		if !strings.HasPrefix(key, def.Prefix) {
			continue
		}
		fields, ok := item.Object.(map[string]string)
		if !ok {
			continue
		}
		if !matchesQuery(fields, fieldType(def, query.Field), query) {
			continue
		}
		matched = append(matched, interfaces.IndexDoc{Key: key, Fields: copyFields(fields)})
	}

	// Key order keeps unsorted results stable across calls.
	sort.Slice(matched, func(i, j int) bool { return matched[i].Key < matched[j].Key })

	if query.SortBy != "" {
		sortDocs(matched, query.SortBy, query.SortDesc, fieldType(def, query.SortBy) == interfaces.FieldNumeric)
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

func matchesQuery(fields map[string]string, ftype interfaces.IndexFieldType, query interfaces.IndexQuery) bool {
	switch query.Match {
	case interfaces.MatchExact:
		if ftype == interfaces.FieldText {
			return strings.EqualFold(fields[query.Field], query.Value)
		}
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

func sortDocs(docs []interfaces.IndexDoc, field string, desc, numeric bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		var less bool
		if numeric {
			a, errA := strconv.ParseFloat(docs[i].Fields[field], 64)
			b, errB := strconv.ParseFloat(docs[j].Fields[field], 64)
			if errA == nil && errB == nil {
				less = a < b
			} else {
				less = docs[i].Fields[field] < docs[j].Fields[field]
			}
		} else {
			less = docs[i].Fields[field] < docs[j].Fields[field]
		}
		if desc {
			return !less
		}
		return less
	})
}

func fieldType(def interfaces.IndexDefinition, name string) interfaces.IndexFieldType {
	for _, f := range def.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	return interfaces.FieldTag
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}

func copyFields(fields map[string]string) map[string]string {
	dup := make(map[string]string, len(fields))
	for k, v := range fields {
		dup[k] = v
	}
	return dup
}
