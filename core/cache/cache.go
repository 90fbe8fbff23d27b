// ABOUTME: Generic typed cache over the fast store with TTL and optional secondary index
// ABOUTME: Converts store faults to logged defaults at the public boundary

package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"entity-cache-api/core/errors"
	"entity-cache-api/core/index"
	"entity-cache-api/core/interfaces"
)

// Storage selects how entries are represented in the fast store.
type Storage int

const (
	// StorageHash serializes records into structured field mappings
	// (HSET/HGETALL), queryable by secondary indexes.
	StorageHash Storage = iota
	// StorageJSON serializes records whole as a JSON string under the key
	// (SETEX/GET). JSON entries are opaque to secondary indexes.
	StorageJSON
)

// Config describes one cache instance.
type Config[T any] struct {
	// Prefix is prepended to every key, e.g. "user:".
	Prefix string

	// TTL is applied on every write, refreshing expiration. Zero means
	// entries never expire.
	TTL time.Duration

	// Storage selects the entry representation.
	Storage Storage

	// Codec maps records to field mappings. Required for StorageHash.
	Codec Codec[T]

	// Index optionally declares a secondary index over this cache's
	// entries. An empty Index.Prefix defaults to Prefix.
	Index *interfaces.IndexDefinition
}

// Cache maps keys to serialized records of type T in the fast store.
//
// Every public operation converts store faults to its documented default
// return value after logging (operation name, entry prefix, error detail).
// Callers therefore never see store errors — a default result is
// indistinguishable from legitimate absence. The unexported counterparts
// return the underlying error and are what the tests exercise.
type Cache[T any] struct {
	store   interfaces.Store
	logger  interfaces.Logger
	indexes *index.Manager
	cfg     Config[T]
}

// New creates a cache instance. indexes may be nil when cfg.Index is nil.
func New[T any](deps interfaces.Dependencies, indexes *index.Manager, cfg Config[T]) (*Cache[T], error) {
	if deps.Store == nil {
		return nil, stderrors.New("cache requires a store")
	}
	if cfg.Prefix == "" {
		return nil, stderrors.New("cache prefix cannot be empty")
	}
	if cfg.Storage == StorageHash && cfg.Codec == nil {
		return nil, stderrors.New("hash storage requires a codec")
	}
	if cfg.Index != nil {
		if indexes == nil {
			return nil, stderrors.New("an indexed cache requires an index manager")
		}
		if cfg.Storage == StorageJSON {
			return nil, stderrors.New("secondary indexes require hash storage")
		}
		if cfg.Index.Prefix == "" {
			cfg.Index.Prefix = cfg.Prefix
		}
	}

	return &Cache[T]{
		store:   deps.Store,
		logger:  deps.Logger,
		indexes: indexes,
		cfg:     cfg,
	}, nil
}

// Prefix returns the cache's key prefix.
func (c *Cache[T]) Prefix() string {
	return c.cfg.Prefix
}

// IndexName returns the configured secondary index name, or "".
func (c *Cache[T]) IndexName() string {
	if c.cfg.Index == nil {
		return ""
	}
	return c.cfg.Index.Name
}

// TTL returns the cache's default TTL.
func (c *Cache[T]) TTL() time.Duration {
	return c.cfg.TTL
}

// BuildKey returns the full store key for an entry key.
func (c *Cache[T]) BuildKey(key string) string {
	return c.cfg.Prefix + key
}

// StripPrefix reconstructs the entry key from a full store key.
func (c *Cache[T]) StripPrefix(storeKey string) string {
	return strings.TrimPrefix(storeKey, c.cfg.Prefix)
}

// DecodeFields reconstructs a record from an index document's field mapping.
// Used by callers that query the secondary index for multiple results.
func (c *Cache[T]) DecodeFields(fields map[string]string) (T, error) {
	var zero T
	if c.cfg.Codec == nil {
		return zero, stderrors.New("cache has no codec")
	}
	return c.cfg.Codec.Decode(fields)
}

// EnsureIndex idempotently creates the configured secondary index.
// A cache without an index returns nil.
func (c *Cache[T]) EnsureIndex(ctx context.Context) error {
	if c.cfg.Index == nil {
		return nil
	}
	return c.indexes.Ensure(ctx, *c.cfg.Index)
}

// Save writes value under the prefixed key with the configured TTL.
// Store faults degrade to a logged no-op.
func (c *Cache[T]) Save(ctx context.Context, key string, value T) {
	if err := c.save(ctx, key, value, c.cfg.TTL); err != nil {
		c.logError("save", err)
	}
}

// SaveWithTTL writes value with an explicit TTL, overriding the configured
// default. Used by fallback write-backs that resolve their own expiration.
func (c *Cache[T]) SaveWithTTL(ctx context.Context, key string, value T, ttl time.Duration) {
	if err := c.save(ctx, key, value, ttl); err != nil {
		c.logError("save", err)
	}
}

func (c *Cache[T]) save(ctx context.Context, key string, value T, ttl time.Duration) error {
	storeKey := c.BuildKey(key)

	if c.cfg.Storage == StorageJSON {
		payload, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return c.store.SetString(ctx, storeKey, string(payload), ttl)
	}

	fields, err := c.cfg.Codec.Encode(key, value)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		// Nothing to map; keep the key present so Exists stays truthful.
		return c.store.SetString(ctx, storeKey, "{}", ttl)
	}

	return c.store.SetHash(ctx, storeKey, fields, ttl)
}

// Get reads the entry under key and deserializes it.
// The bool reports a hit; store faults and undecodable payloads are
// logged and reported as misses.
func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool) {
	value, found, err := c.get(ctx, key)
	if err != nil {
		c.logError("get", err)
		var zero T
		return zero, false
	}
	return value, found
}

func (c *Cache[T]) get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	storeKey := c.BuildKey(key)

	if c.cfg.Storage == StorageJSON {
		raw, found, err := c.store.GetString(ctx, storeKey)
		if err != nil || !found {
			return zero, false, err
		}
		var value T
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return zero, false, &errors.DeserializationError{Key: storeKey, Message: err.Error()}
		}
		return value, true, nil
	}

	fields, err := c.store.GetHash(ctx, storeKey)
	if err != nil {
		return zero, false, err
	}
	if len(fields) == 0 {
		return zero, false, nil
	}

	value, err := c.cfg.Codec.Decode(fields)
	if err != nil {
		return zero, false, &errors.DeserializationError{Key: storeKey, Message: err.Error()}
	}

	return value, true, nil
}

// GetRaw reads the entry under key as a best-effort native field mapping,
// bypassing the codec. JSON entries are flattened to stringified top-level
// fields.
func (c *Cache[T]) GetRaw(ctx context.Context, key string) (map[string]string, bool) {
	fields, found, err := c.getRaw(ctx, key)
	if err != nil {
		c.logError("get", err)
		return nil, false
	}
	return fields, found
}

func (c *Cache[T]) getRaw(ctx context.Context, key string) (map[string]string, bool, error) {
	storeKey := c.BuildKey(key)

	if c.cfg.Storage == StorageJSON {
		raw, found, err := c.store.GetString(ctx, storeKey)
		if err != nil || !found {
			return nil, false, err
		}
		var decoded map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			return nil, false, &errors.DeserializationError{Key: storeKey, Message: err.Error()}
		}
		fields := make(map[string]string, len(decoded))
		for name, rawValue := range decoded {
			var s string
			if err := json.Unmarshal(rawValue, &s); err == nil {
				fields[name] = s
			} else {
				fields[name] = string(rawValue)
			}
		}
		return fields, true, nil
	}

	fields, err := c.store.GetHash(ctx, storeKey)
	if err != nil {
		return nil, false, err
	}
	if len(fields) == 0 {
		return nil, false, nil
	}

	return fields, true, nil
}

// FindOne resolves the first entry whose indexed field equals value.
// It ensures the index exists, queries it scoped to this cache's prefix,
// reconstructs the entry key by stripping the prefix, and deserializes.
// No match, a missing index configuration, and store faults all report a miss.
func (c *Cache[T]) FindOne(ctx context.Context, field, value string) (T, bool) {
	result, found, err := c.findOne(ctx, field, value)
	if err != nil {
		c.logError("find_one", err)
		var zero T
		return zero, false
	}
	return result, found
}

func (c *Cache[T]) findOne(ctx context.Context, field, value string) (T, bool, error) {
	var zero T
	if c.cfg.Index == nil {
		return zero, false, stderrors.New("cache has no secondary index")
	}

	if err := c.indexes.Ensure(ctx, *c.cfg.Index); err != nil {
		return zero, false, err
	}

	res, err := c.indexes.FindExact(ctx, c.cfg.Index.Name, field, value, 0, 1)
	if err != nil {
		return zero, false, err
	}
	if len(res.Docs) == 0 {
		return zero, false, nil
	}

	doc := res.Docs[0]
	fields := doc.Fields
	if len(fields) == 0 {
		// Keys-only result; fall back to a primary fetch.
		return c.get(ctx, c.StripPrefix(doc.Key))
	}

	result, err := c.cfg.Codec.Decode(fields)
	if err != nil {
		return zero, false, &errors.DeserializationError{Key: doc.Key, Message: err.Error()}
	}

	return result, true, nil
}

// Delete removes the entry and reports whether it existed.
func (c *Cache[T]) Delete(ctx context.Context, key string) bool {
	count, err := c.store.Delete(ctx, c.BuildKey(key))
	if err != nil {
		c.logError("delete", err)
		return false
	}
	return count > 0
}

// Exists reports whether the entry is present.
func (c *Cache[T]) Exists(ctx context.Context, key string) bool {
	found, err := c.store.Exists(ctx, c.BuildKey(key))
	if err != nil {
		c.logError("exists", err)
		return false
	}
	return found
}

// Item pairs an entry key with its value for bulk writes.
type Item[T any] struct {
	Key   string
	Value T
}

// BulkSave writes all items in one pipelined round trip and returns the
// number written. The batch is best-effort: a transport failure yields 0
// with nothing reported per item, and the store does not guarantee
// multi-key atomicity across the batch.
func (c *Cache[T]) BulkSave(ctx context.Context, items []Item[T]) int {
	count, err := c.bulkSave(ctx, items)
	if err != nil {
		c.logError("bulk_save", err)
		return 0
	}
	return count
}

func (c *Cache[T]) bulkSave(ctx context.Context, items []Item[T]) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	if c.cfg.Storage == StorageJSON {
		entries := make([]interfaces.StringEntry, 0, len(items))
		for _, item := range items {
			payload, err := json.Marshal(item.Value)
			if err != nil {
				return 0, err
			}
			entries = append(entries, interfaces.StringEntry{
				Key:   c.BuildKey(item.Key),
				Value: string(payload),
			})
		}
		if err := c.store.SetStringBulk(ctx, entries, c.cfg.TTL); err != nil {
			return 0, err
		}
		return len(entries), nil
	}

	entries := make([]interfaces.HashEntry, 0, len(items))
	for _, item := range items {
		fields, err := c.cfg.Codec.Encode(item.Key, item.Value)
		if err != nil {
			return 0, err
		}
		entries = append(entries, interfaces.HashEntry{
			Key:    c.BuildKey(item.Key),
			Fields: fields,
		})
	}
	if err := c.store.SetHashBulk(ctx, entries, c.cfg.TTL); err != nil {
		return 0, err
	}

	return len(entries), nil
}

// logError records a degraded operation with its context.
func (c *Cache[T]) logError(operation string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Error("Cache operation failed", map[string]interface{}{
		"operation": operation,
		"prefix":    c.cfg.Prefix,
		"error":     err.Error(),
	})
}
