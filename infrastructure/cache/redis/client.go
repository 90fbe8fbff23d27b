// ABOUTME: Redis store implementation using go-redis client
// ABOUTME: Hashes and JSON blobs with TTL plus RediSearch secondary indexes

package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"entity-cache-api/core/interfaces"
	"entity-cache-api/pkg/config"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements the Store interface using Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store instance and verifies the
// connection with a bounded ping.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{
		client: client,
	}, nil
}

// SetHash writes a field mapping under key. HSET and EXPIRE travel in one
// pipeline round trip; a zero TTL leaves the key persistent.
func (s *RedisStore) SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, flatten(fields)...)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetHash reads a field mapping. A missing key comes back as an empty map,
// which is how Redis itself reports HGETALL on nothing.
func (s *RedisStore) GetHash(ctx context.Context, key string) (map[string]string, error) {
	return s.client.HGetAll(ctx, key).Result()
}

// SetString stores a plain string value with the given TTL.
func (s *RedisStore) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// GetString retrieves a plain string value. redis.Nil is a miss, not an
// error.
func (s *RedisStore) GetString(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

// Delete removes keys and returns how many existed.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return s.client.Del(ctx, keys...).Result()
}

// Exists reports whether the key is present.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Expire sets a TTL on an existing key.
func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

// Keys returns every key matching the glob pattern. KEYS blocks the
// server on large datasets; callers use it for namespace wipes only.
func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return s.client.Keys(ctx, pattern).Result()
}

// SetHashBulk writes a batch of hashes in a single pipeline.
func (s *RedisStore) SetHashBulk(ctx context.Context, entries []interfaces.HashEntry, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, entry := range entries {
		pipe.HSet(ctx, entry.Key, flatten(entry.Fields)...)
		if ttl > 0 {
			pipe.Expire(ctx, entry.Key, ttl)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

// SetStringBulk writes a batch of string values in a single pipeline.
func (s *RedisStore) SetStringBulk(ctx context.Context, entries []interfaces.StringEntry, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, entry := range entries {
		pipe.Set(ctx, entry.Key, entry.Value, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// IndexExists probes the index with FT.INFO. RediSearch reports a missing
// index as an error whose text names the unknown index.
func (s *RedisStore) IndexExists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.FTInfo(ctx, name).Result()
	if err != nil {
		if isUnknownIndex(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateIndex issues FT.CREATE over hashes under the definition's prefix.
func (s *RedisStore) CreateIndex(ctx context.Context, def interfaces.IndexDefinition) error {
	options := &redis.FTCreateOptions{
		OnHash: true,
		Prefix: []interface{}{def.Prefix},
	}

	schema := make([]*redis.FieldSchema, 0, len(def.Fields))
	for _, field := range def.Fields {
		schema = append(schema, &redis.FieldSchema{
			FieldName: field.Name,
			FieldType: searchFieldType(field.Type),
			Sortable:  field.Sortable,
		})
	}

	return s.client.FTCreate(ctx, def.Name, options, schema...).Err()
}

// DropIndex removes the index definition. Indexed hashes stay untouched.
func (s *RedisStore) DropIndex(ctx context.Context, name string) error {
	return s.client.FTDropIndex(ctx, name).Err()
}

// SearchIndex runs FT.SEARCH with the structured query rendered to
// RediSearch syntax.
func (s *RedisStore) SearchIndex(ctx context.Context, name string, query interfaces.IndexQuery) (interfaces.IndexResult, error) {
	options := &redis.FTSearchOptions{
		NoContent:   query.KeysOnly,
		LimitOffset: query.Offset,
		Limit:       query.Limit,
	}
	if options.Limit <= 0 {
		// go-redis omits the LIMIT clause when Limit is zero, which
		// would silently fall back to RediSearch's default page of 10.
		options.Limit = 10
	}
	if query.SortBy != "" {
		options.SortBy = []redis.FTSearchSortBy{{
			FieldName: query.SortBy,
			Asc:       !query.SortDesc,
			Desc:      query.SortDesc,
		}}
	}

	res, err := s.client.FTSearchWithArgs(ctx, name, renderQuery(query), options).Result()
	if err != nil {
		return interfaces.IndexResult{}, err
	}

	result := interfaces.IndexResult{
		Total: int(res.Total),
		Docs:  make([]interfaces.IndexDoc, 0, len(res.Docs)),
	}
	for _, doc := range res.Docs {
		result.Docs = append(result.Docs, interfaces.IndexDoc{
			Key:    doc.ID,
			Fields: doc.Fields,
		})
	}

	return result, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// renderQuery converts a structured query to RediSearch query syntax.
func renderQuery(query interfaces.IndexQuery) string {
	switch query.Match {
	case interfaces.MatchExact:
		return "@" + query.Field + ":{" + escapeTag(query.Value) + "}"
	case interfaces.MatchPrefix:
		return "@" + query.Field + ":(" + escapeText(query.Value) + "*)"
	default:
		return "*"
	}
}

// tagSpecials are the characters RediSearch treats as syntax inside a
// TAG filter; emails and punctuated ids need them escaped.
const tagSpecials = ",.<>{}[]\"':;!@#$%^&*()-+=~|/\\ "

func escapeTag(value string) string {
	var b strings.Builder
	for _, r := range value {
		if strings.ContainsRune(tagSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func escapeText(value string) string {
	// Keep only token characters; TEXT queries tokenize on punctuation
	// anyway, so stripping beats escaping here.
	var b strings.Builder
	for _, r := range value {
		if strings.ContainsRune(tagSpecials, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func searchFieldType(t interfaces.IndexFieldType) redis.SearchFieldType {
	switch t {
	case interfaces.FieldText:
		return redis.SearchFieldTypeText
	case interfaces.FieldNumeric:
		return redis.SearchFieldTypeNumeric
	default:
		return redis.SearchFieldTypeTag
	}
}

func isUnknownIndex(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unknown index")
}

// flatten converts a field map to the alternating key/value form HSET
// expects.
func flatten(fields map[string]string) []interface{} {
	flat := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		flat = append(flat, k, v)
	}
	return flat
}
