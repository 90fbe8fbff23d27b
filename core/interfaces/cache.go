// Package interfaces defines the core interfaces used throughout the application.
// These interfaces allow for dependency injection and make the code testable.
package interfaces

import (
	"context"
	"time"
)

// Store defines the command surface of the fast key-value store.
// Implementations can be Redis, in-memory, or SQLite; the core never
// talks to a concrete client directly.
//
// Keys are fully qualified — prefixing is the caller's concern.
// A zero or negative TTL means "no expiration".
type Store interface {
	// SetHash writes a field mapping under key and applies ttl.
	// The TTL is re-applied on every write, refreshing expiration.
	SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error

	// GetHash returns the field mapping stored under key.
	// A missing key yields an empty map and a nil error.
	GetHash(ctx context.Context, key string) (map[string]string, error)

	// SetString stores an opaque string value under key with ttl (SETEX semantics).
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error

	// GetString returns the string stored under key.
	// The bool reports whether the key was present.
	GetString(ctx context.Context, key string) (string, bool, error)

	// Delete removes the given keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Expire applies ttl to an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Keys returns all keys matching a glob-style pattern.
	// This is an O(n) scan intended for test/demo reset paths only.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// SetHashBulk writes multiple hash entries in one round trip (pipelined).
	// The batch is best-effort: it is submitted as a unit but the store does
	// not guarantee multi-key atomicity.
	SetHashBulk(ctx context.Context, entries []HashEntry, ttl time.Duration) error

	// SetStringBulk writes multiple string entries in one round trip
	// (pipelined), with the same best-effort semantics as SetHashBulk.
	SetStringBulk(ctx context.Context, entries []StringEntry, ttl time.Duration) error

	IndexStore
}

// HashEntry is a single key plus its field mapping, used by bulk writes.
type HashEntry struct {
	Key    string
	Fields map[string]string
}

// StringEntry is a single key plus its opaque value, used by bulk writes.
type StringEntry struct {
	Key   string
	Value string
}

// IndexStore defines the secondary-index surface of the fast store.
// Indexes are derived from live hash entries under a key prefix, so deleting
// an entry implicitly removes it from every index that covers it.
type IndexStore interface {
	// IndexExists reports whether an index with the given name is known to the store.
	IndexExists(ctx context.Context, name string) (bool, error)

	// CreateIndex creates a secondary index. Creating an index that already
	// exists is an error; callers that want idempotence check IndexExists first.
	CreateIndex(ctx context.Context, def IndexDefinition) error

	// DropIndex removes an index definition. Indexed entries are untouched.
	DropIndex(ctx context.Context, name string) error

	// SearchIndex runs a query against a named index.
	SearchIndex(ctx context.Context, name string, query IndexQuery) (IndexResult, error)
}

// IndexFieldType selects how a field is indexed.
type IndexFieldType int

const (
	// FieldTag indexes a field for exact, case-sensitive string match.
	FieldTag IndexFieldType = iota
	// FieldText indexes a field for tokenized full-text search.
	FieldText
	// FieldNumeric indexes a field as a number, usable for sorting.
	FieldNumeric
)

// IndexField declares one indexed field of an entry.
type IndexField struct {
	Name     string
	Type     IndexFieldType
	Sortable bool
}

// IndexDefinition declares a named index over hash entries whose keys
// start with Prefix.
type IndexDefinition struct {
	Name   string
	Prefix string
	Fields []IndexField
}

// MatchKind selects the query predicate of an IndexQuery.
type MatchKind int

const (
	// MatchAll selects every entry covered by the index.
	MatchAll MatchKind = iota
	// MatchExact selects entries whose tag field equals Value exactly.
	MatchExact
	// MatchPrefix selects entries with a text-field token starting with Value.
	// Result order is store-defined unless SortBy is given.
	MatchPrefix
)

// IndexQuery is a structured query against a secondary index.
// Keeping the query structured (rather than a raw search string) lets
// non-Redis stores interpret it without parsing RediSearch syntax.
type IndexQuery struct {
	Match MatchKind
	Field string
	Value string

	Offset int
	Limit  int

	// SortBy orders results by the named sortable field when non-empty.
	SortBy   string
	SortDesc bool

	// KeysOnly skips fetching entry contents; only keys and the total
	// match count are returned.
	KeysOnly bool
}

// IndexDoc is one entry returned by SearchIndex.
type IndexDoc struct {
	// Key is the full store key of the entry.
	Key string
	// Fields holds the entry's field mapping; nil when KeysOnly was set.
	Fields map[string]string
}

// IndexResult is the outcome of SearchIndex.
type IndexResult struct {
	// Total is the number of entries matching the query, ignoring paging.
	Total int
	Docs  []IndexDoc
}
