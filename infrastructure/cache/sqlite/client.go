// ABOUTME: SQLite-based store implementation for persistent caching
// ABOUTME: File-backed entries with lazy expiry and SQL-driven index search

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"entity-cache-api/core/interfaces"

	_ "github.com/mattn/go-sqlite3"
)

const cleanupInterval = 5 * time.Minute

// SQLiteStore implements the Store interface using SQLite. Entries
// survive application restarts; expiry is enforced lazily on reads and
// swept by a background routine.
type SQLiteStore struct {
	db       *sql.DB
	filePath string

	mu      sync.RWMutex
	indexes map[string]interfaces.IndexDefinition

	done chan struct{}
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(filePath string) (*SQLiteStore, error) {
	if filePath == "" {
		filePath = "entity-cache.db"
	}

	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	store := &SQLiteStore{
		db:       db,
		filePath: filePath,
		indexes:  make(map[string]interfaces.IndexDefinition),
		done:     make(chan struct{}),
	}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.loadIndexes(); err != nil {
		return nil, fmt.Errorf("failed to load index definitions: %w", err)
	}

	go store.cleanupRoutine()

	return store, nil
}

// initSchema creates the store tables if they don't exist.
func (s *SQLiteStore) initSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS entries (
			key TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			value TEXT,
			expiry INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_expiry ON entries(expiry);
		CREATE TABLE IF NOT EXISTS entry_fields (
			key TEXT NOT NULL,
			field TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (key, field)
		);
		CREATE TABLE IF NOT EXISTS search_indexes (
			name TEXT PRIMARY KEY,
			prefix TEXT NOT NULL,
			fields TEXT NOT NULL
		);
	`

	_, err := s.db.Exec(query)
	return err
}

// loadIndexes restores persisted index definitions into memory.
func (s *SQLiteStore) loadIndexes() error {
	rows, err := s.db.Query("SELECT name, prefix, fields FROM search_indexes")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, prefix, rawFields string
		if err := rows.Scan(&name, &prefix, &rawFields); err != nil {
			return err
		}
		var fields []interfaces.IndexField
		if err := json.Unmarshal([]byte(rawFields), &fields); err != nil {
			return err
		}
		s.indexes[name] = interfaces.IndexDefinition{Name: name, Prefix: prefix, Fields: fields}
	}
	return rows.Err()
}

// expiryAt converts a TTL to the stored expiry timestamp. Zero means the
// entry never expires.
func expiryAt(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return time.Now().Add(ttl).UnixMilli()
}

func nowMilli() int64 {
	return time.Now().UnixMilli()
}

// SetHash stores a field mapping under key, replacing any previous entry.
func (s *SQLiteStore) SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertHash(ctx, tx, key, fields, expiryAt(ttl)); err != nil {
		return err
	}

	return tx.Commit()
}

func upsertHash(ctx context.Context, tx *sql.Tx, key string, fields map[string]string, expiry int64) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO entries (key, kind, value, expiry) VALUES (?, 'hash', NULL, ?)",
		key, expiry); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM entry_fields WHERE key = ?", key); err != nil {
		return err
	}
	for field, value := range fields {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO entry_fields (key, field, value) VALUES (?, ?, ?)",
			key, field, value); err != nil {
			return err
		}
	}
	return nil
}

// GetHash retrieves a field mapping. Missing or expired keys come back as
// an empty map.
func (s *SQLiteStore) GetHash(ctx context.Context, key string) (map[string]string, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	live, err := s.isLive(ctx, key, "hash")
	if err != nil {
		return nil, err
	}
	if !live {
		return map[string]string{}, nil
	}

	return s.fieldsFor(ctx, key)
}

func (s *SQLiteStore) isLive(ctx context.Context, key, kind string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM entries WHERE key = ? AND kind = ? AND (expiry = 0 OR expiry > ?)",
		key, kind, nowMilli()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) fieldsFor(ctx context.Context, key string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT field, value FROM entry_fields WHERE key = ?", key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, err
		}
		fields[field] = value
	}
	return fields, rows.Err()
}

// SetString stores a plain string value.
func (s *SQLiteStore) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO entries (key, kind, value, expiry) VALUES (?, 'string', ?, ?)",
		key, value, expiryAt(ttl))
	return err
}

// GetString retrieves a plain string value.
func (s *SQLiteStore) GetString(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("key cannot be empty")
	}

	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM entries WHERE key = ? AND kind = 'string' AND (expiry = 0 OR expiry > ?)",
		key, nowMilli()).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Delete removes keys and returns how many live entries existed.
func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var count int64
	now := nowMilli()
	for _, key := range keys {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM entries WHERE key = ? AND (expiry = 0 OR expiry > ?)", key, now)
		if err != nil {
			return 0, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		count += affected
		if _, err := tx.ExecContext(ctx, "DELETE FROM entry_fields WHERE key = ?", key); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// Exists reports whether the key is present and unexpired.
func (s *SQLiteStore) Exists(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM entries WHERE key = ? AND (expiry = 0 OR expiry > ?)",
		key, nowMilli()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Expire resets the TTL on an existing key.
func (s *SQLiteStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE entries SET expiry = ? WHERE key = ? AND (expiry = 0 OR expiry > ?)",
		expiryAt(ttl), key, nowMilli())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.New("key not found")
	}
	return nil
}

// Keys returns every live key matching the glob pattern. Only the
// trailing-star form used for namespace scans is supported.
func (s *SQLiteStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key FROM entries WHERE key LIKE ? ESCAPE '\\' AND (expiry = 0 OR expiry > ?)",
		globToLike(pattern), nowMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// SetHashBulk stores a batch of hashes in one transaction.
func (s *SQLiteStore) SetHashBulk(ctx context.Context, entries []interfaces.HashEntry, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	expiry := expiryAt(ttl)
	for _, entry := range entries {
		if err := upsertHash(ctx, tx, entry.Key, entry.Fields, expiry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SetStringBulk stores a batch of string values in one transaction.
func (s *SQLiteStore) SetStringBulk(ctx context.Context, entries []interfaces.StringEntry, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	expiry := expiryAt(ttl)
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO entries (key, kind, value, expiry) VALUES (?, 'string', ?, ?)",
			entry.Key, entry.Value, expiry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// IndexExists reports whether an index definition is registered.
func (s *SQLiteStore) IndexExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// CreateIndex registers and persists an index definition. Search queries
// run over live entries, so no backfill is needed.
func (s *SQLiteStore) CreateIndex(ctx context.Context, def interfaces.IndexDefinition) error {
	for _, field := range def.Fields {
		if err := validateName(field.Name); err != nil {
			return err
		}
	}

	rawFields, err := json.Marshal(def.Fields)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO search_indexes (name, prefix, fields) VALUES (?, ?, ?)",
		def.Name, def.Prefix, string(rawFields)); err != nil {
		return err
	}

	s.mu.Lock()
	s.indexes[def.Name] = def
	s.mu.Unlock()
	return nil
}

// DropIndex removes an index definition. Stored entries stay untouched.
func (s *SQLiteStore) DropIndex(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indexes[name]; !ok {
		return errors.New("unknown index " + name)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM search_indexes WHERE name = ?", name); err != nil {
		return err
	}
	delete(s.indexes, name)
	return nil
}

// SearchIndex runs the structured query as SQL over live hash entries
// under the index prefix.
func (s *SQLiteStore) SearchIndex(ctx context.Context, name string, query interfaces.IndexQuery) (interfaces.IndexResult, error) {
	s.mu.RLock()
	def, ok := s.indexes[name]
	s.mu.RUnlock()
	if !ok {
		return interfaces.IndexResult{}, errors.New("unknown index " + name)
	}

	countSQL, pageSQL, countArgs, pageArgs, err := buildSearchSQL(def, query)
	if err != nil {
		return interfaces.IndexResult{}, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return interfaces.IndexResult{}, err
	}

	rows, err := s.db.QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return interfaces.IndexResult{}, err
	}
	defer rows.Close()

	result := interfaces.IndexResult{Total: total}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return interfaces.IndexResult{}, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return interfaces.IndexResult{}, err
	}

	for _, key := range keys {
		doc := interfaces.IndexDoc{Key: key}
		if !query.KeysOnly {
			fields, err := s.fieldsFor(ctx, key)
			if err != nil {
				return interfaces.IndexResult{}, err
			}
			doc.Fields = fields
		}
		result.Docs = append(result.Docs, doc)
	}

	return result, nil
}

// cleanupRoutine periodically sweeps expired entries and their fields.
func (s *SQLiteStore) cleanupRoutine() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

// cleanup removes expired entries.
func (s *SQLiteStore) cleanup() {
	now := nowMilli()
	_, _ = s.db.Exec(
		"DELETE FROM entry_fields WHERE key IN (SELECT key FROM entries WHERE expiry != 0 AND expiry <= ?)", now)
	_, _ = s.db.Exec("DELETE FROM entries WHERE expiry != 0 AND expiry <= ?", now)
}

// Close stops the cleanup routine and closes the database.
func (s *SQLiteStore) Close() error {
	close(s.done)
	return s.db.Close()
}

// Stats returns store statistics for diagnostics.
func (s *SQLiteStore) Stats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		return nil, err
	}
	stats["total_entries"] = count

	var expired int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM entries WHERE expiry != 0 AND expiry <= ?", nowMilli()).Scan(&expired); err != nil {
		return nil, err
	}
	stats["expired_entries"] = expired

	s.mu.RLock()
	stats["indexes"] = len(s.indexes)
	s.mu.RUnlock()

	stats["file_path"] = s.filePath
	return stats, nil
}
