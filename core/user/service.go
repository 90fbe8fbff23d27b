// ABOUTME: User service built on the generic cache and secondary index primitives
// ABOUTME: Adds uniqueness enforcement, paging, and get-with-fallback orchestration

package user

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"entity-cache-api/core/cache"
	"entity-cache-api/core/domain"
	"entity-cache-api/core/errors"
	"entity-cache-api/core/index"
	"entity-cache-api/core/interfaces"
)

const (
	// ModelPrefix is the user segment of the key namespace.
	ModelPrefix = "user"

	// IndexName is the user secondary index.
	IndexName = "idx_users"

	// DefaultGlobalPrefix namespaces every key of this application.
	DefaultGlobalPrefix = "entity-cache"

	// DefaultFallbackTTL bounds the lifetime of entries written back
	// after a source-of-truth fetch, unless overridden per call.
	DefaultFallbackTTL = 180 * time.Second
)

// Config holds the user service configuration.
type Config struct {
	// GlobalPrefix namespaces keys; defaults to DefaultGlobalPrefix.
	GlobalPrefix string

	// TTL is the cache's default TTL. Zero means entries never expire.
	TTL time.Duration

	// FallbackToAPI enables the source-of-truth fallback on cache miss
	// for calls that do not override it.
	FallbackToAPI bool

	// SourceAPIBaseURL is the base URL of the source-of-truth service.
	SourceAPIBaseURL string

	// FallbackTTL is applied to fallback write-backs when the call gives
	// no override; defaults to DefaultFallbackTTL.
	FallbackTTL time.Duration
}

// Service exposes user operations over the fast store.
//
// Infrastructure faults degrade to "nothing found" defaults after logging;
// only logical faults (validation, uniqueness) surface as errors.
type Service struct {
	deps    interfaces.Dependencies
	indexes *index.Manager
	cache   *cache.Cache[domain.User]
	cfg     Config
}

// NewService creates a user service instance.
func NewService(deps interfaces.Dependencies, indexes *index.Manager, cfg Config) (*Service, error) {
	if cfg.GlobalPrefix == "" {
		cfg.GlobalPrefix = DefaultGlobalPrefix
	}
	if cfg.FallbackTTL == 0 {
		cfg.FallbackTTL = DefaultFallbackTTL
	}

	prefix := cfg.GlobalPrefix + ":" + ModelPrefix + ":"
	userCache, err := cache.New(deps, indexes, cache.Config[domain.User]{
		Prefix: prefix,
		TTL:    cfg.TTL,
		Codec:  Codec{},
		Index: &interfaces.IndexDefinition{
			Name:   IndexName,
			Prefix: prefix,
			Fields: []interfaces.IndexField{
				{Name: "id", Type: interfaces.FieldTag},
				{Name: "name", Type: interfaces.FieldText},
				{Name: "email", Type: interfaces.FieldTag},
				{Name: "cpf", Type: interfaces.FieldTag},
				{Name: "age", Type: interfaces.FieldNumeric, Sortable: true},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		deps:    deps,
		indexes: indexes,
		cache:   userCache,
		cfg:     cfg,
	}, nil
}

// CreateOptions controls uniqueness enforcement on Create.
type CreateOptions struct {
	// EnsureUniqueEmail rejects creation when another user already has
	// the same email. Check-then-create is not transactional; concurrent
	// creates can still race past it.
	EnsureUniqueEmail bool

	// EnsureUniqueCPF rejects creation when another user already has
	// the same CPF.
	EnsureUniqueCPF bool
}

// Create constructs a user, optionally enforces email/CPF uniqueness, and
// persists it (overwriting any previous entry under the same id).
// Uniqueness collisions surface as a DuplicateFieldError.
func (s *Service) Create(ctx context.Context, id, name, email, cpf string, age int, weight, height float64, opts CreateOptions) (*domain.User, error) {
	u, err := domain.NewUser(id, name, email, cpf, age, weight, height)
	if err != nil {
		return nil, err
	}

	if opts.EnsureUniqueEmail && email != "" {
		existing := s.GetByEmail(ctx, email)
		if len(existing) > 0 {
			return nil, &errors.DuplicateFieldError{Field: "email", Value: email}
		}
	}
	if opts.EnsureUniqueCPF && u.CPF != "" {
		if _, found := s.GetByCPF(ctx, u.CPF); found {
			return nil, &errors.DuplicateFieldError{Field: "cpf", Value: u.CPF}
		}
	}

	s.cache.Save(ctx, u.ID, *u)
	return u, nil
}

// GetOption overrides per-call behavior of Get.
type GetOption func(*getOptions)

type getOptions struct {
	fallback *bool
	ttl      time.Duration
}

// WithFallback overrides the service's default fallback flag for one call.
func WithFallback(enabled bool) GetOption {
	return func(o *getOptions) { o.fallback = &enabled }
}

// WithFallbackTTL overrides the TTL applied to a fallback write-back.
func WithFallbackTTL(ttl time.Duration) GetOption {
	return func(o *getOptions) { o.ttl = ttl }
}

// Get fetches a user by primary key. On a cache miss with fallback
// enabled, it consults the source-of-truth service, writes the result
// back with the resolved TTL, and returns it. A hit never refreshes the
// TTL and never consults the fallback.
func (s *Service) Get(ctx context.Context, id string, opts ...GetOption) (*domain.User, bool) {
	options := getOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if u, found := s.cache.Get(ctx, id); found {
		return &u, true
	}

	useFallback := s.cfg.FallbackToAPI
	if options.fallback != nil {
		useFallback = *options.fallback
	}
	if !useFallback {
		return nil, false
	}

	u, err := s.fetchFromSource(ctx, id)
	if err != nil {
		s.logError("get", err)
		return nil, false
	}
	if u == nil {
		return nil, false
	}

	s.cache.SaveWithTTL(ctx, u.ID, *u, s.resolveFallbackTTL(options.ttl))
	return u, true
}

// resolveFallbackTTL picks the per-call override, then the configured
// fallback TTL, then the cache default.
func (s *Service) resolveFallbackTTL(override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	if s.cfg.FallbackTTL > 0 {
		return s.cfg.FallbackTTL
	}
	return s.cache.TTL()
}

// sourcePayload mirrors the source-of-truth user representation.
type sourcePayload struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	CPF    string  `json:"cpf"`
	Age    int     `json:"age"`
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
}

// fetchFromSource resolves a user from the source-of-truth service.
// A 404 (or any non-200) is a plain miss; transport and decoding
// failures are errors.
func (s *Service) fetchFromSource(ctx context.Context, id string) (*domain.User, error) {
	if s.deps.HTTPClient == nil {
		return nil, fmt.Errorf("fallback requested but no HTTP client configured")
	}

	url := s.cfg.SourceAPIBaseURL + "/users/" + id
	resp, err := s.deps.HTTPClient.Get(ctx, url)
	if err != nil {
		return nil, errors.WrapError(err, "source-of-truth request failed")
	}
	defer resp.Body().Close()

	if resp.StatusCode() != 200 {
		if resp.StatusCode() == 404 {
			return nil, nil
		}
		return nil, &errors.ExternalAPIError{
			StatusCode: resp.StatusCode(),
			Message:    "unexpected status fetching user",
			API:        "source-of-truth",
		}
	}

	body, err := io.ReadAll(resp.Body())
	if err != nil {
		return nil, errors.WrapError(err, "reading source-of-truth response")
	}

	var payload sourcePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.WrapError(err, "decoding source-of-truth response")
	}
	if payload.ID == "" {
		payload.ID = id
	}

	u, err := domain.NewUser(payload.ID, payload.Name, payload.Email, payload.CPF, payload.Age, payload.Weight, payload.Height)
	if err != nil {
		return nil, errors.WrapError(err, "source-of-truth returned invalid user")
	}

	return u, nil
}

// GetByEmail returns every user with the given email. Index-only; the
// fallback path is never consulted.
func (s *Service) GetByEmail(ctx context.Context, email string) []domain.User {
	return s.findExact(ctx, "email", email)
}

// GetByCPF returns the first user with the given CPF, which is expected
// unique. The input is normalized before querying.
func (s *Service) GetByCPF(ctx context.Context, cpf string) (*domain.User, bool) {
	u, found := s.cache.FindOne(ctx, "cpf", domain.NormalizeCPF(cpf))
	if !found {
		return nil, false
	}
	return &u, true
}

// SearchByName returns users whose name matches the full-text query,
// bounded by limit (default 100). Result order is store-defined.
func (s *Service) SearchByName(ctx context.Context, query string, limit int) []domain.User {
	if err := s.cache.EnsureIndex(ctx); err != nil {
		s.logError("search_by_name", err)
		return nil
	}

	res, err := s.indexes.SearchText(ctx, IndexName, "name", query, limit)
	if err != nil {
		s.logError("search_by_name", err)
		return nil
	}

	return s.decodeDocs(ctx, res.Docs)
}

// List returns a page of users ordered by age.
func (s *Service) List(ctx context.Context, offset, limit int, sortByAgeAsc bool) []domain.User {
	if err := s.cache.EnsureIndex(ctx); err != nil {
		s.logError("list", err)
		return nil
	}

	res, err := s.indexes.List(ctx, IndexName, "age", sortByAgeAsc, offset, limit)
	if err != nil {
		s.logError("list", err)
		return nil
	}

	return s.decodeDocs(ctx, res.Docs)
}

// Count returns the total number of users in the index.
func (s *Service) Count(ctx context.Context) int {
	if err := s.cache.EnsureIndex(ctx); err != nil {
		s.logError("count", err)
		return 0
	}

	count, err := s.indexes.Count(ctx, IndexName)
	if err != nil {
		s.logError("count", err)
		return 0
	}

	return count
}

// Delete removes a user by primary key and reports whether it existed.
// The secondary index entry disappears with the hash itself.
func (s *Service) Delete(ctx context.Context, id string) bool {
	return s.cache.Delete(ctx, id)
}

// GetOrCreate fetches the user or creates it from defaults when absent.
// The read-then-create sequence is not atomic: a concurrent caller may
// also observe absence and create, last write wins.
func (s *Service) GetOrCreate(ctx context.Context, id string, defaults domain.UserPatch) (*domain.User, bool, error) {
	if existing, found := s.cache.Get(ctx, id); found {
		return &existing, false, nil
	}

	u := &domain.User{ID: id}
	u.Apply(defaults)
	if err := u.Validate(); err != nil {
		return nil, false, err
	}

	s.cache.Save(ctx, u.ID, *u)
	return u, true, nil
}

// UpdateOrCreate applies the patch to an existing user, or creates one
// from it when absent. Only the patch's declared mutable fields are
// touched; the id never changes.
func (s *Service) UpdateOrCreate(ctx context.Context, id string, defaults domain.UserPatch) (*domain.User, bool, error) {
	if existing, found := s.cache.Get(ctx, id); found {
		existing.Apply(defaults)
		if err := existing.Validate(); err != nil {
			return nil, false, err
		}
		s.cache.Save(ctx, existing.ID, existing)
		return &existing, false, nil
	}

	u := &domain.User{ID: id}
	u.Apply(defaults)
	if err := u.Validate(); err != nil {
		return nil, false, err
	}

	s.cache.Save(ctx, u.ID, *u)
	return u, true, nil
}

// Populate creates count synthetic users (deterministic under seed).
// Individual failures are logged and skipped; the return value counts
// only successes. Writes go through one pipelined batch.
func (s *Service) Populate(ctx context.Context, count int, idPrefix string, seed int64) int {
	if count <= 0 {
		return 0
	}
	if idPrefix == "" {
		idPrefix = "fake"
	}

	items := make([]cache.Item[domain.User], 0, count)
	for _, fake := range GenerateFakeUsers(count, idPrefix, seed) {
		u := fake
		if err := u.Validate(); err != nil {
			s.logError("populate", errors.WrapError(err, "skipping generated user "+u.ID))
			continue
		}
		items = append(items, cache.Item[domain.User]{Key: u.ID, Value: u})
	}

	return s.cache.BulkSave(ctx, items)
}

// Clear wildcard-deletes every key under the user namespace and returns
// how many were removed. Destructive O(n) scan, intended for test/demo
// reset only.
func (s *Service) Clear(ctx context.Context) int {
	pattern := s.cache.Prefix() + "*"
	keys, err := s.deps.Store.Keys(ctx, pattern)
	if err != nil {
		s.logError("clear", err)
		return 0
	}
	if len(keys) == 0 {
		return 0
	}

	removed, err := s.deps.Store.Delete(ctx, keys...)
	if err != nil {
		s.logError("clear", err)
		return 0
	}

	return int(removed)
}

// findExact runs an exact-match index query and decodes the results.
func (s *Service) findExact(ctx context.Context, field, value string) []domain.User {
	if err := s.cache.EnsureIndex(ctx); err != nil {
		s.logError("get_by_"+field, err)
		return nil
	}

	res, err := s.indexes.FindExact(ctx, IndexName, field, value, 0, index.DefaultSearchLimit)
	if err != nil {
		s.logError("get_by_"+field, err)
		return nil
	}

	return s.decodeDocs(ctx, res.Docs)
}

// decodeDocs converts index documents to users, skipping entries that no
// longer decode (e.g. stale index results racing a delete).
func (s *Service) decodeDocs(ctx context.Context, docs []interfaces.IndexDoc) []domain.User {
	users := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		fields := doc.Fields
		if len(fields) == 0 {
			u, found := s.cache.Get(ctx, s.cache.StripPrefix(doc.Key))
			if !found {
				continue
			}
			users = append(users, u)
			continue
		}
		u, err := s.cache.DecodeFields(fields)
		if err != nil {
			s.logError("decode", &errors.DeserializationError{Key: doc.Key, Message: err.Error()})
			continue
		}
		users = append(users, u)
	}
	return users
}

func (s *Service) logError(operation string, err error) {
	if s.deps.Logger == nil {
		return
	}
	s.deps.Logger.Error("User service operation failed", map[string]interface{}{
		"operation": operation,
		"error":     err.Error(),
	})
}
