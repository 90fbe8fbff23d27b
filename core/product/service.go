// ABOUTME: Product service built on the generic cache and secondary index primitives
// ABOUTME: Mirrors the user service with category lookups and price-ordered paging

package product

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
	// ModelPrefix is the product segment of the key namespace.
	ModelPrefix = "product"

	// IndexName is the product secondary index.
	IndexName = "idx_products"

	// DefaultGlobalPrefix namespaces every key of this application.
	DefaultGlobalPrefix = "entity-cache"
)

// Config holds the product service configuration.
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
	// no override. Zero falls through to the cache default.
	FallbackTTL time.Duration
}

// Service exposes product operations over the fast store.
//
// Infrastructure faults degrade to "nothing found" defaults after logging;
// only logical faults (validation, uniqueness) surface as errors.
type Service struct {
	deps    interfaces.Dependencies
	indexes *index.Manager
	cache   *cache.Cache[domain.Product]
	cfg     Config
}

// NewService creates a product service instance.
func NewService(deps interfaces.Dependencies, indexes *index.Manager, cfg Config) (*Service, error) {
	if cfg.GlobalPrefix == "" {
		cfg.GlobalPrefix = DefaultGlobalPrefix
	}

	prefix := cfg.GlobalPrefix + ":" + ModelPrefix + ":"
	productCache, err := cache.New(deps, indexes, cache.Config[domain.Product]{
		Prefix: prefix,
		TTL:    cfg.TTL,
		Codec:  Codec{},
		Index: &interfaces.IndexDefinition{
			Name:   IndexName,
			Prefix: prefix,
			Fields: []interfaces.IndexField{
				{Name: "id", Type: interfaces.FieldTag},
				{Name: "name", Type: interfaces.FieldText},
				{Name: "category", Type: interfaces.FieldTag},
				{Name: "price", Type: interfaces.FieldNumeric, Sortable: true},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		deps:    deps,
		indexes: indexes,
		cache:   productCache,
		cfg:     cfg,
	}, nil
}

// CreateOptions controls uniqueness enforcement on Create.
type CreateOptions struct {
	// EnsureUniqueName rejects creation when another product already has
	// the same exact name. Check-then-create is not transactional.
	EnsureUniqueName bool
}

// Create constructs a product, optionally enforces name uniqueness, and
// persists it (overwriting any previous entry under the same id).
func (s *Service) Create(ctx context.Context, id, name, description, category string, price float64, opts CreateOptions) (*domain.Product, error) {
	p, err := domain.NewProduct(id, name, description, category, price)
	if err != nil {
		return nil, err
	}

	if opts.EnsureUniqueName && name != "" {
		existing := s.findExact(ctx, "name", name)
		if len(existing) > 0 {
			return nil, &errors.DuplicateFieldError{Field: "name", Value: name}
		}
	}

	s.cache.Save(ctx, p.ID, *p)
	return p, nil
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

// Get fetches a product by primary key. On a cache miss with fallback
// enabled, it consults the source-of-truth service, writes the result
// back with the resolved TTL, and returns it. A hit never refreshes the
// TTL and never consults the fallback.
func (s *Service) Get(ctx context.Context, id string, opts ...GetOption) (*domain.Product, bool) {
	options := getOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if p, found := s.cache.Get(ctx, id); found {
		return &p, true
	}

	useFallback := s.cfg.FallbackToAPI
	if options.fallback != nil {
		useFallback = *options.fallback
	}
	if !useFallback {
		return nil, false
	}

	p, err := s.fetchFromSource(ctx, id)
	if err != nil {
		s.logError("get", err)
		return nil, false
	}
	if p == nil {
		return nil, false
	}

	s.cache.SaveWithTTL(ctx, p.ID, *p, s.resolveFallbackTTL(options.ttl))
	return p, true
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

// sourcePayload mirrors the source-of-truth product representation.
type sourcePayload struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
}

// fetchFromSource resolves a product from the source-of-truth service.
// A 404 is a plain miss; other non-200 statuses and transport or decoding
// failures are errors.
func (s *Service) fetchFromSource(ctx context.Context, id string) (*domain.Product, error) {
	if s.deps.HTTPClient == nil {
		return nil, fmt.Errorf("fallback requested but no HTTP client configured")
	}

	url := s.cfg.SourceAPIBaseURL + "/products/" + id
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
			Message:    "unexpected status fetching product",
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

	p, err := domain.NewProduct(payload.ID, payload.Name, payload.Description, payload.Category, payload.Price)
	if err != nil {
		return nil, errors.WrapError(err, "source-of-truth returned invalid product")
	}

	return p, nil
}

// GetByCategory returns every product in the given category. Index-only;
// the fallback path is never consulted.
func (s *Service) GetByCategory(ctx context.Context, category string) []domain.Product {
	return s.findExact(ctx, "category", category)
}

// SearchByName returns products whose name matches the full-text query,
// bounded by limit (default 100). Result order is store-defined.
func (s *Service) SearchByName(ctx context.Context, query string, limit int) []domain.Product {
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

// List returns a page of products ordered by price.
func (s *Service) List(ctx context.Context, offset, limit int, sortByPriceAsc bool) []domain.Product {
	if err := s.cache.EnsureIndex(ctx); err != nil {
		s.logError("list", err)
		return nil
	}

	res, err := s.indexes.List(ctx, IndexName, "price", sortByPriceAsc, offset, limit)
	if err != nil {
		s.logError("list", err)
		return nil
	}

	return s.decodeDocs(ctx, res.Docs)
}

// Count returns the total number of products in the index.
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

// Delete removes a product by primary key and reports whether it existed.
func (s *Service) Delete(ctx context.Context, id string) bool {
	return s.cache.Delete(ctx, id)
}

// GetOrCreate fetches the product or creates it from defaults when absent.
// The read-then-create sequence is not atomic.
func (s *Service) GetOrCreate(ctx context.Context, id string, defaults domain.ProductPatch) (*domain.Product, bool, error) {
	if existing, found := s.cache.Get(ctx, id); found {
		return &existing, false, nil
	}

	p := &domain.Product{ID: id}
	p.Apply(defaults)
	if err := p.Validate(); err != nil {
		return nil, false, err
	}

	s.cache.Save(ctx, p.ID, *p)
	return p, true, nil
}

// UpdateOrCreate applies the patch to an existing product, or creates one
// from it when absent. Only the patch's declared mutable fields are
// touched; the id never changes.
func (s *Service) UpdateOrCreate(ctx context.Context, id string, defaults domain.ProductPatch) (*domain.Product, bool, error) {
	if existing, found := s.cache.Get(ctx, id); found {
		existing.Apply(defaults)
		if err := existing.Validate(); err != nil {
			return nil, false, err
		}
		s.cache.Save(ctx, existing.ID, existing)
		return &existing, false, nil
	}

	p := &domain.Product{ID: id}
	p.Apply(defaults)
	if err := p.Validate(); err != nil {
		return nil, false, err
	}

	s.cache.Save(ctx, p.ID, *p)
	return p, true, nil
}

// Populate creates count synthetic products (deterministic under seed).
// Individual failures are logged and skipped; the return value counts
// only successes. Writes go through one pipelined batch.
func (s *Service) Populate(ctx context.Context, count int, idPrefix string, seed int64) int {
	if count <= 0 {
		return 0
	}
	if idPrefix == "" {
		idPrefix = "fake"
	}

	items := make([]cache.Item[domain.Product], 0, count)
	for _, fake := range GenerateFakeProducts(count, idPrefix, seed) {
		p := fake
		if err := p.Validate(); err != nil {
			s.logError("populate", errors.WrapError(err, "skipping generated product "+p.ID))
			continue
		}
		items = append(items, cache.Item[domain.Product]{Key: p.ID, Value: p})
	}

	return s.cache.BulkSave(ctx, items)
}

// Clear wildcard-deletes every key under the product namespace and returns
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
func (s *Service) findExact(ctx context.Context, field, value string) []domain.Product {
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

// decodeDocs converts index documents to products, skipping entries that
// no longer decode (e.g. stale index results racing a delete).
func (s *Service) decodeDocs(ctx context.Context, docs []interfaces.IndexDoc) []domain.Product {
	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		fields := doc.Fields
		if len(fields) == 0 {
			p, found := s.cache.Get(ctx, s.cache.StripPrefix(doc.Key))
			if !found {
				continue
			}
			products = append(products, p)
			continue
		}
		p, err := s.cache.DecodeFields(fields)
		if err != nil {
			s.logError("decode", &errors.DeserializationError{Key: doc.Key, Message: err.Error()})
			continue
		}
		products = append(products, p)
	}
	return products
}

func (s *Service) logError(operation string, err error) {
	if s.deps.Logger == nil {
		return
	}
	s.deps.Logger.Error("Product service operation failed", map[string]interface{}{
		"operation": operation,
		"error":     err.Error(),
	})
}
