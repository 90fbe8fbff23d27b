package index

import (
	"context"
	"errors"
	"testing"

	"entity-cache-api/core/interfaces"
)

func userIndexDef() interfaces.IndexDefinition {
	return interfaces.IndexDefinition{
		Name:   "idx_users",
		Prefix: "user:",
		Fields: []interfaces.IndexField{
			{Name: "email", Type: interfaces.FieldTag},
			{Name: "name", Type: interfaces.FieldText},
			{Name: "age", Type: interfaces.FieldNumeric, Sortable: true},
		},
	}
}

func TestEnsure_CreatesIndexOnce(t *testing.T) {
	created := 0
	store := &mockIndexStore{
		createIndexFunc: func(ctx context.Context, def interfaces.IndexDefinition) error {
			created++
			return nil
		},
	}
	manager := NewManager(store, nil)

	ctx := context.Background()
	if err := manager.Ensure(ctx, userIndexDef()); err != nil {
		t.Fatalf("first Ensure returned error: %v", err)
	}
	if err := manager.Ensure(ctx, userIndexDef()); err != nil {
		t.Fatalf("second Ensure returned error: %v", err)
	}

	if created != 1 {
		t.Errorf("CreateIndex called %d times, want 1", created)
	}
}

func TestEnsure_SkipsCreateWhenIndexExists(t *testing.T) {
	created := 0
	store := &mockIndexStore{
		indexExistsFunc: func(ctx context.Context, name string) (bool, error) {
			return true, nil
		},
		createIndexFunc: func(ctx context.Context, def interfaces.IndexDefinition) error {
			created++
			return nil
		},
	}
	manager := NewManager(store, nil)

	if err := manager.Ensure(context.Background(), userIndexDef()); err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}

	if created != 0 {
		t.Error("Ensure should not create an index the store already knows")
	}
}

func TestEnsure_ChecksExistenceOnlyOnFirstCall(t *testing.T) {
	checks := 0
	store := &mockIndexStore{
		indexExistsFunc: func(ctx context.Context, name string) (bool, error) {
			checks++
			return true, nil
		},
	}
	manager := NewManager(store, nil)

	ctx := context.Background()
	manager.Ensure(ctx, userIndexDef())
	manager.Ensure(ctx, userIndexDef())
	manager.Ensure(ctx, userIndexDef())

	if checks != 1 {
		t.Errorf("IndexExists called %d times, want 1", checks)
	}
}

func TestEnsure_EmptyName(t *testing.T) {
	manager := NewManager(&mockIndexStore{}, nil)

	def := userIndexDef()
	def.Name = ""
	if err := manager.Ensure(context.Background(), def); err == nil {
		t.Error("Ensure should return error for empty index name")
	}
}

func TestEnsure_NoFields(t *testing.T) {
	manager := NewManager(&mockIndexStore{}, nil)

	def := userIndexDef()
	def.Fields = nil
	if err := manager.Ensure(context.Background(), def); err == nil {
		t.Error("Ensure should return error for index without fields")
	}
}

func TestEnsure_PropagatesCreateError(t *testing.T) {
	store := &mockIndexStore{
		createIndexFunc: func(ctx context.Context, def interfaces.IndexDefinition) error {
			return errors.New("store down")
		},
	}
	manager := NewManager(store, nil)

	if err := manager.Ensure(context.Background(), userIndexDef()); err == nil {
		t.Error("Ensure should propagate store errors")
	}

	// A failed create must not mark the index ensured.
	created := false
	store.createIndexFunc = func(ctx context.Context, def interfaces.IndexDefinition) error {
		created = true
		return nil
	}
	if err := manager.Ensure(context.Background(), userIndexDef()); err != nil {
		t.Fatalf("retry Ensure returned error: %v", err)
	}
	if !created {
		t.Error("Ensure should retry creation after a failed attempt")
	}
}

func TestFindExact_BuildsExactQuery(t *testing.T) {
	var got interfaces.IndexQuery
	store := &mockIndexStore{
		searchIndexFunc: func(ctx context.Context, name string, query interfaces.IndexQuery) (interfaces.IndexResult, error) {
			got = query
			return interfaces.IndexResult{}, nil
		},
	}
	manager := NewManager(store, nil)

	manager.FindExact(context.Background(), "idx_users", "email", "a@b.com", 0, 10)

	if got.Match != interfaces.MatchExact {
		t.Errorf("Match = %v, want MatchExact", got.Match)
	}
	if got.Field != "email" || got.Value != "a@b.com" {
		t.Errorf("query field/value = %q/%q, want email/a@b.com", got.Field, got.Value)
	}
	if got.Limit != 10 {
		t.Errorf("Limit = %d, want 10", got.Limit)
	}
}

func TestSearchText_DefaultsLimit(t *testing.T) {
	var got interfaces.IndexQuery
	store := &mockIndexStore{
		searchIndexFunc: func(ctx context.Context, name string, query interfaces.IndexQuery) (interfaces.IndexResult, error) {
			got = query
			return interfaces.IndexResult{}, nil
		},
	}
	manager := NewManager(store, nil)

	manager.SearchText(context.Background(), "idx_users", "name", "ali", 0)

	if got.Limit != DefaultSearchLimit {
		t.Errorf("Limit = %d, want default %d", got.Limit, DefaultSearchLimit)
	}
	if got.Match != interfaces.MatchPrefix {
		t.Errorf("Match = %v, want MatchPrefix", got.Match)
	}
}

func TestList_SetsSortDirection(t *testing.T) {
	var got interfaces.IndexQuery
	store := &mockIndexStore{
		searchIndexFunc: func(ctx context.Context, name string, query interfaces.IndexQuery) (interfaces.IndexResult, error) {
			got = query
			return interfaces.IndexResult{}, nil
		},
	}
	manager := NewManager(store, nil)

	manager.List(context.Background(), "idx_users", "age", false, 5, 5)

	if got.SortBy != "age" {
		t.Errorf("SortBy = %q, want age", got.SortBy)
	}
	if !got.SortDesc {
		t.Error("SortDesc should be true when asc is false")
	}
	if got.Offset != 5 {
		t.Errorf("Offset = %d, want 5", got.Offset)
	}
}

func TestCount_ReturnsTotal(t *testing.T) {
	store := &mockIndexStore{
		searchIndexFunc: func(ctx context.Context, name string, query interfaces.IndexQuery) (interfaces.IndexResult, error) {
			if !query.KeysOnly {
				t.Error("Count should request keys only")
			}
			return interfaces.IndexResult{Total: 42}, nil
		},
	}
	manager := NewManager(store, nil)

	count, err := manager.Count(context.Background(), "idx_users")
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 42 {
		t.Errorf("Count = %d, want 42", count)
	}
}

func TestDrop_AllowsReEnsure(t *testing.T) {
	created := 0
	store := &mockIndexStore{
		createIndexFunc: func(ctx context.Context, def interfaces.IndexDefinition) error {
			created++
			return nil
		},
	}
	manager := NewManager(store, nil)

	ctx := context.Background()
	manager.Ensure(ctx, userIndexDef())
	manager.Drop(ctx, "idx_users")
	manager.Ensure(ctx, userIndexDef())

	if created != 2 {
		t.Errorf("CreateIndex called %d times, want 2 (Drop forgets ensured state)", created)
	}
}
