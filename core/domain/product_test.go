package domain

import (
	"testing"

	"entity-cache-api/core/errors"
)

func TestNewProduct_ValidProduct(t *testing.T) {
	product, err := NewProduct("p-1", "Mechanical Keyboard", "RGB, hot-swap", "peripherals", 129.90)

	if err != nil {
		t.Fatalf("NewProduct returned error: %v", err)
	}
	if product.ID != "p-1" {
		t.Errorf("ID = %q, want %q", product.ID, "p-1")
	}
	if product.Category != "peripherals" {
		t.Errorf("Category = %q, want %q", product.Category, "peripherals")
	}
}

func TestNewProduct_EmptyID(t *testing.T) {
	product, err := NewProduct("", "Keyboard", "", "peripherals", 10)

	if err == nil {
		t.Error("NewProduct should return error for empty id")
	}
	if product != nil {
		t.Error("NewProduct should return nil product for empty id")
	}
	if !errors.IsValidation(err) {
		t.Errorf("error should be a ValidationError, got %T", err)
	}
}

func TestNewProduct_NegativePrice(t *testing.T) {
	_, err := NewProduct("p-1", "Keyboard", "", "peripherals", -1)

	if err == nil {
		t.Error("NewProduct should return error for negative price")
	}
}

func TestProduct_Apply_PartialPatch(t *testing.T) {
	product := &Product{ID: "p-1", Name: "Keyboard", Category: "peripherals", Price: 129.90}

	newPrice := 99.90
	product.Apply(ProductPatch{Price: &newPrice})

	if product.Price != 99.90 {
		t.Errorf("Price = %v, want 99.90", product.Price)
	}
	if product.Name != "Keyboard" {
		t.Error("Apply should not touch fields absent from the patch")
	}
	if product.ID != "p-1" {
		t.Error("Apply should never change the ID")
	}
}
