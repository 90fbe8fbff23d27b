// ABOUTME: Product domain model with validation
// ABOUTME: Defines the product record shape cached in the fast store

package domain

import (
	"entity-cache-api/core/errors"
)

// Product represents a product record.
type Product struct {
	// ID is the primary key, unique within the product key namespace
	// and immutable once set.
	ID string

	// Name is the product's display name.
	Name string

	// Description is a short free-text description.
	Description string

	// Category groups products for exact-match lookup.
	Category string

	// Price in the store currency.
	Price float64
}

// ProductPatch carries the mutable fields of a product. Nil fields are
// left untouched by updates; ID is deliberately absent.
type ProductPatch struct {
	Name        *string
	Description *string
	Category    *string
	Price       *float64
}

// NewProduct creates a Product and validates it.
func NewProduct(id, name, description, category string, price float64) (*Product, error) {
	p := &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Category:    category,
		Price:       price,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate checks the product's required fields and numeric ranges.
func (p *Product) Validate() error {
	if p.ID == "" {
		return &errors.ValidationError{Field: "id", Message: "cannot be empty"}
	}
	if p.Price < 0 {
		return &errors.ValidationError{Field: "price", Message: "must be non-negative"}
	}

	return nil
}

// Apply overlays the non-nil fields of a patch onto the product.
func (p *Product) Apply(patch ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
}
