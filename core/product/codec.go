// ABOUTME: Explicit field schema mapping products to hash field mappings
// ABOUTME: Stringifies every field; no runtime reflection involved

package product

import (
	"strconv"

	"entity-cache-api/core/domain"
)

// Codec is the explicit field schema for product records.
type Codec struct{}

// Encode serializes a product into a field mapping.
func (Codec) Encode(key string, value domain.Product) (map[string]string, error) {
	id := value.ID
	if id == "" {
		id = key
	}
	return map[string]string{
		"id":          id,
		"name":        value.Name,
		"description": value.Description,
		"category":    value.Category,
		"price":       strconv.FormatFloat(value.Price, 'f', -1, 64),
	}, nil
}

// Decode reconstructs a product from a field mapping. An absent price
// decodes to zero; a present but malformed one is an error.
func (Codec) Decode(fields map[string]string) (domain.Product, error) {
	var price float64
	if raw := fields["price"]; raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Product{}, err
		}
		price = parsed
	}

	return domain.Product{
		ID:          fields["id"],
		Name:        fields["name"],
		Description: fields["description"],
		Category:    fields["category"],
		Price:       price,
	}, nil
}
