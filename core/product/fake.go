// ABOUTME: Synthetic product generator for populate and demos
// ABOUTME: Deterministic under a seed; names drawn from a per-category catalog

package product

import (
	"fmt"
	"math/rand"
	"time"

	"entity-cache-api/core/domain"
)

const (
	priceMin, priceMax = 9.90, 9999.90
)

var catalog = map[string][]string{
	"electronics": {"Wireless Headphones", "Mechanical Keyboard", "4K Monitor", "USB-C Hub", "Bluetooth Speaker"},
	"books":       {"Distributed Systems Primer", "The Cache Handbook", "Redis Cookbook", "Go in Practice"},
	"kitchen":     {"Espresso Grinder", "Cast Iron Skillet", "Stand Mixer", "Chef's Knife"},
	"sports":      {"Trail Running Shoes", "Yoga Mat", "Climbing Harness", "Carbon Road Bike"},
	"office":      {"Ergonomic Chair", "Standing Desk", "Desk Lamp", "Notebook Set"},
}

var categories = []string{"electronics", "books", "kitchen", "sports", "office"}

var nameSuffixes = []string{"", "", "", " Pro", " Mini", " XL", " 2"}

// GenerateFakeProducts produces count synthetic products with ids
// "{idPrefix}-1" through "{idPrefix}-{count}". A zero seed draws one from
// the clock; any other seed makes the output fully reproducible.
func GenerateFakeProducts(count int, idPrefix string, seed int64) []domain.Product {
	if count <= 0 {
		return nil
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	products := make([]domain.Product, 0, count)
	for i := 0; i < count; i++ {
		category := categories[rng.Intn(len(categories))]
		names := catalog[category]
		name := names[rng.Intn(len(names))] + nameSuffixes[rng.Intn(len(nameSuffixes))]

		products = append(products, domain.Product{
			ID:          fmt.Sprintf("%s-%d", idPrefix, i+1),
			Name:        name,
			Description: fmt.Sprintf("%s from the %s catalog", name, category),
			Category:    category,
			Price:       roundCents(priceMin + rng.Float64()*(priceMax-priceMin)),
		})
	}

	return products
}

func roundCents(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
