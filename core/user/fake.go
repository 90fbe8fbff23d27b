// ABOUTME: Synthetic user generator for populate and demos
// ABOUTME: Deterministic under a seed; emails and CPFs unique within a batch

package user

import (
	"fmt"
	"math/rand"
	"time"

	"entity-cache-api/core/domain"
)

// Realistic ranges for age, weight (kg) and height (m).
const (
	ageMin, ageMax       = 18, 80
	weightMin, weightMax = 45.0, 120.0
	heightMin, heightMax = 1.50, 2.00
)

var firstNames = []string{
	"Alice", "Bruno", "Carla", "Daniel", "Elena", "Felipe", "Gabriela",
	"Hugo", "Isabela", "João", "Karen", "Lucas", "Mariana", "Nícolas",
	"Olívia", "Paulo", "Rafaela", "Sérgio", "Tatiana", "Vinícius",
}

var lastNames = []string{
	"Almeida", "Barbosa", "Cardoso", "Dias", "Esteves", "Ferreira",
	"Gomes", "Lima", "Martins", "Nascimento", "Oliveira", "Pereira",
	"Ribeiro", "Santos", "Teixeira", "Vieira",
}

// GenerateFakeUsers produces count synthetic users with ids
// "{idPrefix}-1" through "{idPrefix}-{count}". Emails and CPFs are
// derived from the prefix and ordinal, so they never repeat within a
// batch. A zero seed draws one from the clock; any other seed makes the
// output fully reproducible.
func GenerateFakeUsers(count int, idPrefix string, seed int64) []domain.User {
	if count <= 0 {
		return nil
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	users := make([]domain.User, 0, count)
	for i := 0; i < count; i++ {
		ordinal := i + 1
		users = append(users, domain.User{
			ID:     fmt.Sprintf("%s-%d", idPrefix, ordinal),
			Name:   firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
			Email:  fmt.Sprintf("%s-%d@batch.example.com", idPrefix, ordinal),
			CPF:    fmt.Sprintf("000%03d000%02d", ordinal%1000, i%100),
			Age:    ageMin + rng.Intn(ageMax-ageMin+1),
			Weight: round1(weightMin + rng.Float64()*(weightMax-weightMin)),
			Height: round2(heightMin + rng.Float64()*(heightMax-heightMin)),
		})
	}

	return users
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
