// ABOUTME: Explicit field schema mapping users to hash field mappings
// ABOUTME: Stringifies every field; no runtime reflection involved

package user

import (
	"strconv"

	"entity-cache-api/core/domain"
)

// Codec is the explicit field schema for user records. Every value is
// stringified on the way into the store and parsed back on the way out.
type Codec struct{}

// Encode serializes a user into a field mapping.
func (Codec) Encode(key string, value domain.User) (map[string]string, error) {
	id := value.ID
	if id == "" {
		id = key
	}
	return map[string]string{
		"id":     id,
		"name":   value.Name,
		"email":  value.Email,
		"cpf":    value.CPF,
		"age":    strconv.Itoa(value.Age),
		"weight": strconv.FormatFloat(value.Weight, 'f', -1, 64),
		"height": strconv.FormatFloat(value.Height, 'f', -1, 64),
	}, nil
}

// Decode reconstructs a user from a field mapping. Absent numeric fields
// decode to zero; present but malformed ones are an error.
func (Codec) Decode(fields map[string]string) (domain.User, error) {
	age, err := parseInt(fields["age"])
	if err != nil {
		return domain.User{}, err
	}
	weight, err := parseFloat(fields["weight"])
	if err != nil {
		return domain.User{}, err
	}
	height, err := parseFloat(fields["height"])
	if err != nil {
		return domain.User{}, err
	}

	return domain.User{
		ID:     fields["id"],
		Name:   fields["name"],
		Email:  fields["email"],
		CPF:    fields["cpf"],
		Age:    age,
		Weight: weight,
		Height: height,
	}, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
