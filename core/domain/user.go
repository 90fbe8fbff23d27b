// ABOUTME: User domain model with validation and CPF normalization
// ABOUTME: Defines the user record shape cached in the fast store

package domain

import (
	"strings"

	"entity-cache-api/core/errors"
)

// CPFLength is the number of digits in a normalized CPF.
const CPFLength = 11

// User represents a user record.
type User struct {
	// ID is the primary key, unique within the user key namespace
	// and immutable once set.
	ID string

	// Name is the user's display name.
	Name string

	// Email is the user's email address. Uniqueness is enforced only
	// when explicitly requested at create time.
	Email string

	// CPF is an 11-digit numeric string, normalized before storage.
	CPF string

	// Age in years.
	Age int

	// Weight in kilograms.
	Weight float64

	// Height in meters.
	Height float64
}

// UserPatch carries the mutable fields of a user. Nil fields are left
// untouched by updates; ID is deliberately absent.
type UserPatch struct {
	Name   *string
	Email  *string
	CPF    *string
	Age    *int
	Weight *float64
	Height *float64
}

// NewUser creates a User with a normalized CPF and validates it.
func NewUser(id, name, email, cpf string, age int, weight, height float64) (*User, error) {
	u := &User{
		ID:     id,
		Name:   name,
		Email:  email,
		CPF:    NormalizeCPF(cpf),
		Age:    age,
		Weight: weight,
		Height: height,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

// Validate checks the user's required fields and numeric ranges.
func (u *User) Validate() error {
	if u.ID == "" {
		return &errors.ValidationError{Field: "id", Message: "cannot be empty"}
	}
	if u.CPF != "" && len(u.CPF) != CPFLength {
		return &errors.ValidationError{Field: "cpf", Message: "must have 11 digits"}
	}
	if u.Age < 0 {
		return &errors.ValidationError{Field: "age", Message: "must be non-negative"}
	}
	if u.Weight < 0 {
		return &errors.ValidationError{Field: "weight", Message: "must be non-negative"}
	}
	if u.Height < 0 {
		return &errors.ValidationError{Field: "height", Message: "must be non-negative"}
	}

	return nil
}

// Apply overlays the non-nil fields of a patch onto the user.
// CPF values are normalized on the way in.
func (u *User) Apply(patch UserPatch) {
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.CPF != nil {
		u.CPF = NormalizeCPF(*patch.CPF)
	}
	if patch.Age != nil {
		u.Age = *patch.Age
	}
	if patch.Weight != nil {
		u.Weight = *patch.Weight
	}
	if patch.Height != nil {
		u.Height = *patch.Height
	}
}

// NormalizeCPF strips every non-digit character and left-pads the result
// with zeros to 11 digits. An empty input stays empty; an input with more
// than 11 digits is returned as its bare digits (Validate rejects it).
func NormalizeCPF(cpf string) string {
	var b strings.Builder
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if digits == "" || len(digits) >= CPFLength {
		return digits
	}

	return strings.Repeat("0", CPFLength-len(digits)) + digits
}
