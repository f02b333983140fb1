// Package recipe contains the recipe records the rotation core reads from
// the storage boundary. Recipes are owned by the catalogue service; this
// package only describes them.
package recipe

import (
	"strings"
)

// ID identifies a recipe. The zero value means "no recipe".
type ID int64

// None is the unassigned recipe id.
const None ID = 0

// Recipe is a read-only catalogue record
type Recipe struct {
	ID             ID
	Name           string
	Category       string
	Portions       int
	Allergens      []string
	Tags           []string
	Season         Season
	Ingredients    []Ingredient
	CostPerPortion float64
}

// Validate checks the fields the rotation core depends on
func (r *Recipe) Validate() error {
	if r.ID <= None {
		return ErrInvalidRecipeID
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	if r.Portions <= 0 {
		return ErrInvalidPortions
	}
	if !r.Season.Valid() {
		return ErrInvalidSeason
	}
	for _, ing := range r.Ingredients {
		if err := ing.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HasAllergen reports whether the recipe declares the allergen code
func (r *Recipe) HasAllergen(code string) bool {
	for _, a := range r.Allergens {
		if strings.EqualFold(a, code) {
			return true
		}
	}
	return false
}

// CategoryOrDefault returns the category, or "uncategorized" when unset
func (r *Recipe) CategoryOrDefault() string {
	if r == nil || r.Category == "" {
		return UncategorizedCategory
	}
	return r.Category
}

// UncategorizedCategory labels recipes without a category
const UncategorizedCategory = "uncategorized"
