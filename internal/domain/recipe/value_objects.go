package recipe

import (
	"strings"
	"time"
)

// Ingredient is a quantity of something, written for the recipe's
// baseline portion count.
type Ingredient struct {
	Name     string
	Quantity float64
	Unit     string
}

// Validate validates the ingredient
func (i Ingredient) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrIngredientNameRequired
	}
	if i.Quantity < 0 {
		return ErrNegativeQuantity
	}
	return nil
}

// SubRecipeLink is a directed composition edge: one portion of Parent
// consumes PortionMultiplier portions of Child.
type SubRecipeLink struct {
	ParentID          ID
	ChildID           ID
	PortionMultiplier float64
}

// Validate validates the link shape. Cycle safety is checked separately
// against the whole graph.
func (l SubRecipeLink) Validate() error {
	if l.ParentID <= None || l.ChildID <= None {
		return ErrInvalidRecipeID
	}
	if l.PortionMultiplier <= 0 {
		return ErrInvalidMultiplier
	}
	return nil
}

// Season is the seasonal tag of a recipe
type Season string

const (
	SeasonAll    Season = "all"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

// Valid reports whether s is a known season. The empty season is treated
// as "all".
func (s Season) Valid() bool {
	switch s {
	case "", SeasonAll, SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter:
		return true
	}
	return false
}

// Normalize maps the empty season to SeasonAll
func (s Season) Normalize() Season {
	if s == "" {
		return SeasonAll
	}
	return s
}

// Hemisphere selects the month-to-season table
type Hemisphere string

const (
	HemisphereNorth Hemisphere = "north"
	HemisphereSouth Hemisphere = "south"
)

// SeasonAt returns the meteorological season of t
func SeasonAt(t time.Time, h Hemisphere) Season {
	var s Season
	switch t.Month() {
	case time.March, time.April, time.May:
		s = SeasonSpring
	case time.June, time.July, time.August:
		s = SeasonSummer
	case time.September, time.October, time.November:
		s = SeasonAutumn
	default:
		s = SeasonWinter
	}
	if h == HemisphereSouth {
		return opposite[s]
	}
	return s
}

var opposite = map[Season]Season{
	SeasonSpring: SeasonAutumn,
	SeasonSummer: SeasonWinter,
	SeasonAutumn: SeasonSpring,
	SeasonWinter: SeasonSummer,
}
