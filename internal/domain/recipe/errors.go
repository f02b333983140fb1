package recipe

import "errors"

// Domain errors for recipe records

var (
	ErrInvalidRecipeID        = errors.New("recipe id must be positive")
	ErrNameRequired           = errors.New("recipe name is required")
	ErrInvalidPortions        = errors.New("recipe portions must be greater than 0")
	ErrInvalidSeason          = errors.New("season must be one of all, spring, summer, autumn, winter")
	ErrIngredientNameRequired = errors.New("ingredient name is required")
	ErrNegativeQuantity       = errors.New("ingredient quantity cannot be negative")
	ErrInvalidMultiplier      = errors.New("portion multiplier must be greater than 0")
	ErrRecipeNotFound         = errors.New("recipe not found")
)
