package rotation

import "errors"

// Domain errors for rotation operations

var (
	// Coordinate validation
	ErrInvalidWeek      = errors.New("invalid week number")
	ErrInvalidWeekCount = errors.New("rotation week count must be at least 1")
	ErrInvalidDay       = errors.New("day of week must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidMeal      = errors.New("meal must be lunch or dinner")
	ErrInvalidCourse    = errors.New("unknown course")
	ErrInvalidPortions  = errors.New("portions must be a positive integer")
	ErrMissingTemplate  = errors.New("slot key requires a template id")
	ErrMissingLocation  = errors.New("slot key requires a location id")
	ErrUnknownLocation  = errors.New("location is not active in this template")

	// Template rules
	ErrTemplateNameRequired = errors.New("template name is required")
	ErrDuplicateLocation    = errors.New("location already active in template")
	ErrLocationInUse        = errors.New("location still referenced by slots")
	ErrTemplateNotFound     = errors.New("rotation template not found")

	// Swap protocol
	ErrStaleProposal     = errors.New("stale proposal: slot no longer holds the expected recipe")
	ErrInvalidSuggestion = errors.New("suggested recipe must be set and differ from the current recipe")
)

// IsValidation reports whether err is a coordinate or value validation error
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidWeek, ErrInvalidWeekCount, ErrInvalidDay, ErrInvalidMeal,
		ErrInvalidCourse, ErrInvalidPortions, ErrMissingTemplate, ErrMissingLocation,
		ErrUnknownLocation, ErrTemplateNameRequired, ErrDuplicateLocation,
		ErrLocationInUse, ErrInvalidSuggestion,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
