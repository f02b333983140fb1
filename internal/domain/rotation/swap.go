package rotation

import (
	"fmt"
	"time"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/google/uuid"
)

// SuggestedSwap proposes replacing the recipe of one slot. LocationID may
// be uuid.Nil, in which case the first location (in template order) whose
// slot holds CurrentRecipeID is targeted.
type SuggestedSwap struct {
	WeekNr            int
	Day               time.Weekday
	Meal              Meal
	Course            Course
	LocationID        uuid.UUID
	CurrentRecipeID   recipe.ID
	SuggestedRecipeID recipe.ID
	Reason            string
	Score             float64
}

// Validate checks the coordinates of the swap against a template of
// weekCount weeks. The location is optional.
func (s SuggestedSwap) Validate(weekCount int) error {
	if s.WeekNr < 1 || s.WeekNr > weekCount {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidWeek, s.WeekNr, weekCount)
	}
	if !ValidDay(s.Day) {
		return fmt.Errorf("%w: %d", ErrInvalidDay, s.Day)
	}
	if !s.Meal.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMeal, s.Meal)
	}
	if !s.Course.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCourse, s.Course)
	}
	if s.SuggestedRecipeID <= recipe.None || s.SuggestedRecipeID == s.CurrentRecipeID {
		return ErrInvalidSuggestion
	}
	return nil
}

// Target returns the slot key for a concrete location
func (s SuggestedSwap) Target(templateID, locationID uuid.UUID) SlotKey {
	return SlotKey{
		TemplateID: templateID,
		WeekNr:     s.WeekNr,
		Day:        s.Day,
		Meal:       s.Meal,
		Course:     s.Course,
		LocationID: locationID,
	}
}

// String renders the swap for logs and summaries
func (s SuggestedSwap) String() string {
	return fmt.Sprintf("w%d/d%d/%s/%s: %d -> %d", s.WeekNr, s.Day, s.Meal, s.Course, s.CurrentRecipeID, s.SuggestedRecipeID)
}

// MenuPlanEntry is a slot projected onto a concrete calendar date. It is
// derived data and is regenerated on every read.
type MenuPlanEntry struct {
	Date           time.Time
	Meal           Meal
	Course         Course
	RecipeID       recipe.ID
	Portions       int
	LocationID     uuid.UUID
	RotationWeekNr int
}
