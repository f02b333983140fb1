package rotation

import (
	"fmt"
	"math"
	"time"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/google/uuid"
)

// SlotKey addresses one cell of the rotation grid. All fields are required.
type SlotKey struct {
	TemplateID uuid.UUID
	WeekNr     int
	Day        time.Weekday
	Meal       Meal
	Course     Course
	LocationID uuid.UUID
}

// Validate checks the key against a template of weekCount weeks
func (k SlotKey) Validate(weekCount int) error {
	if k.TemplateID == uuid.Nil {
		return ErrMissingTemplate
	}
	if k.WeekNr < 1 || k.WeekNr > weekCount {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidWeek, k.WeekNr, weekCount)
	}
	if !ValidDay(k.Day) {
		return fmt.Errorf("%w: %d", ErrInvalidDay, k.Day)
	}
	if !k.Meal.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMeal, k.Meal)
	}
	if !k.Course.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCourse, k.Course)
	}
	if k.LocationID == uuid.Nil {
		return ErrMissingLocation
	}
	return nil
}

// String renders the key as week/day/meal/course@location
func (k SlotKey) String() string {
	return fmt.Sprintf("w%d/d%d/%s/%s@%s", k.WeekNr, k.Day, k.Meal, k.Course, k.LocationID)
}

// Less orders keys by week, day (Monday first), meal, course, location
func (k SlotKey) Less(o SlotKey) bool {
	if k.WeekNr != o.WeekNr {
		return k.WeekNr < o.WeekNr
	}
	if dk, do := mondayFirst(k.Day), mondayFirst(o.Day); dk != do {
		return dk < do
	}
	if k.Meal != o.Meal {
		return k.Meal.Index() < o.Meal.Index()
	}
	if k.Course != o.Course {
		return k.Course.Index() < o.Course.Index()
	}
	return k.LocationID.String() < o.LocationID.String()
}

func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Slot is a grid cell with its assignment. RecipeID recipe.None means the
// slot is unfilled.
type Slot struct {
	Key      SlotKey
	RecipeID recipe.ID
	Portions int
}

// NewSlot builds a slot with the default portion count of 1
func NewSlot(key SlotKey, recipeID recipe.ID) Slot {
	return Slot{Key: key, RecipeID: recipeID, Portions: 1}
}

// Filled reports whether a recipe is assigned
func (s Slot) Filled() bool {
	return s.RecipeID != recipe.None
}

// Validate checks key and value
func (s Slot) Validate(weekCount int) error {
	if err := s.Key.Validate(weekCount); err != nil {
		return err
	}
	if s.Portions < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPortions, s.Portions)
	}
	if s.RecipeID < recipe.None {
		return recipe.ErrInvalidRecipeID
	}
	return nil
}

// FillPercentage returns round(filled / len(slots) × 100) over an explicit
// slot list. An empty list is 0% filled.
func FillPercentage(slots []Slot) int {
	if len(slots) == 0 {
		return 0
	}
	filled := 0
	for _, s := range slots {
		if s.Filled() {
			filled++
		}
	}
	return Percent(filled, len(slots))
}

// Percent returns round(part / total × 100), 0 when total is 0
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
