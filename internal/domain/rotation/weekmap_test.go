package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotationWeekNr(t *testing.T) {
	t.Run("AlwaysWithinCycle", func(t *testing.T) {
		for c := 1; c <= 12; c++ {
			for w := 1; w <= 60; w++ {
				got, err := RotationWeekNr(w, c)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, got, 1)
				assert.LessOrEqual(t, got, c)
			}
		}
	})

	t.Run("SingleWeekCycle", func(t *testing.T) {
		for w := 1; w <= 53; w++ {
			got, err := RotationWeekNr(w, 1)
			require.NoError(t, err)
			assert.Equal(t, 1, got)
		}
	})

	t.Run("Boundaries", func(t *testing.T) {
		for c := 1; c <= 8; c++ {
			got, err := RotationWeekNr(c, c)
			require.NoError(t, err)
			assert.Equal(t, c, got)

			got, err = RotationWeekNr(c+1, c)
			require.NoError(t, err)
			assert.Equal(t, 1, got)
		}
	})

	t.Run("NonPositiveInputs", func(t *testing.T) {
		_, err := RotationWeekNr(0, 4)
		assert.ErrorIs(t, err, ErrInvalidWeek)
		_, err = RotationWeekNr(3, 0)
		assert.ErrorIs(t, err, ErrInvalidWeekCount)
		assert.True(t, IsValidation(err))
	})
}

func TestWeekDateRange(t *testing.T) {
	for _, year := range []int{2020, 2024, 2025, 2026, 2027} {
		prevMonday := time.Time{}
		for week := 1; week <= WeeksInYear(year); week++ {
			monday, sunday, err := WeekDateRange(year, week)
			require.NoError(t, err)

			assert.Equal(t, time.Monday, monday.Weekday())
			assert.Equal(t, time.Sunday, sunday.Weekday())
			assert.Equal(t, 6*24*time.Hour, sunday.Sub(monday))

			y, w := ISOWeek(monday)
			assert.Equal(t, year, y)
			assert.Equal(t, week, w)

			if !prevMonday.IsZero() {
				assert.Equal(t, 7*24*time.Hour, monday.Sub(prevMonday))
			}
			prevMonday = monday
		}
	}

	t.Run("OutOfRange", func(t *testing.T) {
		_, _, err := WeekDateRange(2026, 0)
		assert.ErrorIs(t, err, ErrInvalidWeek)
		_, _, err = WeekDateRange(2025, 53)
		assert.ErrorIs(t, err, ErrInvalidWeek)
	})
}

func TestWeeksInYear(t *testing.T) {
	assert.Equal(t, 53, WeeksInYear(2020))
	assert.Equal(t, 52, WeeksInYear(2025))
	assert.Equal(t, 53, WeeksInYear(2026))
}

func TestISOWeekYearBoundary(t *testing.T) {
	year, week := ISOWeek(time.Date(2025, time.December, 29, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2026, year)
	assert.Equal(t, 1, week)
}

func TestDateForDayOfWeek(t *testing.T) {
	monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, monday, DateForDayOfWeek(monday, time.Monday))
	assert.Equal(t, monday.AddDate(0, 0, 6), DateForDayOfWeek(monday, time.Sunday))
	assert.Equal(t, monday.AddDate(0, 0, 5), DateForDayOfWeek(monday, time.Saturday))
}

func TestMapMealName(t *testing.T) {
	cases := map[string]Meal{
		"mittag":      MealLunch,
		"Mittagessen": MealLunch,
		" abend ":     MealDinner,
		"abendessen":  MealDinner,
		"abendbrot":   MealDinner,
		"lunch":       MealLunch,
		"brunch":      Meal("brunch"),
	}
	for in, want := range cases {
		assert.Equal(t, want, MapMealName(in), in)
	}

	_, err := ParseMeal("brunch")
	assert.ErrorIs(t, err, ErrInvalidMeal)

	c, err := ParseCourse("Main2")
	require.NoError(t, err)
	assert.Equal(t, CourseMain2, c)
}
