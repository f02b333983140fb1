package rotation

import (
	"fmt"
	"strings"
	"time"
)

// ISOWeek returns the ISO-8601 year and week number of date. The week is
// the one containing the date's Thursday, so Dec 29 can belong to week 1 of
// the following year.
func ISOWeek(date time.Time) (year, week int) {
	return date.ISOWeek()
}

// WeeksInYear returns 52 or 53, the number of ISO weeks in year
func WeeksInYear(year int) int {
	// Dec 28 always falls in the last ISO week of its year.
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// WeekDateRange returns the Monday and Sunday (UTC midnight) of ISO week
// week in year.
func WeekDateRange(year, week int) (monday, sunday time.Time, err error) {
	if week < 1 || week > WeeksInYear(year) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: week %d of %d", ErrInvalidWeek, week, year)
	}

	// Jan 4 is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday = jan4.AddDate(0, 0, -offset+(week-1)*7)
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday, nil
}

// DateForDayOfWeek resolves a 0=Sunday day index against the Monday that
// starts the week. Sunday is the last day of the week.
func DateForDayOfWeek(monday time.Time, day time.Weekday) time.Time {
	if day == time.Sunday {
		return monday.AddDate(0, 0, 6)
	}
	return monday.AddDate(0, 0, int(day)-1)
}

// RotationWeekNr folds a calendar ISO week onto a rotation of cycleLength
// weeks. The result is always in [1, cycleLength].
func RotationWeekNr(calendarWeek, cycleLength int) (int, error) {
	if calendarWeek < 1 {
		return 0, fmt.Errorf("%w: calendar week %d", ErrInvalidWeek, calendarWeek)
	}
	if cycleLength < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWeekCount, cycleLength)
	}
	return ((calendarWeek - 1) % cycleLength) + 1, nil
}

var mealAliases = map[string]Meal{
	"mittag":      MealLunch,
	"mittagessen": MealLunch,
	"abend":       MealDinner,
	"abendessen":  MealDinner,
	"abendbrot":   MealDinner,
	"lunch":       MealLunch,
	"dinner":      MealDinner,
}

// MapMealName translates the alternate meal vocabulary to canonical meal
// codes. Unknown codes are returned unchanged; this is a compatibility shim,
// not a validator.
func MapMealName(code string) Meal {
	if m, ok := mealAliases[strings.ToLower(strings.TrimSpace(code))]; ok {
		return m
	}
	return Meal(code)
}
