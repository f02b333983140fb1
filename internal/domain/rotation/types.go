// Package rotation models the cyclic menu rotation: an N-week grid of meal
// slots that repeats over the calendar, plus the calendar arithmetic that
// folds ISO weeks onto it.
package rotation

import (
	"fmt"
	"strings"
	"time"
)

// Meal is a canonical meal code
type Meal string

const (
	MealLunch  Meal = "lunch"
	MealDinner Meal = "dinner"
)

// Meals lists the canonical meals in serving order
var Meals = []Meal{MealLunch, MealDinner}

// Valid reports whether m is a canonical meal
func (m Meal) Valid() bool {
	return m == MealLunch || m == MealDinner
}

// Index returns the serving order of the meal, or -1
func (m Meal) Index() int {
	for i, candidate := range Meals {
		if candidate == m {
			return i
		}
	}
	return -1
}

// Course is a menu position within a meal
type Course string

const (
	CourseSoup    Course = "soup"
	CourseMain1   Course = "main1"
	CourseSide1a  Course = "side1a"
	CourseSide1b  Course = "side1b"
	CourseMain2   Course = "main2"
	CourseSide2a  Course = "side2a"
	CourseSide2b  Course = "side2b"
	CourseDessert Course = "dessert"
)

// Courses lists every course in menu order
var Courses = []Course{
	CourseSoup,
	CourseMain1, CourseSide1a, CourseSide1b,
	CourseMain2, CourseSide2a, CourseSide2b,
	CourseDessert,
}

// Valid reports whether c is a known course
func (c Course) Valid() bool {
	return c.Index() >= 0
}

// Index returns the menu position of the course, or -1
func (c Course) Index() int {
	for i, candidate := range Courses {
		if candidate == c {
			return i
		}
	}
	return -1
}

// DaysPerWeek is the number of days in a rotation week
const DaysPerWeek = 7

// SlotsPerLocationWeek is the number of addressable slots one location has
// in one rotation week.
var SlotsPerLocationWeek = DaysPerWeek * len(Meals) * len(Courses)

// ValidDay reports whether d is in 0..6 (0 = Sunday)
func ValidDay(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday
}

// ParseMeal maps an incoming meal code to a canonical meal and validates it
func ParseMeal(code string) (Meal, error) {
	m := MapMealName(code)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMeal, code)
	}
	return m, nil
}

// ParseCourse validates a course code
func ParseCourse(code string) (Course, error) {
	c := Course(strings.ToLower(strings.TrimSpace(code)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCourse, code)
	}
	return c, nil
}
