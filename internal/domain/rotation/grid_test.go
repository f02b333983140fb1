package rotation

import (
	"testing"
	"time"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type GridTestSuite struct {
	suite.Suite
	kitchen  uuid.UUID
	canteen  uuid.UUID
	template *Template
}

func (s *GridTestSuite) SetupTest() {
	s.kitchen = uuid.New()
	s.canteen = uuid.New()
	tpl, err := NewTemplate("Spring cycle", 4, s.kitchen, s.canteen)
	require.NoError(s.T(), err)
	s.template = tpl
}

func (s *GridTestSuite) key(week int, day time.Weekday, course Course, loc uuid.UUID) SlotKey {
	return SlotKey{
		TemplateID: s.template.ID(),
		WeekNr:     week,
		Day:        day,
		Meal:       MealLunch,
		Course:     course,
		LocationID: loc,
	}
}

func (s *GridTestSuite) TestFillPercentageOverList() {
	ids := []recipe.ID{10, 20, recipe.None, recipe.None, 30}
	slots := make([]Slot, len(ids))
	for i, id := range ids {
		slots[i] = NewSlot(s.key(1, time.Monday, Courses[i], s.kitchen), id)
	}
	assert.Equal(s.T(), 60, FillPercentage(slots))
	assert.Equal(s.T(), 0, FillPercentage(nil))
}

func (s *GridTestSuite) TestTemplateTotals() {
	assert.Equal(s.T(), 4*7*2*8*2, s.template.TotalSlots())
	assert.Equal(s.T(), 7*2*8*2, s.template.SlotsPerWeek())
}

func (s *GridTestSuite) TestSetValidatesKeys() {
	g, err := NewGrid(s.template, nil)
	require.NoError(s.T(), err)

	bad := s.key(5, time.Monday, CourseSoup, s.kitchen)
	assert.ErrorIs(s.T(), g.Set(NewSlot(bad, 1)), ErrInvalidWeek)

	bad = s.key(1, time.Weekday(7), CourseSoup, s.kitchen)
	assert.ErrorIs(s.T(), g.Set(NewSlot(bad, 1)), ErrInvalidDay)

	bad = s.key(1, time.Monday, Course("starter"), s.kitchen)
	assert.ErrorIs(s.T(), g.Set(NewSlot(bad, 1)), ErrInvalidCourse)

	bad = s.key(1, time.Monday, CourseSoup, uuid.New())
	assert.ErrorIs(s.T(), g.Set(NewSlot(bad, 1)), ErrUnknownLocation)

	neg := NewSlot(s.key(1, time.Monday, CourseSoup, s.kitchen), 1)
	neg.Portions = -2
	assert.ErrorIs(s.T(), g.Set(neg), ErrInvalidPortions)

	assert.Equal(s.T(), 0, g.Filled())
}

func (s *GridTestSuite) TestSetGetClear() {
	g, err := NewGrid(s.template, nil)
	require.NoError(s.T(), err)

	k := s.key(2, time.Sunday, CourseDessert, s.canteen)
	require.NoError(s.T(), g.Set(Slot{Key: k, RecipeID: 7}))

	got, ok := g.Get(k)
	require.True(s.T(), ok)
	assert.Equal(s.T(), recipe.ID(7), got.RecipeID)
	assert.Equal(s.T(), 1, got.Portions)

	require.NoError(s.T(), g.Set(Slot{Key: k, RecipeID: recipe.None}))
	_, ok = g.Get(k)
	assert.False(s.T(), ok)
}

func (s *GridTestSuite) TestCloneIsIndependent() {
	k := s.key(1, time.Monday, CourseSoup, s.kitchen)
	g, err := NewGrid(s.template, []Slot{NewSlot(k, 3)})
	require.NoError(s.T(), err)

	c := g.Clone()
	c.Clear(k)

	assert.Equal(s.T(), 1, g.Filled())
	assert.Equal(s.T(), 0, c.Filled())
}

func (s *GridTestSuite) TestSlotsAreOrdered() {
	slots := []Slot{
		NewSlot(s.key(2, time.Monday, CourseSoup, s.kitchen), 1),
		NewSlot(s.key(1, time.Sunday, CourseSoup, s.kitchen), 2),
		NewSlot(s.key(1, time.Monday, CourseDessert, s.kitchen), 3),
		NewSlot(s.key(1, time.Monday, CourseSoup, s.kitchen), 4),
	}
	g, err := NewGrid(s.template, slots)
	require.NoError(s.T(), err)

	var got []recipe.ID
	for _, slot := range g.Slots() {
		got = append(got, slot.RecipeID)
	}
	assert.Equal(s.T(), []recipe.ID{4, 3, 2, 1}, got)
	assert.Len(s.T(), g.WeekSlots(1), 3)
}

func (s *GridTestSuite) TestLocateForSwap() {
	atKitchen := s.key(1, time.Tuesday, CourseMain1, s.kitchen)
	atCanteen := s.key(1, time.Tuesday, CourseMain1, s.canteen)
	g, err := NewGrid(s.template, []Slot{NewSlot(atKitchen, 10), NewSlot(atCanteen, 20)})
	require.NoError(s.T(), err)

	swap := SuggestedSwap{WeekNr: 1, Day: time.Tuesday, Meal: MealLunch, Course: CourseMain1, CurrentRecipeID: 20, SuggestedRecipeID: 30}

	key, ok := g.LocateForSwap(swap)
	require.True(s.T(), ok)
	assert.Equal(s.T(), atCanteen, key)

	swap.LocationID = s.kitchen
	_, ok = g.LocateForSwap(swap)
	assert.False(s.T(), ok)

	swap.CurrentRecipeID = 99
	swap.LocationID = uuid.Nil
	_, ok = g.LocateForSwap(swap)
	assert.False(s.T(), ok)
}

func (s *GridTestSuite) TestSwapValidate() {
	swap := SuggestedSwap{WeekNr: 1, Day: time.Monday, Meal: MealDinner, Course: CourseSoup, CurrentRecipeID: 1, SuggestedRecipeID: 2}
	assert.NoError(s.T(), swap.Validate(4))

	swap.SuggestedRecipeID = 1
	assert.ErrorIs(s.T(), swap.Validate(4), ErrInvalidSuggestion)

	swap.SuggestedRecipeID = 2
	swap.WeekNr = 9
	assert.ErrorIs(s.T(), swap.Validate(4), ErrInvalidWeek)
}

func TestGridTestSuite(t *testing.T) {
	suite.Run(t, new(GridTestSuite))
}
