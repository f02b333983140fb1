package analysis

import (
	"testing"
	"time"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AnalysisTestSuite struct {
	suite.Suite
	loc      uuid.UUID
	template *rotation.Template
	recipes  map[recipe.ID]*recipe.Recipe
	engine   *Engine
}

func (s *AnalysisTestSuite) SetupTest() {
	s.loc = uuid.New()
	tpl, err := rotation.NewTemplate("Test", 2, s.loc)
	require.NoError(s.T(), err)
	s.template = tpl

	s.recipes = map[recipe.ID]*recipe.Recipe{
		1: {ID: 1, Name: "Pea soup", Category: "soup", Portions: 4, Season: recipe.SeasonWinter, Allergens: []string{"celery"}},
		2: {ID: 2, Name: "Schnitzel", Category: "main", Portions: 4, Season: recipe.SeasonAll, Allergens: []string{"gluten", "egg"}},
		3: {ID: 3, Name: "Strawberry cream", Category: "dessert", Portions: 4, Season: recipe.SeasonSummer, Allergens: []string{"milk"}},
	}

	january := time.Date(2026, time.January, 14, 12, 0, 0, 0, time.UTC)
	s.engine = NewEngine(DefaultConfig(), func() time.Time { return january })
}

func (s *AnalysisTestSuite) slot(week int, day time.Weekday, course rotation.Course, id recipe.ID) rotation.Slot {
	return rotation.NewSlot(rotation.SlotKey{
		TemplateID: s.template.ID(),
		WeekNr:     week,
		Day:        day,
		Meal:       rotation.MealLunch,
		Course:     course,
		LocationID: s.loc,
	}, id)
}

func (s *AnalysisTestSuite) TestEmptyGrid() {
	b := s.engine.Analyze(s.template, nil, s.recipes)

	assert.Equal(s.T(), 0, b.FillPercentage)
	assert.Equal(s.T(), 100, b.VarietyScore)
	assert.Equal(s.T(), 100, b.SeasonalFit)
	assert.Equal(s.T(), map[int]int{1: 0, 2: 0}, b.DuplicatesPerWeek)
	assert.Empty(s.T(), b.RecipesUsedMultipleTimes)
	assert.Len(s.T(), b.WeeklyBalance, 2)
	assert.Equal(s.T(), recipe.SeasonWinter, b.Season)
}

func (s *AnalysisTestSuite) TestMetrics() {
	slots := []rotation.Slot{
		s.slot(1, time.Monday, rotation.CourseSoup, 1),
		s.slot(1, time.Tuesday, rotation.CourseSoup, 1),
		s.slot(1, time.Monday, rotation.CourseMain1, 2),
		s.slot(2, time.Monday, rotation.CourseDessert, 3),
	}
	before := append([]rotation.Slot(nil), slots...)

	b := s.engine.Analyze(s.template, slots, s.recipes)

	assert.Equal(s.T(), before, slots, "input must not be mutated")
	assert.Equal(s.T(), 4, b.FilledSlots)
	assert.Equal(s.T(), 2*7*2*8, b.TotalSlots)
	assert.Equal(s.T(), rotation.Percent(4, 224), b.FillPercentage)
	assert.Equal(s.T(), map[int]int{1: 1, 2: 0}, b.DuplicatesPerWeek)

	require.Len(s.T(), b.RecipesUsedMultipleTimes, 1)
	assert.Equal(s.T(), RecipeUsage{RecipeID: 1, RecipeName: "Pea soup", Count: 2}, b.RecipesUsedMultipleTimes[0])

	assert.Equal(s.T(), map[string]int{"soup": 2, "main": 1, "dessert": 1}, b.CategoryDistribution)
	assert.Equal(s.T(), map[string]int{"celery": 2, "gluten": 1, "egg": 1, "milk": 1}, b.AllergenCoverage)
	assert.Equal(s.T(), map[int][]string{1: {"celery"}, 2: {"milk"}}, b.AllergenHotspots)

	assert.Equal(s.T(), []WeekBalance{{WeekNr: 1, Filled: 3, Total: 112}, {WeekNr: 2, Filled: 1, Total: 112}}, b.WeeklyBalance)

	// winter: 100 + 100 + 75 + 0 over four slots
	assert.Equal(s.T(), 69, b.SeasonalFit)

	// one in-week duplicate over four filled slots
	assert.Equal(s.T(), 75, b.VarietyScore)
}

func (s *AnalysisTestSuite) TestDuplicatesAreCountedPerLocation() {
	other := uuid.New()
	tpl, err := rotation.NewTemplate("Two sites", 1, s.loc, other)
	require.NoError(s.T(), err)

	at := func(loc uuid.UUID, day time.Weekday) rotation.Slot {
		return rotation.NewSlot(rotation.SlotKey{
			TemplateID: tpl.ID(), WeekNr: 1, Day: day,
			Meal: rotation.MealLunch, Course: rotation.CourseSoup, LocationID: loc,
		}, 1)
	}

	// the same soup at both sites on Monday is no repeat for either site
	b := s.engine.Analyze(tpl, []rotation.Slot{at(s.loc, time.Monday), at(other, time.Monday)}, s.recipes)
	assert.Equal(s.T(), map[int]int{1: 0}, b.DuplicatesPerWeek)

	b = s.engine.Analyze(tpl, []rotation.Slot{at(s.loc, time.Monday), at(other, time.Monday), at(other, time.Friday)}, s.recipes)
	assert.Equal(s.T(), map[int]int{1: 1}, b.DuplicatesPerWeek)
}

func (s *AnalysisTestSuite) TestWindowRepeatsPenaliseHalf() {
	slots := []rotation.Slot{
		s.slot(1, time.Monday, rotation.CourseMain1, 2),
		s.slot(2, time.Monday, rotation.CourseMain1, 2),
	}
	b := s.engine.Analyze(s.template, slots, s.recipes)

	// week 2 repeats week 1 and, cyclically, week 1 repeats week 2
	assert.Equal(s.T(), 50, b.VarietyScore)
	assert.Equal(s.T(), map[int]int{1: 0, 2: 0}, b.DuplicatesPerWeek)
}

func (s *AnalysisTestSuite) TestSouthernHemisphere() {
	cfg := DefaultConfig()
	cfg.Hemisphere = recipe.HemisphereSouth
	january := time.Date(2026, time.January, 14, 0, 0, 0, 0, time.UTC)
	e := NewEngine(cfg, func() time.Time { return january })

	b := e.Analyze(s.template, []rotation.Slot{s.slot(1, time.Friday, rotation.CourseDessert, 3)}, s.recipes)
	assert.Equal(s.T(), recipe.SeasonSummer, b.Season)
	assert.Equal(s.T(), 100, b.SeasonalFit)
}

func (s *AnalysisTestSuite) TestUnknownRecipeMetadata() {
	b := s.engine.Analyze(s.template, []rotation.Slot{s.slot(1, time.Monday, rotation.CourseSoup, 42)}, s.recipes)
	assert.Equal(s.T(), map[string]int{recipe.UncategorizedCategory: 1}, b.CategoryDistribution)
	assert.Equal(s.T(), 75, b.SeasonalFit)
}

func TestAnalysisTestSuite(t *testing.T) {
	suite.Run(t, new(AnalysisTestSuite))
}

func TestMeasure(t *testing.T) {
	loc := uuid.New()
	tpl, err := rotation.NewTemplate("Measure", 1, loc)
	require.NoError(t, err)

	key := func(course rotation.Course) rotation.SlotKey {
		return rotation.SlotKey{TemplateID: tpl.ID(), WeekNr: 1, Day: time.Monday, Meal: rotation.MealDinner, Course: course, LocationID: loc}
	}
	recipes := map[recipe.ID]*recipe.Recipe{
		1: {ID: 1, Name: "a", Portions: 1, CostPerPortion: 2},
		2: {ID: 2, Name: "b", Portions: 1, CostPerPortion: 4},
	}
	slots := []rotation.Slot{
		rotation.NewSlot(key(rotation.CourseSoup), 1),
		rotation.NewSlot(key(rotation.CourseMain1), 1),
		rotation.NewSlot(key(rotation.CourseMain2), 2),
	}

	m := NewEngine(DefaultConfig(), nil).Measure(tpl, slots, recipes)
	assert.InDelta(t, 100-100.0/3, m.Variety, 1e-9)
	assert.InDelta(t, 75, m.SeasonalFit, 1e-9)
	assert.InDelta(t, 8.0/3, m.AverageCost, 1e-9)

	empty := NewEngine(DefaultConfig(), nil).Measure(tpl, nil, recipes)
	assert.Equal(t, Metrics{Variety: 100, SeasonalFit: 100}, empty)
}
