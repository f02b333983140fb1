package optimization

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/alchemorsel/kitchenops/internal/application/analysis"
	"github.com/alchemorsel/kitchenops/internal/domain/composition"
	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
	"github.com/alchemorsel/kitchenops/internal/testutils"
)

// racingSlots simulates a concurrent writer that changes the slot between
// the engine's read and its compare-and-swap.
type racingSlots struct {
	*memory.SlotRepository
	interloper recipe.ID
}

func (r *racingSlots) CompareAndSwapRecipe(ctx context.Context, key rotation.SlotKey, expected, next recipe.ID) (bool, error) {
	if err := r.SlotRepository.Put(ctx, rotation.NewSlot(key, r.interloper)); err != nil {
		return false, err
	}
	return r.SlotRepository.CompareAndSwapRecipe(ctx, key, expected, next)
}

type failingComposition struct{ err error }

func (f failingComposition) ReachesCycle(ctx context.Context, root recipe.ID) (bool, error) {
	return false, f.err
}

type OptimizationTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	template *rotation.Template
	analyzer *analysis.Engine
	engine   *Engine
	monday   rotation.SlotKey
	tuesday  rotation.SlotKey
}

func (s *OptimizationTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.template = testutils.NewTemplate(1, 1)
	require.NoError(s.T(), s.store.Templates().Create(s.ctx, s.template))

	factory := testutils.NewRecipeFactory(42)
	for _, r := range []*recipe.Recipe{
		factory.Recipe(testutils.WithCategory("soup"), testutils.WithSeason(recipe.SeasonWinter), testutils.WithCost(3)),
		factory.Recipe(testutils.WithCategory("soup"), testutils.WithSeason(recipe.SeasonSummer), testutils.WithCost(2)),
		factory.Recipe(testutils.WithCategory("soup"), testutils.WithSeason(recipe.SeasonAll), testutils.WithCost(1)),
		factory.Recipe(testutils.WithCategory("main"), testutils.WithSeason(recipe.SeasonAll), testutils.WithCost(5)),
	} {
		require.NoError(s.T(), s.store.Recipes().Create(s.ctx, r))
	}

	s.monday = testutils.SlotKey(s.template, 1, time.Monday, rotation.MealLunch, rotation.CourseSoup)
	s.tuesday = testutils.SlotKey(s.template, 1, time.Tuesday, rotation.MealLunch, rotation.CourseSoup)
	require.NoError(s.T(), s.store.Slots().Put(s.ctx, rotation.NewSlot(s.monday, 1)))
	require.NoError(s.T(), s.store.Slots().Put(s.ctx, rotation.Slot{Key: s.tuesday, RecipeID: 1, Portions: 80}))

	january := time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)
	s.analyzer = analysis.NewEngine(analysis.DefaultConfig(), func() time.Time { return january })
	s.engine = s.newEngine(s.store.Slots(), nil)
}

func (s *OptimizationTestSuite) newEngine(slots outbound.SlotRepository, provider outbound.SuggestionProvider) *Engine {
	graph := composition.NewGraph(s.store.Links())
	return NewEngine(slots, s.store.Recipes(), graph, provider, s.analyzer, Config{MaxProposals: 5}, zap.NewNop())
}

func (s *OptimizationTestSuite) grid() []rotation.Slot {
	slots, err := s.store.Slots().ListByTemplate(s.ctx, s.template.ID())
	require.NoError(s.T(), err)
	return slots
}

func (s *OptimizationTestSuite) swap(day time.Weekday, current, suggested recipe.ID) rotation.SuggestedSwap {
	return rotation.SuggestedSwap{
		WeekNr:            1,
		Day:               day,
		Meal:              rotation.MealLunch,
		Course:            rotation.CourseSoup,
		CurrentRecipeID:   current,
		SuggestedRecipeID: suggested,
	}
}

func (s *OptimizationTestSuite) TestProposeVarietyDoesNotMutate() {
	before := s.grid()

	p, err := s.engine.Propose(s.ctx, s.template, Focus{Variety: true}, nil)
	require.NoError(s.T(), err)

	require.Len(s.T(), p.Swaps, 1)
	got := p.Swaps[0]
	assert.Equal(s.T(), time.Tuesday, got.Day)
	assert.Equal(s.T(), recipe.ID(1), got.CurrentRecipeID)
	assert.Equal(s.T(), recipe.ID(2), got.SuggestedRecipeID)
	assert.Equal(s.T(), s.template.Locations()[0], got.LocationID)
	assert.Greater(s.T(), got.Score, 0.0)
	assert.InDelta(s.T(), 50, p.Before.Variety, 1e-9)
	assert.InDelta(s.T(), 100, p.After.Variety, 1e-9)
	assert.NotEmpty(s.T(), p.Summary)

	assert.Equal(s.T(), before, s.grid())
}

func (s *OptimizationTestSuite) TestProposeFiltersExternalCandidates() {
	bad := s.swap(time.Monday, 1, 3)
	bad.WeekNr = 4

	candidates := []rotation.SuggestedSwap{
		s.swap(time.Tuesday, 1, 3),   // valid
		s.swap(time.Tuesday, 1, 2),   // valid, same slot as above
		s.swap(time.Monday, 2, 3),    // stale: monday holds 1
		s.swap(time.Monday, 1, 99),   // unknown recipe
		bad,                          // outside the rotation
		s.swap(time.Wednesday, 0, 1), // a third serving of recipe 1 lowers variety
	}

	p, err := s.engine.Propose(s.ctx, s.template, Focus{Variety: true}, candidates)
	require.NoError(s.T(), err)

	// valid external candidates are kept even when they do not improve
	require.Len(s.T(), p.Swaps, 2)
	assert.Equal(s.T(), time.Tuesday, p.Swaps[0].Day)
	assert.Greater(s.T(), p.Swaps[0].Score, 0.0)
	assert.Equal(s.T(), time.Wednesday, p.Swaps[1].Day)
	assert.LessOrEqual(s.T(), p.Swaps[1].Score, 0.0)
	assert.Equal(s.T(), 3, p.Rejected)
	assert.Contains(s.T(), p.Summary, "3 candidate(s) rejected")

	seen := map[time.Weekday]bool{}
	for _, sw := range p.Swaps {
		assert.False(s.T(), seen[sw.Day], "slot targeted twice")
		seen[sw.Day] = true
	}
}

func (s *OptimizationTestSuite) TestProposeUsesProvider() {
	provider := new(testutils.MockSuggestionProvider)
	provider.On("Suggest", mock.Anything, mock.MatchedBy(func(req outbound.SuggestionRequest) bool {
		return req.Season == recipe.SeasonWinter && req.Cost && !req.Variety && len(req.Slots) == 2
	})).Return([]rotation.SuggestedSwap{s.swap(time.Monday, 1, 3)}, nil).Once()

	p, err := s.newEngine(s.store.Slots(), provider).Propose(s.ctx, s.template, Focus{Cost: true}, nil)
	require.NoError(s.T(), err)
	require.Len(s.T(), p.Swaps, 1)
	assert.Equal(s.T(), recipe.ID(3), p.Swaps[0].SuggestedRecipeID)
	provider.AssertExpectations(s.T())
}

func (s *OptimizationTestSuite) TestProposeSkipsCyclicRecipes() {
	require.NoError(s.T(), s.store.Links().Create(s.ctx, recipe.SubRecipeLink{ParentID: 2, ChildID: 4, PortionMultiplier: 1}))
	require.NoError(s.T(), s.store.Links().Create(s.ctx, recipe.SubRecipeLink{ParentID: 4, ChildID: 2, PortionMultiplier: 1}))

	p, err := s.engine.Propose(s.ctx, s.template, Focus{Variety: true}, []rotation.SuggestedSwap{s.swap(time.Tuesday, 1, 2)})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), p.Swaps)
}

func (s *OptimizationTestSuite) TestProposeDropsNonImprovingProviderCandidates() {
	provider := new(testutils.MockSuggestionProvider)
	provider.On("Suggest", mock.Anything, mock.Anything).
		Return([]rotation.SuggestedSwap{s.swap(time.Wednesday, 0, 1)}, nil).Once()

	p, err := s.newEngine(s.store.Slots(), provider).Propose(s.ctx, s.template, Focus{Variety: true}, nil)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), p.Swaps)
	assert.Zero(s.T(), p.Rejected)
}

func (s *OptimizationTestSuite) TestProposeReturnsCompositionErrors() {
	engine := NewEngine(s.store.Slots(), s.store.Recipes(), failingComposition{err: composition.ErrTraversalBudget},
		nil, s.analyzer, Config{}, zap.NewNop())

	p, err := engine.Propose(s.ctx, s.template, Focus{Variety: true}, []rotation.SuggestedSwap{s.swap(time.Tuesday, 1, 2)})
	assert.Nil(s.T(), p)
	assert.ErrorIs(s.T(), err, composition.ErrTraversalBudget)
}

func (s *OptimizationTestSuite) TestProposeCapsResults() {
	engine := NewEngine(s.store.Slots(), s.store.Recipes(), composition.NewGraph(s.store.Links()), nil, s.analyzer, Config{MaxProposals: 1}, zap.NewNop())
	p, err := engine.Propose(s.ctx, s.template, Focus{}, []rotation.SuggestedSwap{
		s.swap(time.Tuesday, 1, 3),
		s.swap(time.Monday, 1, 3),
	})
	require.NoError(s.T(), err)
	assert.Len(s.T(), p.Swaps, 1)
}

func (s *OptimizationTestSuite) TestApply() {
	applied, err := s.engine.Apply(s.ctx, s.template, s.swap(time.Tuesday, 1, 3))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.tuesday, applied.Key)

	slot, err := s.store.Slots().Get(s.ctx, s.tuesday)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), recipe.ID(3), slot.RecipeID)
	assert.Equal(s.T(), 80, slot.Portions)
}

func (s *OptimizationTestSuite) TestApplyFillsFirstMatchingLocation() {
	applied, err := s.engine.Apply(s.ctx, s.template, s.swap(time.Friday, recipe.None, 4))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.template.Locations()[0], applied.Key.LocationID)

	slot, err := s.store.Slots().Get(s.ctx, applied.Key)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, slot.Portions)
}

func (s *OptimizationTestSuite) TestApplyStale() {
	require.NoError(s.T(), s.store.Slots().Put(s.ctx, rotation.NewSlot(s.tuesday, 2)))
	before := s.grid()

	_, err := s.engine.Apply(s.ctx, s.template, s.swap(time.Tuesday, 1, 3))
	assert.ErrorIs(s.T(), err, rotation.ErrStaleProposal)
	assert.True(s.T(), IsStale(err))
	assert.Equal(s.T(), before, s.grid())
}

func (s *OptimizationTestSuite) TestApplyLosesRace() {
	racing := &racingSlots{SlotRepository: s.store.Slots(), interloper: 4}
	_, err := s.newEngine(racing, nil).Apply(s.ctx, s.template, s.swap(time.Tuesday, 1, 3))
	assert.ErrorIs(s.T(), err, rotation.ErrStaleProposal)

	slot, err := s.store.Slots().Get(s.ctx, s.tuesday)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), recipe.ID(4), slot.RecipeID, "the concurrent write wins")
}

func (s *OptimizationTestSuite) TestApplyCyclicRecipe() {
	require.NoError(s.T(), s.store.Links().Create(s.ctx, recipe.SubRecipeLink{ParentID: 3, ChildID: 3, PortionMultiplier: 1}))

	_, err := s.engine.Apply(s.ctx, s.template, s.swap(time.Tuesday, 1, 3))
	assert.ErrorIs(s.T(), err, composition.ErrCycleRejected)

	slot, err := s.store.Slots().Get(s.ctx, s.tuesday)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), recipe.ID(1), slot.RecipeID)
}

func (s *OptimizationTestSuite) TestApplyValidation() {
	swap := s.swap(time.Tuesday, 1, 1)
	_, err := s.engine.Apply(s.ctx, s.template, swap)
	assert.ErrorIs(s.T(), err, rotation.ErrInvalidSuggestion)

	_, err = s.engine.Apply(s.ctx, s.template, s.swap(time.Tuesday, 1, 99))
	assert.ErrorIs(s.T(), err, recipe.ErrRecipeNotFound)
}

func TestOptimizationTestSuite(t *testing.T) {
	suite.Run(t, new(OptimizationTestSuite))
}

func TestHeuristicProviderNeverTargetsSlotTwice(t *testing.T) {
	tpl := testutils.NewTemplate(1, 1)
	factory := testutils.NewRecipeFactory(7)
	recipes := []*recipe.Recipe{
		factory.Recipe(testutils.WithCategory("main"), testutils.WithSeason(recipe.SeasonSummer), testutils.WithCost(9)),
		factory.Recipe(testutils.WithCategory("main"), testutils.WithSeason(recipe.SeasonWinter), testutils.WithCost(1)),
		factory.Recipe(testutils.WithCategory("main"), testutils.WithSeason(recipe.SeasonAll), testutils.WithCost(2)),
	}
	var slots []rotation.Slot
	for _, day := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday} {
		slots = append(slots, rotation.NewSlot(testutils.SlotKey(tpl, 1, day, rotation.MealDinner, rotation.CourseMain1), 1))
	}

	swaps, err := NewHeuristicProvider().Suggest(context.Background(), outbound.SuggestionRequest{
		Template: tpl,
		Slots:    slots,
		Recipes:  recipes,
		Season:   recipe.SeasonWinter,
		Variety:  true,
		Seasonal: true,
		Cost:     true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, swaps)

	seen := map[time.Weekday]bool{}
	for _, sw := range swaps {
		assert.False(t, seen[sw.Day], "slot %v targeted twice", sw.Day)
		seen[sw.Day] = true
		assert.NotEqual(t, sw.CurrentRecipeID, sw.SuggestedRecipeID)
	}
}

func TestHeuristicProviderPicksReplacementsPerLocation(t *testing.T) {
	tpl := testutils.NewTemplate(1, 2)
	site, other := tpl.Locations()[0], tpl.Locations()[1]
	factory := testutils.NewRecipeFactory(11)
	recipes := factory.Recipes(3, testutils.WithCategory("main"), testutils.WithSeason(recipe.SeasonAll))
	for i, r := range recipes {
		r.ID = recipe.ID(i + 1)
	}

	at := func(loc uuid.UUID, day time.Weekday, id recipe.ID) rotation.Slot {
		key := testutils.SlotKey(tpl, 1, day, rotation.MealLunch, rotation.CourseMain1)
		key.LocationID = loc
		return rotation.NewSlot(key, id)
	}

	slots := []rotation.Slot{
		at(site, time.Monday, 1),
		at(site, time.Tuesday, 1),
		at(other, time.Monday, 2),
	}

	swaps, err := NewHeuristicProvider().Suggest(context.Background(), outbound.SuggestionRequest{
		Template: tpl,
		Slots:    slots,
		Recipes:  recipes,
		Variety:  true,
	})
	require.NoError(t, err)

	// recipe 2 is only served at the other site, so it is free here
	require.Len(t, swaps, 1)
	assert.Equal(t, time.Tuesday, swaps[0].Day)
	assert.Equal(t, site, swaps[0].LocationID)
	assert.Equal(t, recipe.ID(2), swaps[0].SuggestedRecipeID)
}
