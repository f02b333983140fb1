package gorm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
	"github.com/alchemorsel/kitchenops/internal/testutils"
)

type RepositoryTestSuite struct {
	suite.Suite
	ctx       context.Context
	db        *gorm.DB
	recipes   outbound.RecipeRepository
	links     outbound.SubRecipeLinkRepository
	slots     outbound.SlotRepository
	templates outbound.TemplateRepository
	template  *rotation.Template
}

func (s *RepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(s.T(), err)
	require.NoError(s.T(), db.AutoMigrate(AllModels()...))
	s.db = db

	s.recipes = NewRecipeRepository(db)
	s.links = NewSubRecipeLinkRepository(db)
	s.slots = NewSlotRepository(db)
	s.templates = NewTemplateRepository(db)

	s.template = testutils.NewTemplate(2, 2)
	require.NoError(s.T(), s.templates.Create(s.ctx, s.template))

	factory := testutils.NewRecipeFactory(3)
	for _, r := range factory.Recipes(3) {
		r.ID = recipe.None
		require.NoError(s.T(), s.recipes.Create(s.ctx, r))
	}
}

func (s *RepositoryTestSuite) TearDownTest() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (s *RepositoryTestSuite) key(day time.Weekday) rotation.SlotKey {
	return testutils.SlotKey(s.template, 1, day, rotation.MealLunch, rotation.CourseMain1)
}

func (s *RepositoryTestSuite) TestRecipes() {
	s.Run("Create_AssignsSequentialIDs", func() {
		all, err := s.recipes.List(s.ctx)
		require.NoError(s.T(), err)
		require.Len(s.T(), all, 3)
		assert.Equal(s.T(), recipe.ID(1), all[0].ID)
		assert.NotEmpty(s.T(), all[0].Ingredients)
	})

	s.Run("FindByID_Unknown_ShouldFail", func() {
		_, err := s.recipes.FindByID(s.ctx, 42)
		assert.ErrorIs(s.T(), err, recipe.ErrRecipeNotFound)
	})

	s.Run("FindByIDs_SkipsUnknown", func() {
		found, err := s.recipes.FindByIDs(s.ctx, []recipe.ID{1, 3, 42})
		require.NoError(s.T(), err)
		assert.Len(s.T(), found, 2)
		assert.Contains(s.T(), found, recipe.ID(3))
	})
}

func (s *RepositoryTestSuite) TestLinksUpsert() {
	require.NoError(s.T(), s.links.Create(s.ctx, recipe.SubRecipeLink{ParentID: 1, ChildID: 2, PortionMultiplier: 0.5}))
	require.NoError(s.T(), s.links.Create(s.ctx, recipe.SubRecipeLink{ParentID: 1, ChildID: 2, PortionMultiplier: 2}))

	links, err := s.links.ListByParent(s.ctx, 1)
	require.NoError(s.T(), err)
	require.Len(s.T(), links, 1)
	assert.Equal(s.T(), 2.0, links[0].PortionMultiplier)
}

func (s *RepositoryTestSuite) TestTemplateRoundTrip() {
	extra := uuid.New()
	require.NoError(s.T(), s.template.AddLocation(extra))
	require.NoError(s.T(), s.templates.Update(s.ctx, s.template))

	loaded, err := s.templates.FindByID(s.ctx, s.template.ID())
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.template.Locations(), loaded.Locations())
	assert.Equal(s.T(), 2, loaded.WeekCount())

	_, err = s.templates.FindByID(s.ctx, uuid.New())
	assert.ErrorIs(s.T(), err, rotation.ErrTemplateNotFound)
}

func (s *RepositoryTestSuite) TestSlots() {
	monday, friday := s.key(time.Monday), s.key(time.Friday)

	s.Run("Get_Empty_ReturnsNil", func() {
		slot, err := s.slots.Get(s.ctx, monday)
		require.NoError(s.T(), err)
		assert.Nil(s.T(), slot)
	})

	s.Run("Put_Upserts", func() {
		require.NoError(s.T(), s.slots.Put(s.ctx, rotation.Slot{Key: monday, RecipeID: 1, Portions: 40}))
		require.NoError(s.T(), s.slots.Put(s.ctx, rotation.Slot{Key: monday, RecipeID: 2, Portions: 45}))

		slot, err := s.slots.Get(s.ctx, monday)
		require.NoError(s.T(), err)
		require.NotNil(s.T(), slot)
		assert.Equal(s.T(), recipe.ID(2), slot.RecipeID)
		assert.Equal(s.T(), 45, slot.Portions)
	})

	s.Run("List_OrdersMondayFirst", func() {
		sunday := s.key(time.Sunday)
		require.NoError(s.T(), s.slots.Put(s.ctx, rotation.NewSlot(sunday, 3)))
		require.NoError(s.T(), s.slots.Put(s.ctx, rotation.NewSlot(friday, 3)))

		week, err := s.slots.ListByWeek(s.ctx, s.template.ID(), 1)
		require.NoError(s.T(), err)
		require.Len(s.T(), week, 3)
		assert.Equal(s.T(), time.Monday, week[0].Key.Day)
		assert.Equal(s.T(), time.Sunday, week[2].Key.Day)

		n, err := s.slots.CountByLocation(s.ctx, s.template.ID(), monday.LocationID)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), 3, n)
	})

	s.Run("Delete_Clears", func() {
		require.NoError(s.T(), s.slots.Delete(s.ctx, friday))
		slot, err := s.slots.Get(s.ctx, friday)
		require.NoError(s.T(), err)
		assert.Nil(s.T(), slot)
	})
}

func (s *RepositoryTestSuite) TestCompareAndSwapRecipe() {
	key := s.key(time.Wednesday)
	require.NoError(s.T(), s.slots.Put(s.ctx, rotation.Slot{Key: key, RecipeID: 1, Portions: 30}))

	s.Run("MatchingExpected_Swaps", func() {
		ok, err := s.slots.CompareAndSwapRecipe(s.ctx, key, 1, 2)
		require.NoError(s.T(), err)
		assert.True(s.T(), ok)

		slot, err := s.slots.Get(s.ctx, key)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), recipe.ID(2), slot.RecipeID)
		assert.Equal(s.T(), 30, slot.Portions)
	})

	s.Run("StaleExpected_LeavesRow", func() {
		ok, err := s.slots.CompareAndSwapRecipe(s.ctx, key, 1, 3)
		require.NoError(s.T(), err)
		assert.False(s.T(), ok)

		slot, err := s.slots.Get(s.ctx, key)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), recipe.ID(2), slot.RecipeID)
	})

	s.Run("EmptySlot_ClaimedOnce", func() {
		empty := s.key(time.Thursday)
		ok, err := s.slots.CompareAndSwapRecipe(s.ctx, empty, recipe.None, 3)
		require.NoError(s.T(), err)
		assert.True(s.T(), ok)

		ok, err = s.slots.CompareAndSwapRecipe(s.ctx, empty, recipe.None, 1)
		require.NoError(s.T(), err)
		assert.False(s.T(), ok)

		slot, err := s.slots.Get(s.ctx, empty)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), recipe.ID(3), slot.RecipeID)
		assert.Equal(s.T(), 1, slot.Portions)
	})
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
