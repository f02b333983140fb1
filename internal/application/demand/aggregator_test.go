package demand

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/kitchenops/internal/domain/composition"
	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/domain/scaling"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/kitchenops/internal/testutils"
)

func setup(t *testing.T) (*memory.Store, *Aggregator, *rotation.Template) {
	t.Helper()
	store := memory.NewStore()
	scaler, err := scaling.NewEngine(scaling.DefaultCurve())
	require.NoError(t, err)
	return store, NewAggregator(store.Recipes(), store.Links(), scaler), testutils.NewTemplate(1, 1)
}

func TestForSlots(t *testing.T) {
	ctx := context.Background()
	store, agg, tpl := setup(t)

	require.NoError(t, store.Recipes().Create(ctx, &recipe.Recipe{
		ID: 1, Name: "Dumplings", Portions: 4,
		Ingredients: []recipe.Ingredient{{Name: "Flour", Quantity: 100, Unit: "g"}},
	}))
	require.NoError(t, store.Recipes().Create(ctx, &recipe.Recipe{
		ID: 2, Name: "Goulash", Portions: 10,
		Ingredients: []recipe.Ingredient{{Name: "beef", Quantity: 1500, Unit: "g"}, {Name: "flour", Quantity: 50, Unit: "g"}},
	}))
	require.NoError(t, store.Links().Create(ctx, recipe.SubRecipeLink{ParentID: 2, ChildID: 1, PortionMultiplier: 1}))

	slots := []rotation.Slot{
		{Key: testutils.SlotKey(tpl, 1, time.Monday, rotation.MealLunch, rotation.CourseMain1), RecipeID: 2, Portions: 40},
		{Key: testutils.SlotKey(tpl, 1, time.Monday, rotation.MealLunch, rotation.CourseSoup), RecipeID: recipe.None, Portions: 1},
	}

	lines, err := agg.ForSlots(ctx, slots)
	require.NoError(t, err)

	assert.Equal(t, []Line{
		{Name: "beef", Unit: "g", Quantity: 6000},
		{Name: "flour", Unit: "g", Quantity: 1200},
	}, lines)
}

func TestForSlotsRejectsCycles(t *testing.T) {
	ctx := context.Background()
	store, agg, tpl := setup(t)

	for _, id := range []recipe.ID{1, 2} {
		require.NoError(t, store.Recipes().Create(ctx, &recipe.Recipe{ID: id, Name: "r", Portions: 1}))
	}
	require.NoError(t, store.Links().Create(ctx, recipe.SubRecipeLink{ParentID: 1, ChildID: 2, PortionMultiplier: 1}))
	require.NoError(t, store.Links().Create(ctx, recipe.SubRecipeLink{ParentID: 2, ChildID: 1, PortionMultiplier: 1}))

	_, err := agg.ForSlots(ctx, []rotation.Slot{rotation.NewSlot(testutils.SlotKey(tpl, 1, time.Friday, rotation.MealDinner, rotation.CourseMain2), 1)})
	assert.ErrorIs(t, err, composition.ErrCycleRejected)
}

func TestForSlotsUnknownRecipe(t *testing.T) {
	_, agg, tpl := setup(t)
	_, err := agg.ForSlots(context.Background(), []rotation.Slot{rotation.NewSlot(testutils.SlotKey(tpl, 1, time.Friday, rotation.MealDinner, rotation.CourseMain2), 9)})
	assert.ErrorIs(t, err, recipe.ErrRecipeNotFound)
}
