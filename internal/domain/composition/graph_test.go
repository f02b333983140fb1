package composition

import (
	"context"
	"errors"
	"testing"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// linkMap is an in-memory LinkLister
type linkMap map[recipe.ID][]recipe.ID

func (m linkMap) ListByParent(_ context.Context, parent recipe.ID) ([]recipe.SubRecipeLink, error) {
	var out []recipe.SubRecipeLink
	for _, child := range m[parent] {
		out = append(out, recipe.SubRecipeLink{ParentID: parent, ChildID: child, PortionMultiplier: 1})
	}
	return out, nil
}

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListByParent(ctx context.Context, parent recipe.ID) ([]recipe.SubRecipeLink, error) {
	args := m.Called(ctx, parent)
	links, _ := args.Get(0).([]recipe.SubRecipeLink)
	return links, args.Error(1)
}

func TestWouldCreateCycle(t *testing.T) {
	ctx := context.Background()
	const a, b, c, d recipe.ID = 1, 2, 3, 4

	t.Run("SelfLink", func(t *testing.T) {
		g := NewGraph(linkMap{})
		for _, x := range []recipe.ID{a, b, 99} {
			cyclic, err := g.WouldCreateCycle(ctx, x, x)
			require.NoError(t, err)
			assert.True(t, cyclic)
		}
	})

	t.Run("DirectBackEdge", func(t *testing.T) {
		g := NewGraph(linkMap{b: {a}})
		cyclic, err := g.WouldCreateCycle(ctx, a, b)
		require.NoError(t, err)
		assert.True(t, cyclic)
	})

	t.Run("TransitiveBackEdge", func(t *testing.T) {
		g := NewGraph(linkMap{b: {c}, c: {a}})
		cyclic, err := g.WouldCreateCycle(ctx, a, b)
		require.NoError(t, err)
		assert.True(t, cyclic)
	})

	t.Run("NoPathBack", func(t *testing.T) {
		g := NewGraph(linkMap{a: {b}, b: {c}, c: {d}})
		cyclic, err := g.WouldCreateCycle(ctx, a, b)
		require.NoError(t, err)
		assert.False(t, cyclic)
	})

	t.Run("ExistingCycleElsewhereTerminates", func(t *testing.T) {
		g := NewGraph(linkMap{b: {c}, c: {d}, d: {c}})
		cyclic, err := g.WouldCreateCycle(ctx, a, b)
		require.NoError(t, err)
		assert.False(t, cyclic)
	})
}

func TestValidateLink(t *testing.T) {
	g := NewGraph(linkMap{2: {1}})

	err := g.ValidateLink(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrCycleRejected)

	assert.NoError(t, g.ValidateLink(context.Background(), 2, 3))
}

func TestAdjacencyIsMemoized(t *testing.T) {
	lister := new(mockLister)
	// diamond: 2 → 3, 2 → 4, 3 → 5, 4 → 5
	lister.On("ListByParent", mock.Anything, recipe.ID(2)).Return([]recipe.SubRecipeLink{{ParentID: 2, ChildID: 3}, {ParentID: 2, ChildID: 4}}, nil).Once()
	lister.On("ListByParent", mock.Anything, recipe.ID(3)).Return([]recipe.SubRecipeLink{{ParentID: 3, ChildID: 5}}, nil).Once()
	lister.On("ListByParent", mock.Anything, recipe.ID(4)).Return([]recipe.SubRecipeLink{{ParentID: 4, ChildID: 5}}, nil).Once()
	lister.On("ListByParent", mock.Anything, recipe.ID(5)).Return(nil, nil).Once()

	cyclic, err := NewGraph(lister).WouldCreateCycle(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, cyclic)
	lister.AssertExpectations(t)
}

func TestStorageErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	lister := new(mockLister)
	lister.On("ListByParent", mock.Anything, recipe.ID(2)).Return(nil, boom)

	_, err := NewGraph(lister).WouldCreateCycle(context.Background(), 1, 2)
	assert.ErrorIs(t, err, boom)
}

func TestMaxNodes(t *testing.T) {
	chain := linkMap{}
	for i := recipe.ID(1); i < 50; i++ {
		chain[i] = []recipe.ID{i + 1}
	}

	_, err := NewGraph(chain, WithMaxNodes(10)).WouldCreateCycle(context.Background(), 100, 1)
	assert.ErrorIs(t, err, ErrTraversalBudget)

	cyclic, err := NewGraph(chain).WouldCreateCycle(context.Background(), 100, 1)
	require.NoError(t, err)
	assert.False(t, cyclic)
}

func TestReachesCycle(t *testing.T) {
	ctx := context.Background()

	cyclic, err := NewGraph(linkMap{1: {2, 3}, 2: {4}, 3: {4}}).ReachesCycle(ctx, 1)
	require.NoError(t, err)
	assert.False(t, cyclic, "diamond is acyclic")

	cyclic, err = NewGraph(linkMap{1: {2}, 2: {3}, 3: {2}}).ReachesCycle(ctx, 1)
	require.NoError(t, err)
	assert.True(t, cyclic)

	cyclic, err = NewGraph(linkMap{1: {1}}).ReachesCycle(ctx, 1)
	require.NoError(t, err)
	assert.True(t, cyclic)

	cyclic, err = NewGraph(linkMap{2: {3}, 3: {2}}).ReachesCycle(ctx, 1)
	require.NoError(t, err)
	assert.False(t, cyclic, "cycle not reachable from root")
}
