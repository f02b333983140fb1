// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces the rotation core uses to reach storage, caches and
// suggestion sources. The core depends on them by abstraction only.
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
var ErrCacheMiss = errors.New("cache miss")

// RecipeRepository reads the recipe catalogue.
// FindByID returns recipe.ErrRecipeNotFound for unknown ids.
type RecipeRepository interface {
	FindByID(ctx context.Context, id recipe.ID) (*recipe.Recipe, error)
	// FindByIDs skips unknown ids
	FindByIDs(ctx context.Context, ids []recipe.ID) (map[recipe.ID]*recipe.Recipe, error)
	List(ctx context.Context) ([]*recipe.Recipe, error)
	Create(ctx context.Context, r *recipe.Recipe) error
}

// SubRecipeLinkRepository persists composition edges
type SubRecipeLinkRepository interface {
	ListByParent(ctx context.Context, parentID recipe.ID) ([]recipe.SubRecipeLink, error)
	Create(ctx context.Context, link recipe.SubRecipeLink) error
}

// SlotRepository persists the rotation grid. Key uniqueness is enforced by
// the store.
type SlotRepository interface {
	// Get returns nil, nil for an unfilled slot
	Get(ctx context.Context, key rotation.SlotKey) (*rotation.Slot, error)
	Put(ctx context.Context, slot rotation.Slot) error
	Delete(ctx context.Context, key rotation.SlotKey) error

	// CompareAndSwapRecipe sets the recipe of key to next only if it
	// currently holds expected (recipe.None meaning unfilled). Portions are
	// left unchanged, or set to 1 when the slot is created. swapped is false
	// when the slot changed in the meantime.
	CompareAndSwapRecipe(ctx context.Context, key rotation.SlotKey, expected, next recipe.ID) (swapped bool, err error)

	ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]rotation.Slot, error)
	ListByWeek(ctx context.Context, templateID uuid.UUID, weekNr int) ([]rotation.Slot, error)
	CountByLocation(ctx context.Context, templateID, locationID uuid.UUID) (int, error)
}

// TemplateRepository persists rotation templates.
// FindByID returns rotation.ErrTemplateNotFound for unknown ids.
type TemplateRepository interface {
	Create(ctx context.Context, t *rotation.Template) error
	Update(ctx context.Context, t *rotation.Template) error
	FindByID(ctx context.Context, id uuid.UUID) (*rotation.Template, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SuggestionRequest is the read-only input handed to a SuggestionProvider
type SuggestionRequest struct {
	Template *rotation.Template
	Slots    []rotation.Slot
	Recipes  []*recipe.Recipe
	Season   recipe.Season
	Variety  bool
	Seasonal bool
	Cost     bool
}

// SuggestionProvider produces candidate swaps. Candidates are advisory: the
// optimization engine validates and scores every one of them.
type SuggestionProvider interface {
	Suggest(ctx context.Context, req SuggestionRequest) ([]rotation.SuggestedSwap, error)
}

// EventPublisher forwards domain events to interested parties
type EventPublisher interface {
	Publish(ctx context.Context, events ...shared.DomainEvent) error
}
