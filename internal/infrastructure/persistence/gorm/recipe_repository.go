// Package gorm provides GORM-based repository implementations
package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
)

// RecipeRepository implements the recipe repository interface using GORM
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) outbound.RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create stores a recipe; a zero id is assigned by the database
func (r *RecipeRepository) Create(ctx context.Context, rec *recipe.Recipe) error {
	model := RecipeToModel(rec)
	if rec.ID == recipe.None {
		// validate everything but the id the database will assign
		probe := *rec
		probe.ID = 1
		if err := probe.Validate(); err != nil {
			return err
		}
	} else if err := rec.Validate(); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	rec.ID = recipe.ID(model.ID)
	return nil
}

// FindByID finds a recipe by ID
func (r *RecipeRepository) FindByID(ctx context.Context, id recipe.ID) (*recipe.Recipe, error) {
	var model RecipeModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", int64(id))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", recipe.ErrRecipeNotFound, id)
		}
		return nil, result.Error
	}
	return ModelToRecipe(&model), nil
}

// FindByIDs loads recipes in one query. Unknown ids are absent from the map.
func (r *RecipeRepository) FindByIDs(ctx context.Context, ids []recipe.ID) (map[recipe.ID]*recipe.Recipe, error) {
	out := make(map[recipe.ID]*recipe.Recipe, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}
	var models []RecipeModel
	if err := r.db.WithContext(ctx).Where("id IN ?", raw).Find(&models).Error; err != nil {
		return nil, err
	}
	for i := range models {
		rec := ModelToRecipe(&models[i])
		out[rec.ID] = rec
	}
	return out, nil
}

// List returns every recipe ordered by id
func (r *RecipeRepository) List(ctx context.Context) ([]*recipe.Recipe, error) {
	var models []RecipeModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*recipe.Recipe, len(models))
	for i := range models {
		out[i] = ModelToRecipe(&models[i])
	}
	return out, nil
}

// SubRecipeLinkRepository stores composition edges
type SubRecipeLinkRepository struct {
	db *gorm.DB
}

// NewSubRecipeLinkRepository creates a new link repository
func NewSubRecipeLinkRepository(db *gorm.DB) outbound.SubRecipeLinkRepository {
	return &SubRecipeLinkRepository{db: db}
}

// ListByParent returns the direct children of a recipe
func (r *SubRecipeLinkRepository) ListByParent(ctx context.Context, parentID recipe.ID) ([]recipe.SubRecipeLink, error) {
	var models []SubRecipeLinkModel
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", int64(parentID)).
		Order("child_id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]recipe.SubRecipeLink, len(models))
	for i := range models {
		out[i] = ModelToLink(&models[i])
	}
	return out, nil
}

// Create upserts a link; re-linking the same pair replaces the multiplier
func (r *SubRecipeLinkRepository) Create(ctx context.Context, link recipe.SubRecipeLink) error {
	if err := link.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "parent_id"}, {Name: "child_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"portion_multiplier"}),
		}).
		Create(LinkToModel(link)).Error
}
