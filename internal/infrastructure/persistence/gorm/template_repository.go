package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
)

// TemplateRepository stores rotation templates
type TemplateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *gorm.DB) outbound.TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create creates a new template
func (r *TemplateRepository) Create(ctx context.Context, t *rotation.Template) error {
	return r.db.WithContext(ctx).Create(TemplateToModel(t)).Error
}

// Update replaces the name, week count and locations of a template
func (r *TemplateRepository) Update(ctx context.Context, t *rotation.Template) error {
	model := TemplateToModel(t)
	result := r.db.WithContext(ctx).
		Model(&TemplateModel{ID: model.ID}).
		Select("name", "week_count", "locations", "updated_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", rotation.ErrTemplateNotFound, t.ID())
	}
	return nil
}

// FindByID finds a template by ID
func (r *TemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*rotation.Template, error) {
	var model TemplateModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", rotation.ErrTemplateNotFound, id)
		}
		return nil, result.Error
	}
	return ModelToTemplate(&model), nil
}
