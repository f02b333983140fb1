package gorm

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
)

var slotKeyColumns = []clause.Column{
	{Name: "template_id"}, {Name: "week_nr"}, {Name: "day"},
	{Name: "meal"}, {Name: "course"}, {Name: "location_id"},
}

// SlotRepository stores the rotation grid
type SlotRepository struct {
	db *gorm.DB
}

// NewSlotRepository creates a new slot repository
func NewSlotRepository(db *gorm.DB) outbound.SlotRepository {
	return &SlotRepository{db: db}
}

func byKey(db *gorm.DB, key rotation.SlotKey) *gorm.DB {
	return db.Where(
		"template_id = ? AND week_nr = ? AND day = ? AND meal = ? AND course = ? AND location_id = ?",
		key.TemplateID, key.WeekNr, int(key.Day), string(key.Meal), string(key.Course), key.LocationID,
	)
}

// Get returns nil, nil for an unfilled slot
func (r *SlotRepository) Get(ctx context.Context, key rotation.SlotKey) (*rotation.Slot, error) {
	var model SlotModel
	err := byKey(r.db.WithContext(ctx), key).
		Where("recipe_id IS NOT NULL").
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	slot := ModelToSlot(&model)
	return &slot, nil
}

// Put upserts a slot; an unassigned recipe deletes it
func (r *SlotRepository) Put(ctx context.Context, slot rotation.Slot) error {
	if !slot.Filled() {
		return r.Delete(ctx, slot.Key)
	}
	if slot.Portions == 0 {
		slot.Portions = 1
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   slotKeyColumns,
			DoUpdates: clause.AssignmentColumns([]string{"recipe_id", "portions", "updated_at"}),
		}).
		Create(SlotToModel(slot)).Error
}

// Delete clears a slot
func (r *SlotRepository) Delete(ctx context.Context, key rotation.SlotKey) error {
	return byKey(r.db.WithContext(ctx), key).Delete(&SlotModel{}).Error
}

// CompareAndSwapRecipe replaces the recipe id only while the row still
// holds expected. An empty slot is claimed with an insert that loses to
// any concurrent insert.
func (r *SlotRepository) CompareAndSwapRecipe(ctx context.Context, key rotation.SlotKey, expected, next recipe.ID) (bool, error) {
	db := r.db.WithContext(ctx)

	if next == recipe.None {
		res := byKey(db, key).Where("recipe_id = ?", int64(expected)).Delete(&SlotModel{})
		return res.RowsAffected == 1, res.Error
	}

	updates := map[string]interface{}{"recipe_id": int64(next), "updated_at": time.Now()}
	if expected != recipe.None {
		res := byKey(db.Model(&SlotModel{}), key).
			Where("recipe_id = ?", int64(expected)).
			Updates(updates)
		return res.RowsAffected == 1, res.Error
	}

	res := byKey(db.Model(&SlotModel{}), key).Where("recipe_id IS NULL").Updates(updates)
	if res.Error != nil || res.RowsAffected == 1 {
		return res.RowsAffected == 1, res.Error
	}
	res = db.Clauses(clause.OnConflict{Columns: slotKeyColumns, DoNothing: true}).
		Create(SlotToModel(rotation.NewSlot(key, next)))
	return res.RowsAffected == 1, res.Error
}

// ListByTemplate returns the filled slots of a template in key order
func (r *SlotRepository) ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]rotation.Slot, error) {
	return r.list(r.db.WithContext(ctx).Where("template_id = ?", templateID))
}

// ListByWeek returns the filled slots of one rotation week in key order
func (r *SlotRepository) ListByWeek(ctx context.Context, templateID uuid.UUID, weekNr int) ([]rotation.Slot, error) {
	return r.list(r.db.WithContext(ctx).Where("template_id = ? AND week_nr = ?", templateID, weekNr))
}

// CountByLocation counts the filled slots referencing a location
func (r *SlotRepository) CountByLocation(ctx context.Context, templateID, locationID uuid.UUID) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&SlotModel{}).
		Where("template_id = ? AND location_id = ? AND recipe_id IS NOT NULL", templateID, locationID).
		Count(&n).Error
	return int(n), err
}

func (r *SlotRepository) list(q *gorm.DB) ([]rotation.Slot, error) {
	var models []SlotModel
	if err := q.Where("recipe_id IS NOT NULL").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]rotation.Slot, len(models))
	for i := range models {
		out[i] = ModelToSlot(&models[i])
	}
	// day order is Monday first, which SQL ordering on the weekday number gets wrong
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out, nil
}
