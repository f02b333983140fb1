// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/alchemorsel/kitchenops/internal/application/analysis"
	"github.com/alchemorsel/kitchenops/internal/application/demand"
	"github.com/alchemorsel/kitchenops/internal/application/optimization"
	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/domain/scaling"
	"github.com/google/uuid"
)

// RotationService defines the use cases of the menu rotation core
// This is the primary port that HTTP handlers and other driving adapters will use
type RotationService interface {
	// Templates
	CreateTemplate(ctx context.Context, cmd CreateTemplateCommand) (*TemplateDTO, error)
	GetTemplate(ctx context.Context, templateID uuid.UUID) (*TemplateDTO, error)
	AddLocation(ctx context.Context, templateID, locationID uuid.UUID) (*TemplateDTO, error)
	RemoveLocation(ctx context.Context, templateID, locationID uuid.UUID) (*TemplateDTO, error)

	// Grid
	RenderCalendarWeek(ctx context.Context, templateID uuid.UUID, year, isoWeek int) (*CalendarWeekDTO, error)
	GetSlot(ctx context.Context, key rotation.SlotKey) (*SlotDTO, error)
	PutSlot(ctx context.Context, cmd PutSlotCommand) (*SlotDTO, error)
	ClearSlot(ctx context.Context, key rotation.SlotKey) error

	// Analysis and optimization
	Analyze(ctx context.Context, templateID uuid.UUID) (*analysis.Bundle, error)
	ProposeOptimization(ctx context.Context, cmd ProposeCommand) (*optimization.Proposal, error)
	ApplySwap(ctx context.Context, templateID uuid.UUID, swap rotation.SuggestedSwap) (*optimization.AppliedSwap, error)

	// Composition and quantities
	LinkSubRecipe(ctx context.Context, cmd LinkSubRecipeCommand) error
	PreviewScaling(ctx context.Context, cmd PreviewScalingCommand) (*scaling.Result, error)
	WeeklyDemand(ctx context.Context, templateID uuid.UUID, year, isoWeek int) (*DemandDTO, error)
}

// Command objects for operations

// CreateTemplateCommand contains data for creating a rotation template.
// A zero WeekCount uses the configured default.
type CreateTemplateCommand struct {
	Name      string
	WeekCount int
	Locations []uuid.UUID
}

// PutSlotCommand assigns a recipe to a slot. RecipeID recipe.None clears
// the slot; zero Portions means 1.
type PutSlotCommand struct {
	Key      rotation.SlotKey
	RecipeID recipe.ID
	Portions int
}

// ProposeCommand requests an optimization proposal. With no Swaps the
// configured suggestion provider generates candidates.
type ProposeCommand struct {
	TemplateID uuid.UUID
	Focus      optimization.Focus
	Swaps      []rotation.SuggestedSwap
}

// LinkSubRecipeCommand links Child into Parent
type LinkSubRecipeCommand struct {
	ParentID          recipe.ID
	ChildID           recipe.ID
	PortionMultiplier float64
}

// PreviewScalingCommand scales a free-form ingredient
type PreviewScalingCommand struct {
	Name         string
	Quantity     float64
	Unit         string
	FromPortions int
	ToPortions   int
}

// Data Transfer Objects

// TemplateDTO represents a rotation template
type TemplateDTO struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	WeekCount  int         `json:"week_count"`
	Locations  []uuid.UUID `json:"locations"`
	TotalSlots int         `json:"total_slots"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// SlotDTO represents one grid cell
type SlotDTO struct {
	TemplateID uuid.UUID       `json:"template_id"`
	WeekNr     int             `json:"week_nr"`
	Day        int             `json:"day"`
	Meal       rotation.Meal   `json:"meal"`
	Course     rotation.Course `json:"course"`
	LocationID uuid.UUID       `json:"location_id"`
	RecipeID   *int64          `json:"recipe_id"`
	Portions   int             `json:"portions"`
}

// MenuPlanEntryDTO is a slot on a calendar date
type MenuPlanEntryDTO struct {
	Date           string          `json:"date"`
	Meal           rotation.Meal   `json:"meal"`
	Course         rotation.Course `json:"course"`
	RecipeID       int64           `json:"recipe_id"`
	Portions       int             `json:"portions"`
	LocationID     uuid.UUID       `json:"location_id"`
	RotationWeekNr int             `json:"rotation_week_nr"`
}

// CalendarWeekDTO is the menu plan of one ISO week
type CalendarWeekDTO struct {
	Year           int                `json:"year"`
	Week           int                `json:"week"`
	RotationWeekNr int                `json:"rotation_week_nr"`
	Monday         string             `json:"monday"`
	Sunday         string             `json:"sunday"`
	Entries        []MenuPlanEntryDTO `json:"entries"`
}

// DemandDTO is the ingredient demand of one ISO week
type DemandDTO struct {
	Year           int           `json:"year"`
	Week           int           `json:"week"`
	RotationWeekNr int           `json:"rotation_week_nr"`
	Lines          []demand.Line `json:"lines"`
}

// DateLayout formats calendar dates in DTOs
const DateLayout = "2006-01-02"

// NewTemplateDTO converts a template
func NewTemplateDTO(t *rotation.Template) *TemplateDTO {
	return &TemplateDTO{
		ID:         t.ID(),
		Name:       t.Name(),
		WeekCount:  t.WeekCount(),
		Locations:  t.Locations(),
		TotalSlots: t.TotalSlots(),
		CreatedAt:  t.CreatedAt(),
		UpdatedAt:  t.UpdatedAt(),
	}
}

// NewSlotDTO converts a slot; a nil slot renders as unfilled at key
func NewSlotDTO(key rotation.SlotKey, s *rotation.Slot) *SlotDTO {
	dto := &SlotDTO{
		TemplateID: key.TemplateID,
		WeekNr:     key.WeekNr,
		Day:        int(key.Day),
		Meal:       key.Meal,
		Course:     key.Course,
		LocationID: key.LocationID,
	}
	if s != nil && s.Filled() {
		id := int64(s.RecipeID)
		dto.RecipeID = &id
		dto.Portions = s.Portions
	}
	return dto
}
