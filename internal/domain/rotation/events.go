package rotation

import (
	"time"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/google/uuid"
)

// TemplateCreatedEvent is raised when a rotation template is created
type TemplateCreatedEvent struct {
	TemplateID uuid.UUID
	WeekCount  int
	CreatedAt  time.Time
}

func (e TemplateCreatedEvent) EventName() string     { return "rotation.template.created" }
func (e TemplateCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// LocationAddedEvent is raised when a location is activated
type LocationAddedEvent struct {
	TemplateID uuid.UUID
	LocationID uuid.UUID
	AddedAt    time.Time
}

func (e LocationAddedEvent) EventName() string     { return "rotation.location.added" }
func (e LocationAddedEvent) OccurredAt() time.Time { return e.AddedAt }

// LocationRemovedEvent is raised when a location is deactivated
type LocationRemovedEvent struct {
	TemplateID uuid.UUID
	LocationID uuid.UUID
	RemovedAt  time.Time
}

func (e LocationRemovedEvent) EventName() string     { return "rotation.location.removed" }
func (e LocationRemovedEvent) OccurredAt() time.Time { return e.RemovedAt }

// SlotAssignedEvent is raised on a direct slot edit
type SlotAssignedEvent struct {
	Key        SlotKey
	RecipeID   recipe.ID
	Portions   int
	AssignedAt time.Time
}

func (e SlotAssignedEvent) EventName() string     { return "rotation.slot.assigned" }
func (e SlotAssignedEvent) OccurredAt() time.Time { return e.AssignedAt }

// SwapAppliedEvent is raised after a swap was written to the grid
type SwapAppliedEvent struct {
	Key          SlotKey
	FromRecipeID recipe.ID
	ToRecipeID   recipe.ID
	Reason       string
	AppliedAt    time.Time
}

func (e SwapAppliedEvent) EventName() string     { return "rotation.swap.applied" }
func (e SwapAppliedEvent) OccurredAt() time.Time { return e.AppliedAt }
