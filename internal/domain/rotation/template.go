package rotation

import (
	"strings"
	"time"

	"github.com/alchemorsel/kitchenops/internal/domain/shared"
	"github.com/google/uuid"
)

// Template identifies one rotation cycle of a kitchen. It is created once,
// and afterwards only its set of active locations changes.
type Template struct {
	id        uuid.UUID
	name      string
	weekCount int
	locations []uuid.UUID
	createdAt time.Time
	updatedAt time.Time

	shared.AggregateRoot
}

// NewTemplate creates a new rotation template with validation
func NewTemplate(name string, weekCount int, locations ...uuid.UUID) (*Template, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrTemplateNameRequired
	}
	if weekCount < 1 {
		return nil, ErrInvalidWeekCount
	}

	now := time.Now()
	t := &Template{
		id:        uuid.New(),
		name:      name,
		weekCount: weekCount,
		createdAt: now,
		updatedAt: now,
	}
	for _, loc := range locations {
		if err := t.addLocation(loc); err != nil {
			return nil, err
		}
	}

	t.AddEvent(TemplateCreatedEvent{
		TemplateID: t.id,
		WeekCount:  weekCount,
		CreatedAt:  now,
	})
	return t, nil
}

// RestoreTemplate rebuilds a template from storage without raising events
func RestoreTemplate(id uuid.UUID, name string, weekCount int, locations []uuid.UUID, createdAt, updatedAt time.Time) *Template {
	locs := make([]uuid.UUID, len(locations))
	copy(locs, locations)
	return &Template{
		id:        id,
		name:      name,
		weekCount: weekCount,
		locations: locs,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the template's unique identifier
func (t *Template) ID() uuid.UUID { return t.id }

// Name returns the template name
func (t *Template) Name() string { return t.name }

// WeekCount returns the cycle length in weeks
func (t *Template) WeekCount() int { return t.weekCount }

// CreatedAt returns when the template was created
func (t *Template) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns when the template was last changed
func (t *Template) UpdatedAt() time.Time { return t.updatedAt }

// Locations returns a copy of the active locations in insertion order
func (t *Template) Locations() []uuid.UUID {
	out := make([]uuid.UUID, len(t.locations))
	copy(out, t.locations)
	return out
}

// HasLocation reports whether loc is active
func (t *Template) HasLocation(loc uuid.UUID) bool {
	for _, l := range t.locations {
		if l == loc {
			return true
		}
	}
	return false
}

// TotalSlots is weeks × days × meals × courses × locations
func (t *Template) TotalSlots() int {
	return t.weekCount * t.SlotsPerWeek()
}

// SlotsPerWeek is the number of slots in one rotation week across locations
func (t *Template) SlotsPerWeek() int {
	return SlotsPerLocationWeek * len(t.locations)
}

// AddLocation activates a location
func (t *Template) AddLocation(loc uuid.UUID) error {
	if err := t.addLocation(loc); err != nil {
		return err
	}
	t.updatedAt = time.Now()
	t.AddEvent(LocationAddedEvent{TemplateID: t.id, LocationID: loc, AddedAt: t.updatedAt})
	return nil
}

// RemoveLocation deactivates a location. referencingSlots is the number of
// stored slots that still use it; a template is never left with dangling
// slot references.
func (t *Template) RemoveLocation(loc uuid.UUID, referencingSlots int) error {
	if referencingSlots > 0 {
		return ErrLocationInUse
	}
	for i, l := range t.locations {
		if l == loc {
			t.locations = append(t.locations[:i], t.locations[i+1:]...)
			t.updatedAt = time.Now()
			t.AddEvent(LocationRemovedEvent{TemplateID: t.id, LocationID: loc, RemovedAt: t.updatedAt})
			return nil
		}
	}
	return ErrUnknownLocation
}

func (t *Template) addLocation(loc uuid.UUID) error {
	if loc == uuid.Nil {
		return ErrMissingLocation
	}
	if t.HasLocation(loc) {
		return ErrDuplicateLocation
	}
	t.locations = append(t.locations, loc)
	return nil
}
