package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
	"github.com/google/uuid"
)

// Store holds every rotation record in memory behind one lock
type Store struct {
	mu        sync.RWMutex
	recipes   map[recipe.ID]*recipe.Recipe
	links     map[recipe.ID][]recipe.SubRecipeLink
	slots     map[rotation.SlotKey]rotation.Slot
	templates map[uuid.UUID]*rotation.Template
	nextID    recipe.ID
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		recipes:   make(map[recipe.ID]*recipe.Recipe),
		links:     make(map[recipe.ID][]recipe.SubRecipeLink),
		slots:     make(map[rotation.SlotKey]rotation.Slot),
		templates: make(map[uuid.UUID]*rotation.Template),
		nextID:    1,
	}
}

// Recipes returns the recipe repository view of the store
func (s *Store) Recipes() *RecipeRepository { return &RecipeRepository{s} }

// Links returns the sub-recipe link repository view of the store
func (s *Store) Links() *LinkRepository { return &LinkRepository{s} }

// Slots returns the slot repository view of the store
func (s *Store) Slots() *SlotRepository { return &SlotRepository{s} }

// Templates returns the template repository view of the store
func (s *Store) Templates() *TemplateRepository { return &TemplateRepository{s} }

func cloneRecipe(r *recipe.Recipe) *recipe.Recipe {
	c := *r
	c.Allergens = append([]string(nil), r.Allergens...)
	c.Tags = append([]string(nil), r.Tags...)
	c.Ingredients = append([]recipe.Ingredient(nil), r.Ingredients...)
	return &c
}

// RecipeRepository implements outbound.RecipeRepository
type RecipeRepository struct{ s *Store }

var _ outbound.RecipeRepository = (*RecipeRepository)(nil)

// Create stores a recipe, assigning an id when unset
func (r *RecipeRepository) Create(ctx context.Context, rec *recipe.Recipe) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rec.ID == recipe.None {
		rec.ID = r.s.nextID
	}
	if rec.ID >= r.s.nextID {
		r.s.nextID = rec.ID + 1
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	r.s.recipes[rec.ID] = cloneRecipe(rec)
	return nil
}

// FindByID returns recipe.ErrRecipeNotFound for unknown ids
func (r *RecipeRepository) FindByID(ctx context.Context, id recipe.ID) (*recipe.Recipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.recipes[id]
	if !ok {
		return nil, recipe.ErrRecipeNotFound
	}
	return cloneRecipe(rec), nil
}

// FindByIDs returns the known recipes among ids
func (r *RecipeRepository) FindByIDs(ctx context.Context, ids []recipe.ID) (map[recipe.ID]*recipe.Recipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[recipe.ID]*recipe.Recipe, len(ids))
	for _, id := range ids {
		if rec, ok := r.s.recipes[id]; ok {
			out[id] = cloneRecipe(rec)
		}
	}
	return out, nil
}

// List returns every recipe ordered by id
func (r *RecipeRepository) List(ctx context.Context) ([]*recipe.Recipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*recipe.Recipe, 0, len(r.s.recipes))
	for _, rec := range r.s.recipes {
		out = append(out, cloneRecipe(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LinkRepository implements outbound.SubRecipeLinkRepository
type LinkRepository struct{ s *Store }

var _ outbound.SubRecipeLinkRepository = (*LinkRepository)(nil)

// ListByParent returns the outgoing links of a recipe
func (r *LinkRepository) ListByParent(ctx context.Context, parentID recipe.ID) ([]recipe.SubRecipeLink, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]recipe.SubRecipeLink(nil), r.s.links[parentID]...), nil
}

// Create stores a link, replacing an existing link between the same pair.
// Cycle safety is the caller's responsibility.
func (r *LinkRepository) Create(ctx context.Context, link recipe.SubRecipeLink) error {
	if err := link.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing := r.s.links[link.ParentID]
	for i, l := range existing {
		if l.ChildID == link.ChildID {
			existing[i] = link
			return nil
		}
	}
	r.s.links[link.ParentID] = append(existing, link)
	return nil
}

// SlotRepository implements outbound.SlotRepository
type SlotRepository struct{ s *Store }

var _ outbound.SlotRepository = (*SlotRepository)(nil)

// Get returns nil, nil for an unfilled slot
func (r *SlotRepository) Get(ctx context.Context, key rotation.SlotKey) (*rotation.Slot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	slot, ok := r.s.slots[key]
	if !ok {
		return nil, nil
	}
	return &slot, nil
}

// Put upserts a slot; an unassigned recipe deletes it
func (r *SlotRepository) Put(ctx context.Context, slot rotation.Slot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !slot.Filled() {
		delete(r.s.slots, slot.Key)
		return nil
	}
	if slot.Portions == 0 {
		slot.Portions = 1
	}
	r.s.slots[slot.Key] = slot
	return nil
}

// Delete clears a slot
func (r *SlotRepository) Delete(ctx context.Context, key rotation.SlotKey) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.slots, key)
	return nil
}

// CompareAndSwapRecipe implements the swap write under the store lock
func (r *SlotRepository) CompareAndSwapRecipe(ctx context.Context, key rotation.SlotKey, expected, next recipe.ID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[key]
	current := recipe.None
	if ok {
		current = slot.RecipeID
	}
	if current != expected {
		return false, nil
	}
	if !ok {
		slot = rotation.NewSlot(key, next)
	}
	slot.RecipeID = next
	if !slot.Filled() {
		delete(r.s.slots, key)
		return true, nil
	}
	r.s.slots[key] = slot
	return true, nil
}

// ListByTemplate returns the filled slots of a template in key order
func (r *SlotRepository) ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]rotation.Slot, error) {
	return r.list(func(k rotation.SlotKey) bool { return k.TemplateID == templateID }), nil
}

// ListByWeek returns the filled slots of one rotation week in key order
func (r *SlotRepository) ListByWeek(ctx context.Context, templateID uuid.UUID, weekNr int) ([]rotation.Slot, error) {
	return r.list(func(k rotation.SlotKey) bool { return k.TemplateID == templateID && k.WeekNr == weekNr }), nil
}

// CountByLocation counts the slots referencing a location
func (r *SlotRepository) CountByLocation(ctx context.Context, templateID, locationID uuid.UUID) (int, error) {
	return len(r.list(func(k rotation.SlotKey) bool { return k.TemplateID == templateID && k.LocationID == locationID })), nil
}

func (r *SlotRepository) list(match func(rotation.SlotKey) bool) []rotation.Slot {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []rotation.Slot
	for k, v := range r.s.slots {
		if match(k) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

// TemplateRepository implements outbound.TemplateRepository
type TemplateRepository struct{ s *Store }

var _ outbound.TemplateRepository = (*TemplateRepository)(nil)

// Create stores a new template
func (r *TemplateRepository) Create(ctx context.Context, t *rotation.Template) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.templates[t.ID()] = snapshot(t)
	return nil
}

// Update replaces a stored template
func (r *TemplateRepository) Update(ctx context.Context, t *rotation.Template) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.templates[t.ID()]; !ok {
		return rotation.ErrTemplateNotFound
	}
	r.s.templates[t.ID()] = snapshot(t)
	return nil
}

// FindByID returns rotation.ErrTemplateNotFound for unknown ids
func (r *TemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*rotation.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.templates[id]
	if !ok {
		return nil, rotation.ErrTemplateNotFound
	}
	return snapshot(t), nil
}

// snapshot copies a template without its pending events
func snapshot(t *rotation.Template) *rotation.Template {
	return rotation.RestoreTemplate(t.ID(), t.Name(), t.WeekCount(), t.Locations(), t.CreatedAt(), t.UpdatedAt())
}
