package rotation

import (
	"sort"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/google/uuid"
)

// Grid is a sparse in-memory view of one template's slots. Absent keys are
// unfilled. A Grid is not safe for concurrent use.
type Grid struct {
	template *Template
	cells    map[SlotKey]Slot
}

// NewGrid builds a grid over the given slots. Slots for other templates,
// inactive locations, or with invalid keys are rejected.
func NewGrid(t *Template, slots []Slot) (*Grid, error) {
	g := &Grid{template: t, cells: make(map[SlotKey]Slot, len(slots))}
	for _, s := range slots {
		if err := g.Set(s); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Template returns the template the grid belongs to
func (g *Grid) Template() *Template { return g.template }

// Get returns the slot at key; ok is false when the slot is unfilled
func (g *Grid) Get(key SlotKey) (Slot, bool) {
	s, ok := g.cells[key]
	return s, ok
}

// Set stores a slot after validating it against the template. Storing an
// unassigned recipe clears the slot.
func (g *Grid) Set(s Slot) error {
	if s.Key.TemplateID != g.template.ID() {
		return ErrMissingTemplate
	}
	if s.Portions == 0 {
		s.Portions = 1
	}
	if err := s.Validate(g.template.WeekCount()); err != nil {
		return err
	}
	if !g.template.HasLocation(s.Key.LocationID) {
		return ErrUnknownLocation
	}
	if !s.Filled() {
		delete(g.cells, s.Key)
		return nil
	}
	g.cells[s.Key] = s
	return nil
}

// Clear removes the assignment at key
func (g *Grid) Clear(key SlotKey) {
	delete(g.cells, key)
}

// Slots returns the filled slots in key order
func (g *Grid) Slots() []Slot {
	out := make([]Slot, 0, len(g.cells))
	for _, s := range g.cells {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

// WeekSlots returns the filled slots of one rotation week in key order
func (g *Grid) WeekSlots(weekNr int) []Slot {
	var out []Slot
	for _, s := range g.Slots() {
		if s.Key.WeekNr == weekNr {
			out = append(out, s)
		}
	}
	return out
}

// Filled is the number of filled slots
func (g *Grid) Filled() int { return len(g.cells) }

// TotalSlots is the number of addressable slots of the template
func (g *Grid) TotalSlots() int { return g.template.TotalSlots() }

// FillPercentage is round(filled / total × 100) over the whole template
func (g *Grid) FillPercentage() int {
	return Percent(g.Filled(), g.TotalSlots())
}

// Clone returns an independent copy sharing the template
func (g *Grid) Clone() *Grid {
	cells := make(map[SlotKey]Slot, len(g.cells))
	for k, v := range g.cells {
		cells[k] = v
	}
	return &Grid{template: g.template, cells: cells}
}

// LocateForSwap resolves the slot a swap targets. With an explicit location
// the slot at that location is returned; otherwise the first location in
// template order whose slot holds the swap's current recipe. found is false
// when no slot at the coordinates holds the expected recipe.
func (g *Grid) LocateForSwap(swap SuggestedSwap) (key SlotKey, found bool) {
	if swap.LocationID != uuid.Nil {
		key = swap.Target(g.template.ID(), swap.LocationID)
		return key, g.recipeAt(key) == swap.CurrentRecipeID
	}
	for _, loc := range g.template.Locations() {
		key = swap.Target(g.template.ID(), loc)
		if g.recipeAt(key) == swap.CurrentRecipeID {
			return key, true
		}
	}
	return SlotKey{}, false
}

func (g *Grid) recipeAt(key SlotKey) recipe.ID {
	if s, ok := g.cells[key]; ok {
		return s.RecipeID
	}
	return recipe.None
}
