// Package demand totals the ingredient quantities a set of slots needs,
// expanding sub-recipes and scaling every line to the slot's portions.
package demand

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/alchemorsel/kitchenops/internal/domain/composition"
	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/domain/scaling"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
)

// Line is the total demand for one ingredient in one unit
type Line struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
}

// Aggregator expands slots into ingredient demand
type Aggregator struct {
	recipes outbound.RecipeRepository
	links   outbound.SubRecipeLinkRepository
	scaler  *scaling.Engine
}

// NewAggregator creates a demand aggregator
func NewAggregator(recipes outbound.RecipeRepository, links outbound.SubRecipeLinkRepository, scaler *scaling.Engine) *Aggregator {
	return &Aggregator{recipes: recipes, links: links, scaler: scaler}
}

type lineKey struct {
	name string
	unit string
}

// ForSlots sums the scaled ingredients of every filled slot. Sub-recipes
// are needed at parent portions × multiplier. A cyclic composition fails
// with composition.ErrCycleRejected.
func (a *Aggregator) ForSlots(ctx context.Context, slots []rotation.Slot) ([]Line, error) {
	totals := map[lineKey]*Line{}
	cache := map[recipe.ID]*recipe.Recipe{}

	for _, s := range slots {
		if !s.Filled() {
			continue
		}
		path := map[recipe.ID]bool{}
		if err := a.expand(ctx, s.RecipeID, float64(s.Portions), path, cache, totals); err != nil {
			return nil, err
		}
	}

	out := make([]Line, 0, len(totals))
	for _, l := range totals {
		l.Quantity = round3(l.Quantity)
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Unit < out[j].Unit
	})
	return out, nil
}

func (a *Aggregator) expand(ctx context.Context, id recipe.ID, portions float64, path map[recipe.ID]bool, cache map[recipe.ID]*recipe.Recipe, totals map[lineKey]*Line) error {
	if path[id] {
		return fmt.Errorf("%w: recipe %d is part of its own composition", composition.ErrCycleRejected, id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r, ok := cache[id]
	if !ok {
		var err error
		if r, err = a.recipes.FindByID(ctx, id); err != nil {
			return fmt.Errorf("recipe %d: %w", id, err)
		}
		cache[id] = r
	}

	// scaling works on whole portions; round fractional sub-recipe demand up
	target := int(math.Ceil(portions))
	if target < 1 {
		target = 1
	}

	for _, ing := range r.Ingredients {
		res, err := a.scaler.Scale(ing, r.Portions, target)
		if err != nil {
			return err
		}
		k := lineKey{name: strings.ToLower(strings.TrimSpace(ing.Name)), unit: ing.Unit}
		if totals[k] == nil {
			totals[k] = &Line{Name: k.name, Unit: k.unit}
		}
		totals[k].Quantity += res.ScaledQuantity
	}

	links, err := a.links.ListByParent(ctx, id)
	if err != nil {
		return fmt.Errorf("sub-recipes of %d: %w", id, err)
	}
	path[id] = true
	defer delete(path, id)
	for _, l := range links {
		if err := a.expand(ctx, l.ChildID, portions*l.PortionMultiplier, path, cache, totals); err != nil {
			return err
		}
	}
	return nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
