package optimization

import (
	"context"
	"fmt"
	"sort"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
	"github.com/google/uuid"
)

// HeuristicProvider is the built-in suggestion source. It replaces in-week
// duplicates, out-of-season recipes and expensive recipes with candidates
// of the same category, and never targets a slot twice.
type HeuristicProvider struct{}

// NewHeuristicProvider creates the built-in provider
func NewHeuristicProvider() *HeuristicProvider {
	return &HeuristicProvider{}
}

var _ outbound.SuggestionProvider = (*HeuristicProvider)(nil)

type weekLocation struct {
	week int
	loc  uuid.UUID
}

// Suggest implements outbound.SuggestionProvider
func (p *HeuristicProvider) Suggest(ctx context.Context, req outbound.SuggestionRequest) ([]rotation.SuggestedSwap, error) {
	byCategory := map[string][]*recipe.Recipe{}
	byID := map[recipe.ID]*recipe.Recipe{}
	for _, r := range req.Recipes {
		byID[r.ID] = r
		cat := r.CategoryOrDefault()
		byCategory[cat] = append(byCategory[cat], r)
	}
	for _, list := range byCategory {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	slots := make([]rotation.Slot, 0, len(req.Slots))
	for _, s := range req.Slots {
		if s.Filled() {
			slots = append(slots, s)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Key.Less(slots[j].Key) })

	// recipes already served per week at each location; the same recipe at
	// two sites is not a repeat, matching analysis duplicates
	inWeek := map[weekLocation]map[recipe.ID]bool{}
	for _, s := range slots {
		wl := weekLocation{s.Key.WeekNr, s.Key.LocationID}
		if inWeek[wl] == nil {
			inWeek[wl] = map[recipe.ID]bool{}
		}
		inWeek[wl][s.RecipeID] = true
	}

	targeted := map[rotation.SlotKey]bool{}
	var out []rotation.SuggestedSwap

	emit := func(s rotation.Slot, replacement *recipe.Recipe, reason string) {
		targeted[s.Key] = true
		inWeek[weekLocation{s.Key.WeekNr, s.Key.LocationID}][replacement.ID] = true
		out = append(out, rotation.SuggestedSwap{
			WeekNr:            s.Key.WeekNr,
			Day:               s.Key.Day,
			Meal:              s.Key.Meal,
			Course:            s.Key.Course,
			LocationID:        s.Key.LocationID,
			CurrentRecipeID:   s.RecipeID,
			SuggestedRecipeID: replacement.ID,
			Reason:            reason,
		})
	}

	pick := func(s rotation.Slot, accept func(*recipe.Recipe) bool) *recipe.Recipe {
		current := byID[s.RecipeID]
		for _, cand := range byCategory[current.CategoryOrDefault()] {
			if cand.ID == s.RecipeID || inWeek[weekLocation{s.Key.WeekNr, s.Key.LocationID}][cand.ID] {
				continue
			}
			if accept(cand) {
				return cand
			}
		}
		return nil
	}

	if req.Variety {
		seen := map[weekLocation]map[recipe.ID]bool{}
		for _, s := range slots {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			wl := weekLocation{s.Key.WeekNr, s.Key.LocationID}
			if seen[wl] == nil {
				seen[wl] = map[recipe.ID]bool{}
			}
			if !seen[wl][s.RecipeID] {
				seen[wl][s.RecipeID] = true
				continue
			}
			if targeted[s.Key] {
				continue
			}
			if r := pick(s, func(*recipe.Recipe) bool { return true }); r != nil {
				emit(s, r, fmt.Sprintf("recipe %d repeats within week %d", s.RecipeID, s.Key.WeekNr))
			}
		}
	}

	if req.Seasonal && req.Season != "" {
		for _, s := range slots {
			current := byID[s.RecipeID]
			if targeted[s.Key] || current == nil {
				continue
			}
			season := current.Season.Normalize()
			if season == req.Season || season == recipe.SeasonAll {
				continue
			}
			r := pick(s, func(c *recipe.Recipe) bool { return c.Season.Normalize() == req.Season })
			if r == nil {
				r = pick(s, func(c *recipe.Recipe) bool { return c.Season.Normalize() == recipe.SeasonAll })
			}
			if r != nil {
				emit(s, r, fmt.Sprintf("recipe %d is out of season (%s)", s.RecipeID, req.Season))
			}
		}
	}

	if req.Cost {
		for _, s := range slots {
			current := byID[s.RecipeID]
			if targeted[s.Key] || current == nil || current.CostPerPortion <= 0 {
				continue
			}
			var cheapest *recipe.Recipe
			for _, cand := range byCategory[current.CategoryOrDefault()] {
				if cand.ID == s.RecipeID || inWeek[weekLocation{s.Key.WeekNr, s.Key.LocationID}][cand.ID] || cand.CostPerPortion <= 0 {
					continue
				}
				if cand.CostPerPortion < current.CostPerPortion && (cheapest == nil || cand.CostPerPortion < cheapest.CostPerPortion) {
					cheapest = cand
				}
			}
			if cheapest != nil {
				emit(s, cheapest, fmt.Sprintf("recipe %d is cheaper per portion (%.2f < %.2f)", cheapest.ID, cheapest.CostPerPortion, current.CostPerPortion))
			}
		}
	}

	return out, nil
}
