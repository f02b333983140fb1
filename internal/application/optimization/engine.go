// Package optimization proposes and applies recipe swaps on a rotation
// grid. Proposals only read; each applied swap is re-validated against the
// live grid and written with compare-and-swap.
package optimization

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/kitchenops/internal/application/analysis"
	"github.com/alchemorsel/kitchenops/internal/domain/composition"
	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
	"github.com/google/uuid"
)

// CompositionChecker reports whether a recipe's composition is cyclic
type CompositionChecker interface {
	ReachesCycle(ctx context.Context, root recipe.ID) (bool, error)
}

// Proposal is the outcome of Propose. Rejected counts candidates that
// failed validation against the live grid.
type Proposal struct {
	Swaps    []rotation.SuggestedSwap `json:"swaps"`
	Rejected int                      `json:"rejected"`
	Summary  string                   `json:"summary"`
	Before   analysis.Metrics         `json:"before"`
	After    analysis.Metrics         `json:"after"`
}

// AppliedSwap records one successful Apply
type AppliedSwap struct {
	Key          rotation.SlotKey `json:"key"`
	FromRecipeID recipe.ID        `json:"from_recipe_id"`
	ToRecipeID   recipe.ID        `json:"to_recipe_id"`
	Reason       string           `json:"reason"`
	AppliedAt    time.Time        `json:"applied_at"`
}

// Config tunes the engine
type Config struct {
	MaxProposals int
	Weights      Weights
}

// Engine proposes and applies swaps
type Engine struct {
	slots       outbound.SlotRepository
	recipes     outbound.RecipeRepository
	composition CompositionChecker
	provider    outbound.SuggestionProvider
	analyzer    *analysis.Engine
	scorer      *Scorer
	cfg         Config
	logger      *zap.Logger
}

// NewEngine creates an optimization engine. A nil provider falls back to
// the built-in heuristics.
func NewEngine(
	slots outbound.SlotRepository,
	recipes outbound.RecipeRepository,
	composition CompositionChecker,
	provider outbound.SuggestionProvider,
	analyzer *analysis.Engine,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	if provider == nil {
		provider = NewHeuristicProvider()
	}
	if cfg.MaxProposals <= 0 {
		cfg.MaxProposals = 10
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	return &Engine{
		slots:       slots,
		recipes:     recipes,
		composition: composition,
		provider:    provider,
		analyzer:    analyzer,
		scorer:      NewScorer(analyzer, cfg.Weights),
		cfg:         cfg,
		logger:      logger.Named("optimization"),
	}
}

// Propose builds a ranked list of swaps. Candidates come from external when
// non-empty, otherwise from the configured provider. Provider candidates
// that do not improve the grid are dropped; external candidates that pass
// validation are kept with their score, which may be zero or negative. The
// grid is never modified.
func (e *Engine) Propose(ctx context.Context, t *rotation.Template, focus Focus, external []rotation.SuggestedSwap) (*Proposal, error) {
	focus = focus.Normalize()

	stored, err := e.slots.ListByTemplate(ctx, t.ID())
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	grid, err := rotation.NewGrid(t, stored)
	if err != nil {
		return nil, fmt.Errorf("load grid: %w", err)
	}

	all, err := e.recipes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	recipes := make(map[recipe.ID]*recipe.Recipe, len(all))
	for _, r := range all {
		recipes[r.ID] = r
	}

	candidates := external
	keepAll := len(candidates) > 0
	if !keepAll {
		candidates, err = e.provider.Suggest(ctx, outbound.SuggestionRequest{
			Template: t,
			Slots:    grid.Slots(),
			Recipes:  all,
			Season:   e.analyzer.CurrentSeason(),
			Variety:  focus.Variety,
			Seasonal: focus.Seasonality,
			Cost:     focus.Cost,
		})
		if err != nil {
			return nil, fmt.Errorf("suggest swaps: %w", err)
		}
	}

	before := e.scorer.Measure(grid, recipes)

	type scored struct {
		swap rotation.SuggestedSwap
		key  rotation.SlotKey
	}
	var (
		ranked   []scored
		rejected int
	)
	for _, c := range candidates {
		key, reason, err := e.check(ctx, grid, recipes, c)
		if err != nil {
			return nil, fmt.Errorf("check candidate %s: %w", c, err)
		}
		if reason != "" {
			e.logger.Debug("Dropping swap candidate", zap.String("swap", c.String()), zap.String("reason", reason))
			rejected++
			continue
		}
		trial := grid.Clone()
		if err := trial.Set(rotation.Slot{Key: key, RecipeID: c.SuggestedRecipeID, Portions: portionsAt(grid, key)}); err != nil {
			rejected++
			continue
		}
		c.Score = e.scorer.Score(before, e.scorer.Measure(trial, recipes), focus)
		if c.Score <= 0 && !keepAll {
			continue
		}
		c.LocationID = key.LocationID
		ranked = append(ranked, scored{swap: c, key: key})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].swap.Score != ranked[j].swap.Score {
			return ranked[i].swap.Score > ranked[j].swap.Score
		}
		return ranked[i].key.Less(ranked[j].key)
	})

	after := grid.Clone()
	targeted := map[rotation.SlotKey]bool{}
	proposal := &Proposal{Swaps: []rotation.SuggestedSwap{}, Rejected: rejected, Before: before}
	for _, r := range ranked {
		if len(proposal.Swaps) == e.cfg.MaxProposals {
			break
		}
		if targeted[r.key] {
			continue
		}
		targeted[r.key] = true
		_ = after.Set(rotation.Slot{Key: r.key, RecipeID: r.swap.SuggestedRecipeID, Portions: portionsAt(grid, r.key)})
		proposal.Swaps = append(proposal.Swaps, r.swap)
	}
	proposal.After = e.scorer.Measure(after, recipes)
	proposal.Summary = summarize(proposal)
	return proposal, nil
}

// check validates a candidate against the live grid. A non-empty reason
// rejects the candidate; an error means the check itself could not run.
func (e *Engine) check(ctx context.Context, grid *rotation.Grid, recipes map[recipe.ID]*recipe.Recipe, c rotation.SuggestedSwap) (rotation.SlotKey, string, error) {
	t := grid.Template()
	if err := c.Validate(t.WeekCount()); err != nil {
		return rotation.SlotKey{}, err.Error(), nil
	}
	if c.LocationID != uuid.Nil && !t.HasLocation(c.LocationID) {
		return rotation.SlotKey{}, rotation.ErrUnknownLocation.Error(), nil
	}
	key, found := grid.LocateForSwap(c)
	if !found {
		return rotation.SlotKey{}, "current recipe does not match the grid", nil
	}
	if _, ok := recipes[c.SuggestedRecipeID]; !ok {
		return rotation.SlotKey{}, recipe.ErrRecipeNotFound.Error(), nil
	}
	cyclic, err := e.composition.ReachesCycle(ctx, c.SuggestedRecipeID)
	if err != nil {
		return rotation.SlotKey{}, "", err
	}
	if cyclic {
		return rotation.SlotKey{}, composition.ErrCycleRejected.Error(), nil
	}
	return key, "", nil
}

// Apply writes one swap. The slot is located and compared first, the
// suggested recipe's composition is checked, and the recipe id is then
// replaced with compare-and-swap. Portions are left untouched.
func (e *Engine) Apply(ctx context.Context, t *rotation.Template, swap rotation.SuggestedSwap) (*AppliedSwap, error) {
	if err := swap.Validate(t.WeekCount()); err != nil {
		return nil, err
	}

	locations := t.Locations()
	if swap.LocationID != uuid.Nil {
		if !t.HasLocation(swap.LocationID) {
			return nil, rotation.ErrUnknownLocation
		}
		locations = []uuid.UUID{swap.LocationID}
	}

	var (
		key   rotation.SlotKey
		found bool
	)
	for _, loc := range locations {
		candidate := swap.Target(t.ID(), loc)
		slot, err := e.slots.Get(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("get slot: %w", err)
		}
		current := recipe.None
		if slot != nil {
			current = slot.RecipeID
		}
		if current == swap.CurrentRecipeID {
			key, found = candidate, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", rotation.ErrStaleProposal, swap)
	}

	if _, err := e.recipes.FindByID(ctx, swap.SuggestedRecipeID); err != nil {
		return nil, err
	}
	cyclic, err := e.composition.ReachesCycle(ctx, swap.SuggestedRecipeID)
	if err != nil {
		return nil, err
	}
	if cyclic {
		return nil, fmt.Errorf("%w: recipe %d", composition.ErrCycleRejected, swap.SuggestedRecipeID)
	}

	swapped, err := e.slots.CompareAndSwapRecipe(ctx, key, swap.CurrentRecipeID, swap.SuggestedRecipeID)
	if err != nil {
		return nil, fmt.Errorf("swap slot: %w", err)
	}
	if !swapped {
		return nil, fmt.Errorf("%w: %s", rotation.ErrStaleProposal, key)
	}

	e.logger.Info("Swap applied",
		zap.String("slot", key.String()),
		zap.Int64("from", int64(swap.CurrentRecipeID)),
		zap.Int64("to", int64(swap.SuggestedRecipeID)),
	)
	return &AppliedSwap{
		Key:          key,
		FromRecipeID: swap.CurrentRecipeID,
		ToRecipeID:   swap.SuggestedRecipeID,
		Reason:       swap.Reason,
		AppliedAt:    time.Now(),
	}, nil
}

// IsStale reports whether err means the proposal must be re-run
func IsStale(err error) bool {
	return errors.Is(err, rotation.ErrStaleProposal)
}

func portionsAt(g *rotation.Grid, key rotation.SlotKey) int {
	if s, ok := g.Get(key); ok {
		return s.Portions
	}
	return 1
}

func summarize(p *Proposal) string {
	var s string
	if len(p.Swaps) == 0 {
		s = "no improving swaps found"
	} else {
		s = fmt.Sprintf("%d swap(s): variety %.1f -> %.1f, seasonal fit %.1f -> %.1f, average cost %.2f -> %.2f",
			len(p.Swaps),
			p.Before.Variety, p.After.Variety,
			p.Before.SeasonalFit, p.After.SeasonalFit,
			p.Before.AverageCost, p.After.AverageCost,
		)
	}
	if p.Rejected > 0 {
		s += fmt.Sprintf("; %d candidate(s) rejected", p.Rejected)
	}
	return s
}
