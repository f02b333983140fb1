package optimization

import (
	"github.com/alchemorsel/kitchenops/internal/application/analysis"
	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
)

// Focus selects which metrics a proposal should improve. The zero value
// means all of them.
type Focus struct {
	Variety     bool `json:"variety"`
	Seasonality bool `json:"seasonality"`
	Cost        bool `json:"cost"`
}

// Normalize turns the empty focus into the full focus
func (f Focus) Normalize() Focus {
	if !f.Variety && !f.Seasonality && !f.Cost {
		return Focus{Variety: true, Seasonality: true, Cost: true}
	}
	return f
}

// Weights of each metric delta in a candidate's score
type Weights struct {
	Variety     float64
	Seasonality float64
	Cost        float64
}

// DefaultWeights returns equal weights
func DefaultWeights() Weights {
	return Weights{Variety: 1, Seasonality: 1, Cost: 1}
}

// Scorer rates a candidate by the weighted improvement it brings to the
// grid. Scores are deterministic for equal inputs.
type Scorer struct {
	analyzer *analysis.Engine
	weights  Weights
}

// NewScorer creates a scorer over the analysis engine's metrics
func NewScorer(analyzer *analysis.Engine, weights Weights) *Scorer {
	return &Scorer{analyzer: analyzer, weights: weights}
}

// Measure returns the metrics of a grid
func (s *Scorer) Measure(g *rotation.Grid, recipes map[recipe.ID]*recipe.Recipe) analysis.Metrics {
	return s.analyzer.Measure(g.Template(), g.Slots(), recipes)
}

// Score is Σ weight × improvement over the focused metrics. Cost is
// expressed as the relative saving in percent so it is on the same 0–100
// scale as the other metrics.
func (s *Scorer) Score(before, after analysis.Metrics, focus Focus) float64 {
	focus = focus.Normalize()
	score := 0.0
	if focus.Variety {
		score += s.weights.Variety * (after.Variety - before.Variety)
	}
	if focus.Seasonality {
		score += s.weights.Seasonality * (after.SeasonalFit - before.SeasonalFit)
	}
	if focus.Cost && before.AverageCost > 0 {
		score += s.weights.Cost * 100 * (before.AverageCost - after.AverageCost) / before.AverageCost
	}
	return score
}
