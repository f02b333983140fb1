// Package analysis computes the read-only quality metrics of a rotation
// grid: fill, variety, duplicates, category and allergen mix, weekly
// balance and seasonal fit.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/google/uuid"
)

// Seasonal fit points per filled slot
const (
	seasonMatchPoints = 100
	seasonAllPoints   = 75
)

// Config tunes the engine
type Config struct {
	VarietyWindowWeeks int
	HotspotShare       float64
	Hemisphere         recipe.Hemisphere
}

// DefaultConfig returns the default analysis settings
func DefaultConfig() Config {
	return Config{
		VarietyWindowWeeks: 2,
		HotspotShare:       0.5,
		Hemisphere:         recipe.HemisphereNorth,
	}
}

// RecipeUsage counts how often a recipe is placed in the grid
type RecipeUsage struct {
	RecipeID   recipe.ID `json:"recipe_id"`
	RecipeName string    `json:"recipe_name"`
	Count      int       `json:"count"`
}

// WeekBalance is the fill state of one rotation week
type WeekBalance struct {
	WeekNr int `json:"week_nr"`
	Filled int `json:"filled"`
	Total  int `json:"total"`
}

// Bundle is the full analysis of one template
type Bundle struct {
	TemplateID               uuid.UUID        `json:"template_id"`
	GeneratedAt              time.Time        `json:"generated_at"`
	Season                   recipe.Season    `json:"season"`
	FilledSlots              int              `json:"filled_slots"`
	TotalSlots               int              `json:"total_slots"`
	FillPercentage           int              `json:"fill_percentage"`
	VarietyScore             int              `json:"variety_score"`
	DuplicatesPerWeek        map[int]int      `json:"duplicates_per_week"`
	RecipesUsedMultipleTimes []RecipeUsage    `json:"recipes_used_multiple_times"`
	CategoryDistribution     map[string]int   `json:"category_distribution"`
	AllergenCoverage         map[string]int   `json:"allergen_coverage"`
	AllergenHotspots         map[int][]string `json:"allergen_hotspots"`
	WeeklyBalance            []WeekBalance    `json:"weekly_balance"`
	SeasonalFit              int              `json:"seasonal_fit"`
}

// Engine is a pure function of slots, recipe metadata and the clock
type Engine struct {
	cfg   Config
	clock func() time.Time
}

// NewEngine creates an analysis engine. A nil clock uses time.Now.
func NewEngine(cfg Config, clock func() time.Time) *Engine {
	if cfg.VarietyWindowWeeks < 1 {
		cfg.VarietyWindowWeeks = 1
	}
	if cfg.HotspotShare <= 0 || cfg.HotspotShare > 1 {
		cfg.HotspotShare = DefaultConfig().HotspotShare
	}
	if cfg.Hemisphere == "" {
		cfg.Hemisphere = recipe.HemisphereNorth
	}
	if clock == nil {
		clock = time.Now
	}
	return &Engine{cfg: cfg, clock: clock}
}

// CurrentSeason is the season the engine scores against
func (e *Engine) CurrentSeason() recipe.Season {
	return recipe.SeasonAt(e.clock(), e.cfg.Hemisphere)
}

// Analyze computes the bundle. Slots that are unfilled or belong to other
// templates are ignored; neither input is mutated.
func (e *Engine) Analyze(t *rotation.Template, slots []rotation.Slot, recipes map[recipe.ID]*recipe.Recipe) *Bundle {
	filled := make([]rotation.Slot, 0, len(slots))
	for _, s := range slots {
		if s.Filled() && s.Key.TemplateID == t.ID() {
			filled = append(filled, s)
		}
	}

	season := e.CurrentSeason()
	b := &Bundle{
		TemplateID:           t.ID(),
		GeneratedAt:          e.clock(),
		Season:               season,
		FilledSlots:          len(filled),
		TotalSlots:           t.TotalSlots(),
		FillPercentage:       rotation.Percent(len(filled), t.TotalSlots()),
		DuplicatesPerWeek:    duplicatesPerWeek(t, filled),
		CategoryDistribution: map[string]int{},
		AllergenCoverage:     map[string]int{},
		AllergenHotspots:     map[int][]string{},
	}

	b.VarietyScore = e.varietyScore(t, filled, b.DuplicatesPerWeek)
	b.RecipesUsedMultipleTimes = multipleUse(filled, recipes)
	b.WeeklyBalance = weeklyBalance(t, filled)
	b.SeasonalFit = seasonalFit(filled, recipes, season)

	weekFilled := map[int]int{}
	weekAllergens := map[int]map[string]int{}
	for _, s := range filled {
		r := recipes[s.RecipeID]
		b.CategoryDistribution[r.CategoryOrDefault()]++
		weekFilled[s.Key.WeekNr]++
		if r == nil {
			continue
		}
		for _, a := range r.Allergens {
			b.AllergenCoverage[a]++
			if weekAllergens[s.Key.WeekNr] == nil {
				weekAllergens[s.Key.WeekNr] = map[string]int{}
			}
			weekAllergens[s.Key.WeekNr][a]++
		}
	}
	for week, counts := range weekAllergens {
		var hot []string
		for a, n := range counts {
			if float64(n)/float64(weekFilled[week]) > e.cfg.HotspotShare {
				hot = append(hot, a)
			}
		}
		if len(hot) > 0 {
			sort.Strings(hot)
			b.AllergenHotspots[week] = hot
		}
	}
	return b
}

// Metrics are the unrounded scores used to compare two versions of a grid
type Metrics struct {
	Variety     float64 `json:"variety"`
	SeasonalFit float64 `json:"seasonal_fit"`
	AverageCost float64 `json:"average_cost"`
}

// Measure computes Metrics over the filled slots of t
func (e *Engine) Measure(t *rotation.Template, slots []rotation.Slot, recipes map[recipe.ID]*recipe.Recipe) Metrics {
	filled := make([]rotation.Slot, 0, len(slots))
	for _, s := range slots {
		if s.Filled() && s.Key.TemplateID == t.ID() {
			filled = append(filled, s)
		}
	}
	m := Metrics{Variety: 100, SeasonalFit: seasonalAverage(filled, recipes, e.CurrentSeason())}
	if len(filled) == 0 {
		return m
	}

	m.Variety = math.Max(0, 100-e.varietyPenalty(t, filled, duplicatesPerWeek(t, filled)))

	cost := 0.0
	for _, s := range filled {
		if r := recipes[s.RecipeID]; r != nil {
			cost += r.CostPerPortion
		}
	}
	m.AverageCost = cost / float64(len(filled))
	return m
}

type weekLoc struct {
	week int
	loc  uuid.UUID
}

// recipesByWeekLocation groups the distinct recipes of each (week, location)
func recipesByWeekLocation(slots []rotation.Slot) (map[weekLoc]map[recipe.ID]struct{}, map[weekLoc]int) {
	distinct := map[weekLoc]map[recipe.ID]struct{}{}
	count := map[weekLoc]int{}
	for _, s := range slots {
		k := weekLoc{s.Key.WeekNr, s.Key.LocationID}
		if distinct[k] == nil {
			distinct[k] = map[recipe.ID]struct{}{}
		}
		distinct[k][s.RecipeID] = struct{}{}
		count[k]++
	}
	return distinct, count
}

// duplicatesPerWeek sums, per week, the slots that repeat a recipe already
// served in the same week at the same location.
func duplicatesPerWeek(t *rotation.Template, slots []rotation.Slot) map[int]int {
	out := make(map[int]int, t.WeekCount())
	for w := 1; w <= t.WeekCount(); w++ {
		out[w] = 0
	}
	distinct, count := recipesByWeekLocation(slots)
	for k, n := range count {
		out[k.week] += n - len(distinct[k])
	}
	return out
}

// varietyScore penalises in-week duplicates fully and repeats of a recipe
// within the sliding window of preceding weeks (cyclic) by half.
func (e *Engine) varietyScore(t *rotation.Template, slots []rotation.Slot, dups map[int]int) int {
	if len(slots) == 0 {
		return 100
	}
	penalty := math.Round(e.varietyPenalty(t, slots, dups))
	return clamp(100-int(penalty), 0, 100)
}

func (e *Engine) varietyPenalty(t *rotation.Template, slots []rotation.Slot, dups map[int]int) float64 {
	weekDuplicates := 0
	for _, n := range dups {
		weekDuplicates += n
	}

	lookback := e.cfg.VarietyWindowWeeks - 1
	if lookback > t.WeekCount()-1 {
		lookback = t.WeekCount() - 1
	}

	repeats := 0
	distinct, _ := recipesByWeekLocation(slots)
	for k, ids := range distinct {
		for id := range ids {
			for back := 1; back <= lookback; back++ {
				prev := weekLoc{week: cyclicWeek(k.week-back, t.WeekCount()), loc: k.loc}
				if _, ok := distinct[prev][id]; ok {
					repeats++
					break
				}
			}
		}
	}

	return 100 * (float64(weekDuplicates) + 0.5*float64(repeats)) / float64(len(slots))
}

func cyclicWeek(w, count int) int {
	return ((w-1)%count+count)%count + 1
}

func multipleUse(slots []rotation.Slot, recipes map[recipe.ID]*recipe.Recipe) []RecipeUsage {
	counts := map[recipe.ID]int{}
	for _, s := range slots {
		counts[s.RecipeID]++
	}
	out := []RecipeUsage{}
	for id, n := range counts {
		if n < 2 {
			continue
		}
		u := RecipeUsage{RecipeID: id, Count: n}
		if r := recipes[id]; r != nil {
			u.RecipeName = r.Name
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].RecipeID < out[j].RecipeID
	})
	return out
}

func weeklyBalance(t *rotation.Template, slots []rotation.Slot) []WeekBalance {
	out := make([]WeekBalance, t.WeekCount())
	for i := range out {
		out[i] = WeekBalance{WeekNr: i + 1, Total: t.SlotsPerWeek()}
	}
	for _, s := range slots {
		if s.Key.WeekNr >= 1 && s.Key.WeekNr <= len(out) {
			out[s.Key.WeekNr-1].Filled++
		}
	}
	return out
}

// seasonalFit averages per-slot points. Recipes without metadata count as
// all-season.
func seasonalFit(slots []rotation.Slot, recipes map[recipe.ID]*recipe.Recipe, current recipe.Season) int {
	return int(math.Round(seasonalAverage(slots, recipes, current)))
}

func seasonalAverage(slots []rotation.Slot, recipes map[recipe.ID]*recipe.Recipe, current recipe.Season) float64 {
	if len(slots) == 0 {
		return 100
	}
	total := 0
	for _, s := range slots {
		total += SeasonPoints(recipes[s.RecipeID], current)
	}
	return float64(total) / float64(len(slots))
}

// SeasonPoints scores one recipe against the current season
func SeasonPoints(r *recipe.Recipe, current recipe.Season) int {
	if r == nil {
		return seasonAllPoints
	}
	switch r.Season.Normalize() {
	case current:
		return seasonMatchPoints
	case recipe.SeasonAll:
		return seasonAllPoints
	default:
		return 0
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
