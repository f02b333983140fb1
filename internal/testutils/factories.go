// Package testutils provides test data factories and mocks shared by the
// application and adapter tests.
package testutils

import (
	"fmt"
	"time"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

var (
	categories = []string{"soup", "main", "side", "dessert"}
	allergens  = []string{"gluten", "milk", "egg", "celery", "mustard", "nuts", "soy"}
	seasons    = []recipe.Season{recipe.SeasonAll, recipe.SeasonSpring, recipe.SeasonSummer, recipe.SeasonAutumn, recipe.SeasonWinter}
	pantry     = []string{"potatoes", "onions", "butter", "salt", "vegetable stock", "flour", "yeast", "carrots", "cream"}
)

// RecipeFactory creates reproducible test recipes
type RecipeFactory struct {
	faker  *gofakeit.Faker
	nextID recipe.ID
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{faker: gofakeit.New(seed), nextID: 1}
}

// RecipeOption customises a generated recipe
type RecipeOption func(*recipe.Recipe)

// WithCategory sets the category
func WithCategory(category string) RecipeOption {
	return func(r *recipe.Recipe) { r.Category = category }
}

// WithSeason sets the season tag
func WithSeason(season recipe.Season) RecipeOption {
	return func(r *recipe.Recipe) { r.Season = season }
}

// WithCost sets the cost per portion
func WithCost(cost float64) RecipeOption {
	return func(r *recipe.Recipe) { r.CostPerPortion = cost }
}

// WithAllergens replaces the allergen list
func WithAllergens(codes ...string) RecipeOption {
	return func(r *recipe.Recipe) { r.Allergens = codes }
}

// WithIngredients replaces the ingredient list
func WithIngredients(ings ...recipe.Ingredient) RecipeOption {
	return func(r *recipe.Recipe) { r.Ingredients = ings }
}

// WithPortions sets the baseline portions
func WithPortions(n int) RecipeOption {
	return func(r *recipe.Recipe) { r.Portions = n }
}

// Recipe returns a valid recipe with the next sequential id
func (f *RecipeFactory) Recipe(opts ...RecipeOption) *recipe.Recipe {
	r := &recipe.Recipe{
		ID:             f.nextID,
		Name:           fmt.Sprintf("%s %s", f.faker.Adjective(), f.faker.Noun()),
		Category:       f.faker.RandomString(categories),
		Portions:       f.faker.Number(2, 12),
		Allergens:      []string{f.faker.RandomString(allergens)},
		Season:         seasons[f.faker.Number(0, len(seasons)-1)],
		CostPerPortion: f.faker.Price(0.5, 8),
	}
	for i := 0; i < f.faker.Number(2, 5); i++ {
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{
			Name:     f.faker.RandomString(pantry),
			Quantity: float64(f.faker.Number(1, 500)),
			Unit:     "g",
		})
	}
	f.nextID++
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recipes returns n recipes
func (f *RecipeFactory) Recipes(n int, opts ...RecipeOption) []*recipe.Recipe {
	out := make([]*recipe.Recipe, n)
	for i := range out {
		out[i] = f.Recipe(opts...)
	}
	return out
}

// NewTemplate creates a template with the given number of fresh locations
func NewTemplate(weekCount, locations int) *rotation.Template {
	locs := make([]uuid.UUID, locations)
	for i := range locs {
		locs[i] = uuid.New()
	}
	t, err := rotation.NewTemplate(fmt.Sprintf("cycle-%d", time.Now().UnixNano()), weekCount, locs...)
	if err != nil {
		panic(err)
	}
	t.Events()
	return t
}

// SlotKey builds a key at the template's first location
func SlotKey(t *rotation.Template, week int, day time.Weekday, meal rotation.Meal, course rotation.Course) rotation.SlotKey {
	return rotation.SlotKey{
		TemplateID: t.ID(),
		WeekNr:     week,
		Day:        day,
		Meal:       meal,
		Course:     course,
		LocationID: t.Locations()[0],
	}
}
