// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"time"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
)

// RecipeToModel converts a domain recipe to a GORM model
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	model := &RecipeModel{
		ID:             int64(r.ID),
		Name:           r.Name,
		Category:       r.Category,
		Portions:       r.Portions,
		Allergens:      StringSlice(r.Allergens),
		Tags:           StringSlice(r.Tags),
		Season:         string(r.Season.Normalize()),
		CostPerPortion: r.CostPerPortion,
	}
	for _, ing := range r.Ingredients {
		model.Ingredients = append(model.Ingredients, IngredientRow{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}
	return model
}

// ModelToRecipe converts a GORM model to a domain recipe
func ModelToRecipe(m *RecipeModel) *recipe.Recipe {
	r := &recipe.Recipe{
		ID:             recipe.ID(m.ID),
		Name:           m.Name,
		Category:       m.Category,
		Portions:       m.Portions,
		Allergens:      []string(m.Allergens),
		Tags:           []string(m.Tags),
		Season:         recipe.Season(m.Season).Normalize(),
		CostPerPortion: m.CostPerPortion,
	}
	for _, row := range m.Ingredients {
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{
			Name:     row.Name,
			Quantity: row.Quantity,
			Unit:     row.Unit,
		})
	}
	return r
}

// LinkToModel converts a sub-recipe link
func LinkToModel(l recipe.SubRecipeLink) *SubRecipeLinkModel {
	return &SubRecipeLinkModel{
		ParentID:          int64(l.ParentID),
		ChildID:           int64(l.ChildID),
		PortionMultiplier: l.PortionMultiplier,
	}
}

// ModelToLink converts a stored composition edge
func ModelToLink(m *SubRecipeLinkModel) recipe.SubRecipeLink {
	return recipe.SubRecipeLink{
		ParentID:          recipe.ID(m.ParentID),
		ChildID:           recipe.ID(m.ChildID),
		PortionMultiplier: m.PortionMultiplier,
	}
}

// TemplateToModel converts a rotation template
func TemplateToModel(t *rotation.Template) *TemplateModel {
	return &TemplateModel{
		ID:        t.ID(),
		Name:      t.Name(),
		WeekCount: t.WeekCount(),
		Locations: UUIDList(t.Locations()),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}
}

// ModelToTemplate rebuilds a template without raising events
func ModelToTemplate(m *TemplateModel) *rotation.Template {
	return rotation.RestoreTemplate(m.ID, m.Name, m.WeekCount, m.Locations, m.CreatedAt, m.UpdatedAt)
}

// SlotToModel converts a slot; an unassigned recipe maps to NULL
func SlotToModel(s rotation.Slot) *SlotModel {
	model := &SlotModel{
		TemplateID: s.Key.TemplateID,
		WeekNr:     s.Key.WeekNr,
		Day:        int(s.Key.Day),
		Meal:       string(s.Key.Meal),
		Course:     string(s.Key.Course),
		LocationID: s.Key.LocationID,
		Portions:   s.Portions,
		UpdatedAt:  time.Now(),
	}
	if s.Filled() {
		id := int64(s.RecipeID)
		model.RecipeID = &id
	}
	return model
}

// ModelToSlot converts a stored grid cell
func ModelToSlot(m *SlotModel) rotation.Slot {
	s := rotation.Slot{
		Key: rotation.SlotKey{
			TemplateID: m.TemplateID,
			WeekNr:     m.WeekNr,
			Day:        time.Weekday(m.Day),
			Meal:       rotation.Meal(m.Meal),
			Course:     rotation.Course(m.Course),
			LocationID: m.LocationID,
		},
		Portions: m.Portions,
	}
	if m.RecipeID != nil {
		s.RecipeID = recipe.ID(*m.RecipeID)
	}
	return s
}
