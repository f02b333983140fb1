// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	gormModels "github.com/alchemorsel/kitchenops/internal/infrastructure/persistence/gorm"
)

// SetupDatabase creates and configures the SQLite database
func SetupDatabase(dbPath string, logLevel logger.LogLevel) (*gorm.DB, error) {
	// Use in-memory database if no path provided
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// an in-memory database lives in a single connection
	if dbPath == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(gormModels.AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// SeedDatabase populates an empty catalogue with a few canteen recipes
func SeedDatabase(db *gorm.DB) error {
	var recipeCount int64
	if err := db.Model(&gormModels.RecipeModel{}).Count(&recipeCount).Error; err != nil {
		return err
	}
	if recipeCount > 0 {
		return nil // Already seeded
	}

	demoRecipes := []gormModels.RecipeModel{
		{
			Name:      "Pumpkin soup",
			Category:  "soup",
			Portions:  10,
			Allergens: gormModels.StringSlice{"celery", "milk"},
			Season:    "autumn",
			Ingredients: gormModels.IngredientList{
				{Name: "pumpkin", Quantity: 2000, Unit: "g"},
				{Name: "vegetable stock", Quantity: 1500, Unit: "ml"},
				{Name: "cream", Quantity: 200, Unit: "ml"},
				{Name: "nutmeg", Quantity: 2, Unit: "g"},
			},
			CostPerPortion: 0.9,
		},
		{
			Name:      "Beef goulash",
			Category:  "main",
			Portions:  10,
			Allergens: gormModels.StringSlice{"celery"},
			Season:    "winter",
			Ingredients: gormModels.IngredientList{
				{Name: "beef", Quantity: 1800, Unit: "g"},
				{Name: "onion", Quantity: 900, Unit: "g"},
				{Name: "paprika", Quantity: 30, Unit: "g"},
				{Name: "lard", Quantity: 60, Unit: "g"},
			},
			CostPerPortion: 3.4,
		},
		{
			Name:      "Vegetable lasagne",
			Category:  "main",
			Portions:  12,
			Allergens: gormModels.StringSlice{"gluten", "milk", "egg"},
			Season:    "all",
			Ingredients: gormModels.IngredientList{
				{Name: "lasagne sheets", Quantity: 750, Unit: "g"},
				{Name: "zucchini", Quantity: 1200, Unit: "g"},
				{Name: "milk", Quantity: 1000, Unit: "ml"},
				{Name: "butter", Quantity: 80, Unit: "g"},
			},
			CostPerPortion: 2.1,
		},
		{
			Name:      "Strawberry quark",
			Category:  "dessert",
			Portions:  8,
			Allergens: gormModels.StringSlice{"milk"},
			Season:    "summer",
			Ingredients: gormModels.IngredientList{
				{Name: "quark", Quantity: 1000, Unit: "g"},
				{Name: "strawberries", Quantity: 600, Unit: "g"},
				{Name: "vanilla sugar", Quantity: 16, Unit: "g"},
			},
			CostPerPortion: 1.2,
		},
		{
			Name:     "Bechamel",
			Category: "component",
			Portions: 10,
			Season:   "all",
			Ingredients: gormModels.IngredientList{
				{Name: "milk", Quantity: 1000, Unit: "ml"},
				{Name: "butter", Quantity: 60, Unit: "g"},
				{Name: "flour", Quantity: 60, Unit: "g"},
			},
			CostPerPortion: 0.4,
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for i := range demoRecipes {
			if err := tx.Create(&demoRecipes[i]).Error; err != nil {
				return fmt.Errorf("failed to create demo recipe: %w", err)
			}
		}
		// the lasagne uses half a portion of bechamel per portion
		link := gormModels.SubRecipeLinkModel{
			ParentID:          demoRecipes[2].ID,
			ChildID:           demoRecipes[4].ID,
			PortionMultiplier: 0.5,
		}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("failed to create demo sub-recipe link: %w", err)
		}
		return nil
	})
}
