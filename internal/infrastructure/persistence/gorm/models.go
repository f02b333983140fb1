// Package gorm provides GORM model definitions for the application
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeModel represents the GORM model for catalogue recipes
type RecipeModel struct {
	ID             int64          `gorm:"primaryKey;autoIncrement"`
	Name           string         `gorm:"type:varchar(255);not null;index"`
	Category       string         `gorm:"type:varchar(50);index"`
	Portions       int            `gorm:"not null;default:1"`
	Allergens      StringSlice    `gorm:"type:json"`
	Tags           StringSlice    `gorm:"type:json"`
	Season         string         `gorm:"type:varchar(20);default:'all'"`
	Ingredients    IngredientList `gorm:"type:json"`
	CostPerPortion float64        `gorm:"default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SubRecipeLinkModel is one edge of the composition graph
type SubRecipeLinkModel struct {
	ParentID          int64   `gorm:"primaryKey;autoIncrement:false"`
	ChildID           int64   `gorm:"primaryKey;autoIncrement:false;index"`
	PortionMultiplier float64 `gorm:"not null"`
	CreatedAt         time.Time
}

// TemplateModel represents a rotation template. Locations keep their
// activation order.
type TemplateModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	WeekCount int       `gorm:"not null"`
	Locations UUIDList  `gorm:"type:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SlotModel is one cell of the rotation grid. A NULL recipe id is an
// unassigned slot.
type SlotModel struct {
	ID         uint      `gorm:"primaryKey"`
	TemplateID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_slot_key,priority:1"`
	WeekNr     int       `gorm:"not null;uniqueIndex:idx_slot_key,priority:2"`
	Day        int       `gorm:"not null;uniqueIndex:idx_slot_key,priority:3"`
	Meal       string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_slot_key,priority:4"`
	Course     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_slot_key,priority:5"`
	LocationID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_slot_key,priority:6;index"`
	RecipeID   *int64    `gorm:"index"`
	Portions   int       `gorm:"not null;default:1"`
	UpdatedAt  time.Time
}

// StringSlice custom type for handling string slices in JSON
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}
	return scanJSON(value, s, "StringSlice")
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return marshalJSON(s)
}

// IngredientRow is the stored form of one ingredient line
type IngredientRow struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// IngredientList stores ingredient lines as a JSON array
type IngredientList []IngredientRow

// Scan implements the sql.Scanner interface
func (l *IngredientList) Scan(value interface{}) error {
	if value == nil {
		*l = IngredientList{}
		return nil
	}
	return scanJSON(value, l, "IngredientList")
}

// Value implements the driver.Valuer interface
func (l IngredientList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	return marshalJSON(l)
}

// UUIDList stores an ordered list of ids as a JSON array
type UUIDList []uuid.UUID

// Scan implements the sql.Scanner interface
func (u *UUIDList) Scan(value interface{}) error {
	if value == nil {
		*u = UUIDList{}
		return nil
	}
	return scanJSON(value, u, "UUIDList")
}

// Value implements the driver.Valuer interface
func (u UUIDList) Value() (driver.Value, error) {
	if len(u) == 0 {
		return "[]", nil
	}
	return marshalJSON(u)
}

func scanJSON(value interface{}, dst interface{}, name string) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into %s", value, name)
	}
}

// marshalJSON returns a string so both sqlite text and postgres json
// columns accept the value
func marshalJSON(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BeforeCreate hook for TemplateModel
func (t *TemplateModel) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName methods for custom table names
func (RecipeModel) TableName() string {
	return "recipes"
}

func (SubRecipeLinkModel) TableName() string {
	return "sub_recipe_links"
}

func (TemplateModel) TableName() string {
	return "rotation_templates"
}

func (SlotModel) TableName() string {
	return "rotation_slots"
}

// AllModels lists every model for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&RecipeModel{},
		&SubRecipeLinkModel{},
		&TemplateModel{},
		&SlotModel{},
	}
}
