// Package scaling converts ingredient quantities between portion counts.
// Most ingredients scale linearly; seasoning, leavening, fat and liquids
// scale sub-linearly as r^e with a per-class exponent e ≤ 1.
package scaling

import (
	"errors"
	"fmt"
	"math"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
)

var (
	// ErrNonPositivePortions is returned when either portion count is ≤ 0
	ErrNonPositivePortions = errors.New("portion count must be positive")

	// ErrInvalidCurve is returned for exponents that break the class ordering
	ErrInvalidCurve = errors.New("scaling exponents must satisfy 0 < fat < spice, leavening < liquid <= 1")
)

// Curve holds the damping exponents of the sub-linear classes
type Curve struct {
	SpiceExponent     float64
	LeaveningExponent float64
	FatExponent       float64
	LiquidExponent    float64
}

// DefaultCurve returns the default exponents
func DefaultCurve() Curve {
	return Curve{
		SpiceExponent:     0.75,
		LeaveningExponent: 0.75,
		FatExponent:       0.6,
		LiquidExponent:    0.9,
	}
}

// Validate enforces Fat < Spice/Leavening < Liquid ≤ Standard
func (c Curve) Validate() error {
	ok := c.FatExponent > 0 &&
		c.FatExponent < c.SpiceExponent &&
		c.FatExponent < c.LeaveningExponent &&
		c.SpiceExponent < c.LiquidExponent &&
		c.LeaveningExponent < c.LiquidExponent &&
		c.LiquidExponent <= 1
	if !ok {
		return fmt.Errorf("%w: %+v", ErrInvalidCurve, c)
	}
	return nil
}

// exponent dispatches a class to its curve exponent
func (c Curve) exponent(class Class) float64 {
	switch class {
	case ClassSpiceHerb:
		return c.SpiceExponent
	case ClassLeavening:
		return c.LeaveningExponent
	case ClassCookingFat:
		return c.FatExponent
	case ClassLiquid:
		return c.LiquidExponent
	default:
		return 1
	}
}

// Result describes one scaled ingredient
type Result struct {
	Name           string  `json:"name"`
	Unit           string  `json:"unit"`
	Quantity       float64 `json:"quantity"`
	ScaledQuantity float64 `json:"scaled_quantity"`
	Factor         float64 `json:"factor"`
	Class          Class   `json:"class"`
}

// Engine scales ingredients along a Curve
type Engine struct {
	curve Curve
}

// NewEngine creates an engine. The curve must validate.
func NewEngine(curve Curve) (*Engine, error) {
	if err := curve.Validate(); err != nil {
		return nil, err
	}
	return &Engine{curve: curve}, nil
}

// Curve returns the engine's exponents
func (e *Engine) Curve() Curve { return e.curve }

// Scale converts an ingredient from `from` portions to `to` portions
func (e *Engine) Scale(ing recipe.Ingredient, from, to int) (Result, error) {
	return e.Preview(ing.Name, ing.Quantity, ing.Unit, from, to)
}

// Preview scales a free-form ingredient description
func (e *Engine) Preview(name string, quantity float64, unit string, from, to int) (Result, error) {
	if from <= 0 || to <= 0 {
		return Result{}, fmt.Errorf("%w: from=%d to=%d", ErrNonPositivePortions, from, to)
	}

	class := Classify(name)
	res := Result{Name: name, Unit: unit, Quantity: quantity, Class: class, Factor: 1, ScaledQuantity: quantity}
	if from == to {
		return res, nil
	}

	factor := math.Pow(float64(to)/float64(from), e.curve.exponent(class))
	res.Factor = round3(factor)
	res.ScaledQuantity = round3(quantity * factor)
	return res, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
