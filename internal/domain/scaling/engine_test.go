package scaling

import (
	"testing"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ScalingTestSuite struct {
	suite.Suite
	engine *Engine
}

func (s *ScalingTestSuite) SetupTest() {
	e, err := NewEngine(DefaultCurve())
	require.NoError(s.T(), err)
	s.engine = e
}

func (s *ScalingTestSuite) TestStandardIsLinear() {
	res, err := s.engine.Scale(recipe.Ingredient{Name: "Flour", Quantity: 100, Unit: "g"}, 4, 40)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), ClassStandard, res.Class)
	assert.Equal(s.T(), 1000.0, res.ScaledQuantity)
	assert.Equal(s.T(), 10.0, res.Factor)
}

func (s *ScalingTestSuite) TestSubLinearOrdering() {
	scaled := func(name string) float64 {
		res, err := s.engine.Preview(name, 100, "g", 4, 40)
		require.NoError(s.T(), err)
		return res.ScaledQuantity
	}

	spice := scaled("black pepper")
	leavening := scaled("baking powder")
	fat := scaled("butter")
	liquid := scaled("vegetable stock")
	standard := scaled("potatoes")

	assert.Less(s.T(), spice, 1000.0)
	assert.Less(s.T(), leavening, 1000.0)
	assert.Less(s.T(), fat, spice)
	assert.Less(s.T(), fat, leavening)
	assert.Less(s.T(), spice, liquid)
	assert.Less(s.T(), liquid, standard)
}

func (s *ScalingTestSuite) TestDownscalingKeepsOrdering() {
	fat, err := s.engine.Preview("Olivenöl", 100, "ml", 40, 4)
	require.NoError(s.T(), err)
	standard, err := s.engine.Preview("Karotten", 100, "g", 40, 4)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), 10.0, standard.ScaledQuantity)
	assert.Greater(s.T(), fat.ScaledQuantity, standard.ScaledQuantity)
}

func (s *ScalingTestSuite) TestEqualPortionsIsIdentity() {
	for _, name := range []string{"salt", "yeast", "ghee", "milk", "rice"} {
		res, err := s.engine.Preview(name, 123.4567, "g", 12, 12)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), 1.0, res.Factor, name)
		assert.Equal(s.T(), 123.4567, res.ScaledQuantity, name)
	}
}

func (s *ScalingTestSuite) TestNonPositivePortions() {
	for _, tc := range [][2]int{{0, 4}, {4, 0}, {-1, 4}, {4, -3}} {
		_, err := s.engine.Preview("salt", 1, "g", tc[0], tc[1])
		assert.ErrorIs(s.T(), err, ErrNonPositivePortions)
	}
}

func (s *ScalingTestSuite) TestScaleMatchesPreview() {
	ing := recipe.Ingredient{Name: "Sahne", Quantity: 250, Unit: "ml"}
	a, err := s.engine.Scale(ing, 6, 25)
	require.NoError(s.T(), err)
	b, err := s.engine.Preview(ing.Name, ing.Quantity, ing.Unit, 6, 25)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), a, b)
}

func TestScalingTestSuite(t *testing.T) {
	suite.Run(t, new(ScalingTestSuite))
}

func TestClassify(t *testing.T) {
	cases := map[string]Class{
		"Buttermilk":         ClassLiquid,
		"Butter":             ClassCookingFat,
		"Rapsöl":             ClassCookingFat,
		"Trockenhefe":        ClassLeavening,
		"baking soda":        ClassLeavening,
		"Sea Salt":           ClassSpiceHerb,
		"frische Petersilie": ClassSpiceHerb,
		"chicken stock":      ClassLiquid,
		"Schlagsahne":        ClassLiquid,
		"onions":             ClassStandard,
		"olive oil":          ClassCookingFat,
		"Meersalz":           ClassSpiceHerb,
		"cloves":             ClassSpiceHerb,
		"Weißweinessig":      ClassLiquid,
		"Kräuterbutter":      ClassCookingFat,
	}
	for name, want := range cases {
		assert.Equal(t, want, Classify(name), name)
	}
}

func TestClassify_MainIngredientsStayLinear(t *testing.T) {
	engine, err := NewEngine(DefaultCurve())
	require.NoError(t, err)

	names := []string{
		"Schweinefleisch",
		"butternut squash",
		"boiled potatoes",
		"fettuccine",
		"red bell pepper",
		"Salzkartoffeln",
		"Rindfleisch",
	}
	for _, name := range names {
		assert.Equal(t, ClassStandard, Classify(name), name)

		res, err := engine.Preview(name, 1000, "g", 4, 40)
		require.NoError(t, err)
		assert.Equal(t, 10000.0, res.ScaledQuantity, name)
	}
}

func TestCurveValidate(t *testing.T) {
	assert.NoError(t, DefaultCurve().Validate())

	c := DefaultCurve()
	c.FatExponent = 0.8
	assert.ErrorIs(t, c.Validate(), ErrInvalidCurve)

	c = DefaultCurve()
	c.LiquidExponent = 1.2
	_, err := NewEngine(c)
	assert.ErrorIs(t, err, ErrInvalidCurve)
}
