package planner

import (
	"context"
	"errors"
	"testing"

	"mealbudget"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tablePricer prices items from a fixed table; unknown items stay unpriced.
type tablePricer struct {
	prices map[string]float64
	calls  int
	err    error
}

func (p *tablePricer) PriceList(ctx context.Context, list mealbudget.GroceryList) (mealbudget.GroceryList, error) {
	p.calls++
	if p.err != nil {
		return mealbudget.GroceryList{}, p.err
	}
	out := list
	out.Items = make([]mealbudget.GroceryItem, len(list.Items))
	copy(out.Items, list.Items)
	for i := range out.Items {
		if amount, ok := p.prices[mealbudget.NormalizeItemName(out.Items[i].Name)]; ok {
			a := amount
			out.Items[i].UnitPrice = &a
		} else {
			out.Incomplete = true
		}
	}
	return out, nil
}

// weekOf builds a catalog response: 7 distinct single-ingredient recipes, one
// per day, each ingredient with qty 1 so the table price is the day cost.
func weekOf(ingredients ...string) []mealbudget.Recipe {
	out := make([]mealbudget.Recipe, len(ingredients))
	for i, ing := range ingredients {
		out[i] = testRecipe("Meal "+ing, mealbudget.Ingredient{Name: ing, Qty: 1, Unit: "unit", Importance: 3})
	}
	return out
}

func newReviserUnderTest(cat *mockCatalog, pricer mealbudget.ListPricer) (*Generator, *BudgetReviser) {
	gen := NewGenerator(cat, GeneratorConfig{RepeatAllowance: 0, ReplaceCount: 1})
	reviser := NewBudgetReviser(gen, NewBuilder(), pricer, 3, mealbudget.NewNoOpSessionLogger())
	return gen, reviser
}

func TestReviserWithinBudgetFirstPass(t *testing.T) {
	cat := &mockCatalog{responses: [][]mealbudget.Recipe{
		weekOf("rice", "beans", "eggs", "pasta", "lentils", "tofu", "oats"),
	}}
	pricer := &tablePricer{prices: map[string]float64{
		"rice": 5, "beans": 5, "eggs": 5, "pasta": 5, "lentils": 5, "tofu": 5, "oats": 5,
	}}
	gen, reviser := newReviserUnderTest(cat, pricer)

	prefs := mealbudget.UserPreferences{WeeklyBudget: 50}
	plan, err := gen.Generate(context.Background(), prefs)
	require.NoError(t, err)

	res, err := reviser.Run(context.Background(), prefs, plan)
	require.NoError(t, err)

	assert.True(t, res.WithinBudget)
	assert.Equal(t, 0, res.Revisions)
	assert.InDelta(t, 35, res.TotalCost, 1e-9)
	assert.Equal(t, 1, pricer.calls, "no revision means a single pricing pass")
}

func TestReviserEqualToBudgetIsWithinBudget(t *testing.T) {
	cat := &mockCatalog{responses: [][]mealbudget.Recipe{
		weekOf("rice", "beans", "eggs", "pasta", "lentils", "tofu", "oats"),
	}}
	pricer := &tablePricer{prices: map[string]float64{
		"rice": 5, "beans": 5, "eggs": 5, "pasta": 5, "lentils": 5, "tofu": 5, "oats": 5,
	}}
	gen, reviser := newReviserUnderTest(cat, pricer)

	prefs := mealbudget.UserPreferences{WeeklyBudget: 35} // exactly the total
	plan, err := gen.Generate(context.Background(), prefs)
	require.NoError(t, err)

	res, err := reviser.Run(context.Background(), prefs, plan)
	require.NoError(t, err)

	assert.True(t, res.WithinBudget, "comparison is inclusive")
	assert.Equal(t, 0, res.Revisions)
}

func TestReviserOneRevisionBringsPlanUnderBudget(t *testing.T) {
	// Initial week prices at 62; replacing the lobster day with beans (5)
	// brings the total to 47 against a budget of 50.
	cat := &mockCatalog{responses: [][]mealbudget.Recipe{
		weekOf("lobster", "rice", "onion", "pasta", "eggs", "tofu", "oats"),
		weekOf("beans"),
	}}
	pricer := &tablePricer{prices: map[string]float64{
		"lobster": 20, "rice": 7, "onion": 7, "pasta": 7, "eggs": 7, "tofu": 7, "oats": 7,
		"beans": 5,
	}}
	gen, reviser := newReviserUnderTest(cat, pricer)

	prefs := mealbudget.UserPreferences{
		WeeklyBudget: 50,
		PantryItems:  []string{"rice", "onion"},
		MaxNewItems:  10,
	}
	plan, err := gen.Generate(context.Background(), prefs)
	require.NoError(t, err)

	res, err := reviser.Run(context.Background(), prefs, plan)
	require.NoError(t, err)

	assert.True(t, res.WithinBudget)
	assert.Equal(t, 1, res.Revisions)
	assert.InDelta(t, 47, res.TotalCost, 1e-9)
	assert.NotContains(t, res.Plan.RecipeNames(), "Meal lobster", "highest-cost meal substituted")
	assert.Equal(t, 2, pricer.calls)
}

func TestReviserExhaustionReturnsCheapestAttempt(t *testing.T) {
	// Unrealistically low budget: every attempt stays over. The costliest
	// meal is replaced each round; totals are 62, 57, 45, 46.
	cat := &mockCatalog{responses: [][]mealbudget.Recipe{
		weekOf("lobster", "rice", "onion", "pasta", "eggs", "tofu", "oats"),
		weekOf("beans"),
		weekOf("lentils"),
		weekOf("polenta"),
	}}
	pricer := &tablePricer{prices: map[string]float64{
		"lobster": 20, "rice": 7, "onion": 7, "pasta": 7, "eggs": 7, "tofu": 7, "oats": 7,
		"beans": 15, "lentils": 3, "polenta": 8,
	}}
	gen, reviser := newReviserUnderTest(cat, pricer)

	prefs := mealbudget.UserPreferences{WeeklyBudget: 10}
	plan, err := gen.Generate(context.Background(), prefs)
	require.NoError(t, err)

	res, err := reviser.Run(context.Background(), prefs, plan)
	require.NoError(t, err)

	assert.False(t, res.WithinBudget)
	assert.Equal(t, 3, res.Revisions)
	assert.Equal(t, 4, pricer.calls, "ceiling of 3 revisions means 4 pricing passes")
	assert.InDelta(t, 45, res.TotalCost, 1e-9, "cheapest of the four attempts wins")
	assert.Contains(t, res.Plan.RecipeNames(), "Meal lentils")
}

func TestReviserRevisionCountNeverExceedsCeiling(t *testing.T) {
	responses := [][]mealbudget.Recipe{
		weekOf("caviar", "rice", "onion", "pasta", "eggs", "tofu", "oats"),
	}
	for _, ing := range []string{"truffle", "saffron steak", "wagyu"} {
		responses = append(responses, weekOf(ing))
	}
	cat := &mockCatalog{responses: responses}
	pricer := &tablePricer{prices: map[string]float64{
		"caviar": 50, "rice": 10, "onion": 10, "pasta": 10, "eggs": 10, "tofu": 10, "oats": 10,
		"truffle": 49, "saffron steak": 48, "wagyu": 47,
	}}
	gen, reviser := newReviserUnderTest(cat, pricer)

	prefs := mealbudget.UserPreferences{WeeklyBudget: 1}
	plan, err := gen.Generate(context.Background(), prefs)
	require.NoError(t, err)

	res, err := reviser.Run(context.Background(), prefs, plan)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Revisions, 0)
	assert.LessOrEqual(t, res.Revisions, 3)
	assert.Len(t, cat.calls, 4, "one generate plus three revisions")
}

func TestReviserUnpricedItemDegradesToIncomplete(t *testing.T) {
	cat := &mockCatalog{responses: [][]mealbudget.Recipe{
		weekOf("saffron", "rice", "beans", "pasta", "eggs", "tofu", "oats"),
	}}
	// No saffron price: it counts as zero and the list is incomplete.
	pricer := &tablePricer{prices: map[string]float64{
		"rice": 5, "beans": 5, "pasta": 5, "eggs": 5, "tofu": 5, "oats": 5,
	}}
	gen, reviser := newReviserUnderTest(cat, pricer)

	prefs := mealbudget.UserPreferences{WeeklyBudget: 50}
	plan, err := gen.Generate(context.Background(), prefs)
	require.NoError(t, err)

	res, err := reviser.Run(context.Background(), prefs, plan)
	require.NoError(t, err)

	assert.True(t, res.WithinBudget)
	assert.True(t, res.List.Incomplete, "list with an unpriced item is incomplete")
	assert.InDelta(t, 30, res.TotalCost, 1e-9, "saffron priced at zero")
}

func TestReviserRevisionFailureKeepsBestAttempt(t *testing.T) {
	// One priced attempt exists, then the catalog dies. The loop still
	// terminates with a result rather than an error.
	cat := &mockCatalog{responses: [][]mealbudget.Recipe{
		weekOf("lobster", "rice", "onion", "pasta", "eggs", "tofu", "oats"),
	}}
	pricer := &tablePricer{prices: map[string]float64{
		"lobster": 20, "rice": 7, "onion": 7, "pasta": 7, "eggs": 7, "tofu": 7, "oats": 7,
	}}
	gen, reviser := newReviserUnderTest(cat, pricer)

	prefs := mealbudget.UserPreferences{WeeklyBudget: 10}
	plan, err := gen.Generate(context.Background(), prefs)
	require.NoError(t, err)

	res, err := reviser.Run(context.Background(), prefs, plan)
	require.NoError(t, err)

	assert.False(t, res.WithinBudget)
	assert.Equal(t, 0, res.Revisions)
	assert.InDelta(t, 62, res.TotalCost, 1e-9)
}

func TestReviserFirstPricingFailureIsFatal(t *testing.T) {
	cat := &mockCatalog{responses: [][]mealbudget.Recipe{
		weekOf("rice", "beans", "eggs", "pasta", "lentils", "tofu", "oats"),
	}}
	pricer := &tablePricer{err: errors.New("context canceled")}
	gen, reviser := newReviserUnderTest(cat, pricer)

	prefs := mealbudget.UserPreferences{WeeklyBudget: 50}
	plan, err := gen.Generate(context.Background(), prefs)
	require.NoError(t, err)

	_, err = reviser.Run(context.Background(), prefs, plan)
	assert.Error(t, err)
}
