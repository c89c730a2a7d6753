package planner

import (
	"context"
	"errors"
	"testing"

	"mealbudget"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionUnderTest(cat *mockCatalog, pricer mealbudget.ListPricer) *Session {
	gen := NewGenerator(cat, GeneratorConfig{RepeatAllowance: 0, ReplaceCount: 1})
	reviser := NewBudgetReviser(gen, NewBuilder(), pricer, 3, mealbudget.NewNoOpSessionLogger())
	return NewSession(gen, reviser, mealbudget.NewNoOpSessionLogger())
}

func TestSessionRunEndToEnd(t *testing.T) {
	cat := &mockCatalog{responses: [][]mealbudget.Recipe{
		weekOf("rice", "beans", "eggs", "pasta", "lentils", "tofu", "oats"),
	}}
	pricer := &tablePricer{prices: map[string]float64{
		"rice": 5, "beans": 5, "eggs": 5, "pasta": 5, "lentils": 5, "tofu": 5, "oats": 5,
	}}
	session := newSessionUnderTest(cat, pricer)

	res, err := session.Run(context.Background(), mealbudget.UserPreferences{WeeklyBudget: 50})
	require.NoError(t, err)

	assert.True(t, res.WithinBudget)
	assert.True(t, res.Plan.IsValid())
	assert.InDelta(t, res.List.TotalCost(), res.TotalCost, 1e-9)
}

func TestSessionRejectsInvalidPreferences(t *testing.T) {
	cat := &mockCatalog{}
	session := newSessionUnderTest(cat, &tablePricer{})

	_, err := session.Run(context.Background(), mealbudget.UserPreferences{WeeklyBudget: 0})
	require.Error(t, err)
	assert.Empty(t, cat.calls, "no generation on invalid preferences")
}

func TestSessionPropagatesGenerationError(t *testing.T) {
	genErr := &mealbudget.GenerationError{Backend: "gemini", Err: errors.New("quota exceeded")}
	cat := &mockCatalog{err: genErr}
	session := newSessionUnderTest(cat, &tablePricer{})

	_, err := session.Run(context.Background(), mealbudget.UserPreferences{WeeklyBudget: 50})
	require.Error(t, err)

	var got *mealbudget.GenerationError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, "gemini", got.Backend)
}

func TestSessionPropagatesInsufficientRecipesError(t *testing.T) {
	cat := &mockCatalog{responses: [][]mealbudget.Recipe{recipeBatch(2)}}
	session := newSessionUnderTest(cat, &tablePricer{})

	_, err := session.Run(context.Background(), mealbudget.UserPreferences{WeeklyBudget: 50})
	require.Error(t, err)

	var got *mealbudget.InsufficientRecipesError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 7, got.Requested)
	assert.Equal(t, 2, got.Got)
}

func TestSessionPropagatesPricingError(t *testing.T) {
	cat := &mockCatalog{responses: [][]mealbudget.Recipe{
		weekOf("rice", "beans", "eggs", "pasta", "lentils", "tofu", "oats"),
	}}
	pricer := &tablePricer{err: errors.New("search endpoint unreachable")}
	session := newSessionUnderTest(cat, pricer)

	_, err := session.Run(context.Background(), mealbudget.UserPreferences{WeeklyBudget: 50})
	assert.Error(t, err)
}
