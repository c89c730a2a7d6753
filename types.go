package mealbudget

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// PlanDays is the length of every meal plan produced by this module.
const PlanDays = 7

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RecipeCatalog produces candidate recipes from a generative service.
// exclude carries recipe names that must not be proposed again.
type RecipeCatalog interface {
	Propose(ctx context.Context, prefs UserPreferences, count int, exclude []string) ([]Recipe, error)
}

// PriceLookup resolves a single item's estimated unit price at a store/location.
// A failed lookup returns an error wrapping ErrPriceUnavailable.
type PriceLookup interface {
	Price(ctx context.Context, item, store string) (float64, error)
}

// ListPricer prices every item of a grocery list. Per-item lookup failures are
// absorbed: the returned list carries nil unit prices and Incomplete=true.
type ListPricer interface {
	PriceList(ctx context.Context, list GroceryList) (GroceryList, error)
}

type Session interface {
	Run(ctx context.Context, prefs UserPreferences) (PlanResult, error)
}

// UserPreferences is the fully populated input for one planning session.
// It is treated as immutable for the duration of a run.
type UserPreferences struct {
	NutritionGoals      []string `json:"nutrition_goals,omitempty"`
	Cuisines            []string `json:"cuisines,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	PantryItems         []string `json:"pantry_items,omitempty"`
	WeeklyBudget        float64  `json:"weekly_budget"`
	MaxNewItems         int      `json:"max_new_items,omitempty"` // 0 means no cap
}

// Validate checks that the preferences are usable for a session.
func (p UserPreferences) Validate() error {
	if p.WeeklyBudget <= 0 {
		return errors.New("weekly budget must be greater than zero")
	}
	if p.MaxNewItems < 0 {
		return errors.New("max new items must not be negative")
	}
	return nil
}

// Ingredient is one line of a recipe's ingredient list. Importance ranks how
// central the ingredient is to the recipe (higher is more important); the
// grocery list builder drops low-importance items first when capped.
type Ingredient struct {
	Name       string  `json:"name"`
	Qty        float64 `json:"qty"`
	Unit       string  `json:"unit"`
	Importance int     `json:"importance,omitempty"`
}

// Recipe is immutable once produced by a RecipeCatalog.
type Recipe struct {
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
	Servings    int          `json:"servings"`
}

// IsUsable reports whether the recipe can be placed on a meal plan.
func (r Recipe) IsUsable() bool {
	return r.Name != "" && len(r.Ingredients) > 0 && r.Servings > 0
}

// DayEntry holds the recipes assigned to one day of the week.
type DayEntry struct {
	Day     int      `json:"day"` // 1-based
	Recipes []Recipe `json:"recipes"`
}

// MealPlan is an ordered week of day entries.
type MealPlan struct {
	Days []DayEntry `json:"days"`
}

// IsValid checks if the MealPlan meets basic validation requirements.
func (mp MealPlan) IsValid() bool {
	if len(mp.Days) != PlanDays {
		return false
	}
	for _, day := range mp.Days {
		if len(day.Recipes) == 0 {
			return false
		}
		for _, r := range day.Recipes {
			if !r.IsUsable() {
				return false
			}
		}
	}
	return true
}

// RecipeNames returns the distinct recipe names in plan order.
func (mp MealPlan) RecipeNames() []string {
	seen := map[string]bool{}
	names := make([]string, 0, len(mp.Days))
	for _, day := range mp.Days {
		for _, r := range day.Recipes {
			if !seen[r.Name] {
				seen[r.Name] = true
				names = append(names, r.Name)
			}
		}
	}
	return names
}

// GroceryItem is one aggregated entry of a grocery list, unique by (name, unit).
// UnitPrice stays nil until a lookup succeeds.
type GroceryItem struct {
	Name       string   `json:"name"`
	Qty        float64  `json:"qty"`
	Unit       string   `json:"unit"`
	UnitPrice  *float64 `json:"unit_price,omitempty"`
	IsNew      bool     `json:"is_new"`
	Importance int      `json:"importance,omitempty"`
}

// Cost returns the item's priced cost, or zero when unpriced.
func (gi GroceryItem) Cost() float64 {
	if gi.UnitPrice == nil {
		return 0
	}
	return gi.Qty * (*gi.UnitPrice)
}

// GroceryList aggregates the week's shopping needs. Incomplete is set when at
// least one item could not be priced. FlaggedMeals names recipes whose
// ingredients were dropped by the new-item cap.
type GroceryList struct {
	Items        []GroceryItem `json:"items"`
	Incomplete   bool          `json:"incomplete"`
	FlaggedMeals []string      `json:"flagged_meals,omitempty"`
}

// TotalCost sums quantity times unit price over priced items.
func (gl GroceryList) TotalCost() float64 {
	var total float64
	for _, it := range gl.Items {
		total += it.Cost()
	}
	return total
}

// NewItemCount counts items not already covered by the pantry.
func (gl GroceryList) NewItemCount() int {
	n := 0
	for _, it := range gl.Items {
		if it.IsNew {
			n++
		}
	}
	return n
}

// PlanResult is the terminal outcome of a session. It is always fully
// populated: TotalCost matches List.TotalCost().
type PlanResult struct {
	Plan         MealPlan    `json:"plan"`
	List         GroceryList `json:"grocery_list"`
	TotalCost    float64     `json:"total_cost"`
	Revisions    int         `json:"revisions"`
	WithinBudget bool        `json:"within_budget"`
}

// NormalizeItemName lowercases and collapses whitespace so pantry matching and
// grocery aggregation agree on what counts as the same ingredient.
func NormalizeItemName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
