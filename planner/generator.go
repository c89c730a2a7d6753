package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"mealbudget"
)

// GeneratorConfig holds the plan composition tunables.
type GeneratorConfig struct {
	// RepeatAllowance is how many extra times a single recipe may appear on
	// the plan beyond its first use. 1 means every recipe may cover two days.
	RepeatAllowance int
	// ReplaceCount is how many meals a single revision swaps out, costliest
	// first.
	ReplaceCount int
}

func (c GeneratorConfig) withDefaults() GeneratorConfig {
	if c.RepeatAllowance < 0 {
		c.RepeatAllowance = 0
	}
	if c.ReplaceCount < 1 {
		c.ReplaceCount = 1
	}
	return c
}

// Generator composes 7-day meal plans from RecipeCatalog output.
type Generator struct {
	catalog mealbudget.RecipeCatalog
	cfg     GeneratorConfig
}

// NewGenerator initializes a new meal plan generator.
func NewGenerator(catalog mealbudget.RecipeCatalog, cfg GeneratorConfig) *Generator {
	return &Generator{catalog: catalog, cfg: cfg.withDefaults()}
}

// Generate requests a batch of distinct recipes sized to cover the week within
// the repeat allowance and spreads them across the seven days so that no
// recipe lands on adjacent days when avoidable.
func (g *Generator) Generate(ctx context.Context, prefs mealbudget.UserPreferences) (mealbudget.MealPlan, error) {
	distinct := distinctRecipeCount(g.cfg.RepeatAllowance)

	slog.Info("GENERATOR: Requesting initial recipe batch", "distinct", distinct, "repeat_allowance", g.cfg.RepeatAllowance)

	recipes, err := g.catalog.Propose(ctx, prefs, distinct, nil)
	if err != nil {
		return mealbudget.MealPlan{}, err
	}

	usable := usableRecipes(recipes)
	if len(usable)*(1+g.cfg.RepeatAllowance) < mealbudget.PlanDays {
		return mealbudget.MealPlan{}, &mealbudget.InsufficientRecipesError{Requested: distinct, Got: len(usable)}
	}

	plan := assignDays(usable)
	slog.Info("GENERATOR: Plan assembled", "distinct_recipes", len(plan.RecipeNames()))
	return plan, nil
}

// Revise substitutes the meals that contributed most to the over-budget list.
// Replacement recipes come from the catalog with every recipe of the previous
// plan excluded, so rejected-as-too-expensive names are not proposed again.
func (g *Generator) Revise(ctx context.Context, prefs mealbudget.UserPreferences, prev mealbudget.MealPlan, priced mealbudget.GroceryList) (mealbudget.MealPlan, error) {
	if len(prev.Days) != mealbudget.PlanDays {
		return mealbudget.MealPlan{}, fmt.Errorf("cannot revise a plan with %d days", len(prev.Days))
	}

	targets := costliestDays(prev, priced, g.cfg.ReplaceCount)
	exclude := prev.RecipeNames()

	slog.Info("GENERATOR: Requesting replacement recipes",
		"replace_count", len(targets),
		"excluded", len(exclude),
	)

	replacements, err := g.catalog.Propose(ctx, prefs, len(targets), exclude)
	if err != nil {
		return mealbudget.MealPlan{}, err
	}

	usable := usableRecipes(replacements)
	if len(usable) == 0 {
		return mealbudget.MealPlan{}, &mealbudget.GenerationError{Backend: "revision", Err: fmt.Errorf("no usable replacement recipes")}
	}

	revised := clonePlan(prev)
	for i, day := range targets {
		if i >= len(usable) {
			break
		}
		revised.Days[day].Recipes = []mealbudget.Recipe{pickNonAdjacent(revised, day, usable, i)}
	}
	return revised, nil
}

// distinctRecipeCount is ceil(PlanDays / (1 + allowance)).
func distinctRecipeCount(allowance int) int {
	return (mealbudget.PlanDays + allowance) / (1 + allowance)
}

func usableRecipes(recipes []mealbudget.Recipe) []mealbudget.Recipe {
	out := make([]mealbudget.Recipe, 0, len(recipes))
	seen := map[string]bool{}
	for _, r := range recipes {
		key := mealbudget.NormalizeItemName(r.Name)
		if !r.IsUsable() || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// assignDays spreads recipes round-robin across the week. With two or more
// distinct recipes this never places the same recipe on adjacent days, and no
// recipe exceeds ceil(7/len) uses, which the capacity check already bounded
// by the repeat allowance.
func assignDays(recipes []mealbudget.Recipe) mealbudget.MealPlan {
	n := len(recipes)
	if n > mealbudget.PlanDays {
		n = mealbudget.PlanDays
	}
	days := make([]mealbudget.DayEntry, mealbudget.PlanDays)
	for i := range days {
		days[i] = mealbudget.DayEntry{
			Day:     i + 1,
			Recipes: []mealbudget.Recipe{recipes[i%n]},
		}
	}
	return mealbudget.MealPlan{Days: days}
}

// costliestDays ranks days by the priced cost of their ingredients and
// returns the indexes of the top count, costliest first.
func costliestDays(plan mealbudget.MealPlan, priced mealbudget.GroceryList, count int) []int {
	prices := map[string]float64{}
	for _, it := range priced.Items {
		if it.UnitPrice != nil {
			prices[itemKey(it.Name, it.Unit)] = *it.UnitPrice
		}
	}

	type dayCost struct {
		day  int
		cost float64
	}
	costs := make([]dayCost, len(plan.Days))
	for i, day := range plan.Days {
		var c float64
		for _, r := range day.Recipes {
			for _, ing := range r.Ingredients {
				c += ing.Qty * prices[itemKey(ing.Name, ing.Unit)]
			}
		}
		costs[i] = dayCost{day: i, cost: c}
	}

	sort.SliceStable(costs, func(a, b int) bool { return costs[a].cost > costs[b].cost })

	if count > len(costs) {
		count = len(costs)
	}
	out := make([]int, count)
	for i := 0; i < count; i++ {
		out[i] = costs[i].day
	}
	return out
}

// pickNonAdjacent prefers a replacement that differs from the neighboring
// days' recipes. When every candidate collides it falls back to the default.
func pickNonAdjacent(plan mealbudget.MealPlan, day int, candidates []mealbudget.Recipe, preferred int) mealbudget.Recipe {
	collides := func(r mealbudget.Recipe) bool {
		for _, n := range []int{day - 1, day + 1} {
			if n < 0 || n >= len(plan.Days) {
				continue
			}
			for _, nr := range plan.Days[n].Recipes {
				if nr.Name == r.Name {
					return true
				}
			}
		}
		return false
	}

	if !collides(candidates[preferred%len(candidates)]) {
		return candidates[preferred%len(candidates)]
	}
	for _, c := range candidates {
		if !collides(c) {
			return c
		}
	}
	return candidates[preferred%len(candidates)]
}

func clonePlan(plan mealbudget.MealPlan) mealbudget.MealPlan {
	days := make([]mealbudget.DayEntry, len(plan.Days))
	copy(days, plan.Days)
	return mealbudget.MealPlan{Days: days}
}

func itemKey(name, unit string) string {
	return mealbudget.NormalizeItemName(name) + "|" + mealbudget.NormalizeItemName(unit)
}
