package planner

import (
	"log/slog"
	"sort"

	"mealbudget"
)

// Builder aggregates a plan's ingredients into a grocery list.
type Builder struct{}

// NewBuilder initializes a new grocery list builder.
func NewBuilder() *Builder { return &Builder{} }

// Build aggregates ingredient quantities across all meals by (name, unit),
// marks items not in the pantry as new, and enforces the new-item cap by
// dropping the lowest-importance new items (later insertions dropped first on
// ties). Meals whose ingredients were dropped are flagged for substitution.
func (b *Builder) Build(plan mealbudget.MealPlan, pantryItems []string, maxNewItems int) mealbudget.GroceryList {
	pantry := map[string]bool{}
	for _, p := range pantryItems {
		pantry[mealbudget.NormalizeItemName(p)] = true
	}

	var items []mealbudget.GroceryItem
	index := map[string]int{}
	usedBy := map[string][]string{} // item key -> recipe names, insertion order

	for _, day := range plan.Days {
		for _, recipe := range day.Recipes {
			for _, ing := range recipe.Ingredients {
				key := itemKey(ing.Name, ing.Unit)
				if i, ok := index[key]; ok {
					items[i].Qty += ing.Qty
					if ing.Importance > items[i].Importance {
						items[i].Importance = ing.Importance
					}
				} else {
					index[key] = len(items)
					items = append(items, mealbudget.GroceryItem{
						Name:       ing.Name,
						Qty:        ing.Qty,
						Unit:       ing.Unit,
						IsNew:      !pantry[mealbudget.NormalizeItemName(ing.Name)],
						Importance: ing.Importance,
					})
				}
				if !contains(usedBy[key], recipe.Name) {
					usedBy[key] = append(usedBy[key], recipe.Name)
				}
			}
		}
	}

	list := mealbudget.GroceryList{Items: items}
	if maxNewItems > 0 && list.NewItemCount() > maxNewItems {
		list = capNewItems(list, maxNewItems, usedBy)
		slog.Info("BUILDER: New-item cap applied",
			"max_new_items", maxNewItems,
			"flagged_meals", len(list.FlaggedMeals),
		)
	}
	return list
}

// capNewItems removes new items until the cap is met. Drop order: lowest
// importance first, then most recent insertion.
func capNewItems(list mealbudget.GroceryList, maxNewItems int, usedBy map[string][]string) mealbudget.GroceryList {
	type candidate struct {
		idx        int
		importance int
	}
	var newItems []candidate
	for i, it := range list.Items {
		if it.IsNew {
			newItems = append(newItems, candidate{idx: i, importance: it.Importance})
		}
	}

	// Lowest importance first; later insertions break ties.
	sort.SliceStable(newItems, func(a, b int) bool {
		if newItems[a].importance != newItems[b].importance {
			return newItems[a].importance < newItems[b].importance
		}
		return newItems[a].idx > newItems[b].idx
	})

	toDrop := len(newItems) - maxNewItems
	dropped := map[int]bool{}
	var flagged []string
	for i := 0; i < toDrop; i++ {
		idx := newItems[i].idx
		dropped[idx] = true
		key := itemKey(list.Items[idx].Name, list.Items[idx].Unit)
		for _, meal := range usedBy[key] {
			if !contains(flagged, meal) {
				flagged = append(flagged, meal)
			}
		}
	}

	kept := make([]mealbudget.GroceryItem, 0, len(list.Items)-toDrop)
	for i, it := range list.Items {
		if !dropped[i] {
			kept = append(kept, it)
		}
	}

	list.Items = kept
	list.FlaggedMeals = flagged
	return list
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
