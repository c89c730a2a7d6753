package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joeshaw/envdecode"

	"mealbudget"
	"mealbudget/catalog"
	"mealbudget/pantry"
	"mealbudget/planner"
	"mealbudget/pricing"
)

func main() {
	ctx := context.Background()

	var modelConfig mealbudget.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var plannerConfig mealbudget.PlannerConfig
	if err := envdecode.Decode(&plannerConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var pricingConfig mealbudget.PricingConfig
	if err := envdecode.Decode(&pricingConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var pantryConfig mealbudget.PantryConfig
	if err := envdecode.Decode(&pantryConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	prefs, err := readPreferences(ctx, os.Stdin, pantryConfig)
	if err != nil {
		slog.Error("SETUP: Failed to read preferences", "error", err)
		return
	}

	llm, err := newLLMClient(ctx, modelConfig)
	if err != nil {
		slog.Error("SETUP: Failed to create LLM client", "error", err)
		return
	}

	lookup, err := pricing.NewSearchClient(pricing.SearchClientOpts{
		BaseEndpoint: pricingConfig.SearchEndpoint,
		HTTPClient:   http.DefaultClient,
	})
	if err != nil {
		slog.Error("SETUP: Failed to create price lookup", "error", err)
		return
	}
	pricer := pricing.NewListPricer(lookup, pricing.StoreQuery(pricingConfig.Store, pricingConfig.Location), pricingConfig.Concurrency)

	logger, cleanup, err := newSessionLogger(modelConfig.ModelID)
	if err != nil {
		slog.Error("SETUP: Failed to create session logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush session log", "error", err)
		}
	}()

	gen := planner.NewGenerator(catalog.NewCatalog(llm, modelConfig.Backend), planner.GeneratorConfig{
		RepeatAllowance: plannerConfig.RepeatAllowance,
		ReplaceCount:    plannerConfig.ReplaceCount,
	})
	reviser := planner.NewBudgetReviser(gen, planner.NewBuilder(), pricer, plannerConfig.RevisionCeiling, logger)
	session := planner.NewSession(gen, reviser, logger)

	fmt.Println("\nGreat! Creating an efficient plan. This may take a moment...")
	fmt.Println("------------------------------------------------------------------")

	res, err := session.Run(ctx, prefs)
	if err != nil {
		slog.Error("SESSION: Run failed", "error", err)
		return
	}

	render(os.Stdout, res, prefs)
}

// readPreferences gathers nutrition, cuisine, dietary, pantry, budget, and
// item limit answers. Blank answers are allowed everywhere except the budget.
func readPreferences(ctx context.Context, in *os.File, pantryConfig mealbudget.PantryConfig) (mealbudget.UserPreferences, error) {
	fmt.Println("\nWelcome to the weekly meal planner! Please answer the following; press Enter to leave a field blank.")

	scanner := bufio.NewScanner(in)
	ask := func(question string) string {
		fmt.Printf("%s\n> ", question)
		if !scanner.Scan() {
			return ""
		}
		return strings.TrimSpace(scanner.Text())
	}

	prefs := mealbudget.UserPreferences{
		NutritionGoals:      splitList(ask("What are your nutrition goals (e.g., high protein, low carb)?")),
		Cuisines:            splitList(ask("Any cuisine preferences (e.g., Mexican, Italian)?")),
		DietaryRestrictions: splitList(ask("Any dietary restrictions (e.g., gluten-free, vegetarian)?")),
		PantryItems:         splitList(ask("What's in your pantry to use (comma-separated)?")),
	}

	budget := ask("What is your weekly budget for new groceries (e.g., 100)?")
	if budget == "" {
		budget = "100"
	}
	amount, err := strconv.ParseFloat(budget, 64)
	if err != nil {
		return mealbudget.UserPreferences{}, fmt.Errorf("invalid budget %q: %w", budget, err)
	}
	prefs.WeeklyBudget = amount

	if limit := ask("Any limit on the number of new grocery items (e.g., 10, or blank)?"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			return mealbudget.UserPreferences{}, fmt.Errorf("invalid item limit %q", limit)
		}
		prefs.MaxNewItems = n
	}

	// Pantry artifact supplements whatever was typed in.
	if _, err := os.Stat(pantryConfig.ArtifactPath); err == nil {
		items, err := pantry.NewFileSource(pantryConfig.ArtifactPath).Load(ctx)
		if err != nil {
			return mealbudget.UserPreferences{}, err
		}
		prefs.PantryItems = mergeItems(prefs.PantryItems, items)
		slog.Info("SETUP: Pantry artifact loaded", "path", pantryConfig.ArtifactPath, "items", len(items))
	}

	return prefs, nil
}

func newLLMClient(ctx context.Context, cfg mealbudget.ModelConfig) (*catalog.GeminiClient, error) {
	// Bedrock wiring lives in the lambda entry point; the CLI talks to Gemini.
	return catalog.NewGeminiClient(ctx, cfg)
}

func newSessionLogger(model string) (*mealbudget.FileSessionLogger, func() error, error) {
	path := mealbudget.NewSessionLogFilePath(model)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	logger := mealbudget.NewFileSessionLogger(f)
	cleanup := func() error {
		if err := logger.Flush(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return logger, cleanup, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mergeItems(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range append(a, b...) {
		key := mealbudget.NormalizeItemName(item)
		if !seen[key] {
			seen[key] = true
			out = append(out, item)
		}
	}
	return out
}

func render(w *os.File, res mealbudget.PlanResult, prefs mealbudget.UserPreferences) {
	fmt.Fprintln(w, "\n## Your Weekly Meal Plan")
	for _, day := range res.Plan.Days {
		for _, r := range day.Recipes {
			fmt.Fprintf(w, "Day %d: %s (serves %d)\n", day.Day, r.Name, r.Servings)
		}
	}

	fmt.Fprintf(w, "\n## Priced Grocery List (Total: $%.2f)\n", res.TotalCost)
	for _, it := range res.List.Items {
		if it.UnitPrice != nil {
			fmt.Fprintf(w, "- %s (%.4g %s): $%.2f each\n", it.Name, it.Qty, it.Unit, *it.UnitPrice)
		} else {
			fmt.Fprintf(w, "- %s (%.4g %s): price unavailable\n", it.Name, it.Qty, it.Unit)
		}
	}

	if res.WithinBudget {
		fmt.Fprintf(w, "\nWithin your $%.2f budget after %d revision(s).\n", prefs.WeeklyBudget, res.Revisions)
	} else {
		fmt.Fprintf(w, "\nCould not meet the $%.2f budget after %d revisions; this is the cheapest plan found ($%.2f).\n",
			prefs.WeeklyBudget, res.Revisions, res.TotalCost)
	}
	if res.List.Incomplete {
		fmt.Fprintln(w, "Note: some items could not be priced and count as $0.00 in the total.")
	}
	if len(res.List.FlaggedMeals) > 0 {
		fmt.Fprintf(w, "Note: the item cap trimmed ingredients used by: %s.\n", strings.Join(res.List.FlaggedMeals, ", "))
	}
}
