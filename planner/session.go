package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mealbudget"
)

// Session is the top-level orchestrator: generate, then hand off to the
// budget reviser's price/revise loop. It adds no branching of its own.
type Session struct {
	gen     *Generator
	reviser *BudgetReviser
	logger  mealbudget.SessionLogger
}

// NewSession initializes a new planner session.
func NewSession(gen *Generator, reviser *BudgetReviser, logger mealbudget.SessionLogger) *Session {
	return &Session{
		gen:     gen,
		reviser: reviser,
		logger:  logger,
	}
}

// Run produces the final plan, priced grocery list, and total cost for the
// given preferences. GenerationError and InsufficientRecipesError from the
// initial generation are propagated unchanged.
func (s *Session) Run(ctx context.Context, prefs mealbudget.UserPreferences) (mealbudget.PlanResult, error) {
	if err := prefs.Validate(); err != nil {
		return mealbudget.PlanResult{}, fmt.Errorf("invalid preferences: %w", err)
	}

	slog.Info("SESSION: Starting run", "budget", prefs.WeeklyBudget, "pantry_items", len(prefs.PantryItems))

	plan, err := s.gen.Generate(ctx, prefs)
	s.logStep(mealbudget.StepLog{
		Step:      mealbudget.StepGenerate,
		Timestamp: time.Now(),
		Detail:    map[string]any{"distinct_recipes": len(plan.RecipeNames())},
		Error:     errString(err),
	})
	if err != nil {
		return mealbudget.PlanResult{}, err
	}

	res, err := s.reviser.Run(ctx, prefs, plan)
	if err != nil {
		return mealbudget.PlanResult{}, err
	}

	slog.Info("SESSION: Run complete",
		"total_cost", res.TotalCost,
		"within_budget", res.WithinBudget,
		"revisions", res.Revisions,
		"incomplete", res.List.Incomplete,
	)
	return res, nil
}

// logStep logs a step using the configured logger, handling errors gracefully.
func (s *Session) logStep(step mealbudget.StepLog) {
	if s.logger != nil {
		if err := s.logger.LogStep(step); err != nil {
			slog.Error("Failed to log session step", "error", err, "step", step.Step)
		}
	}
}
