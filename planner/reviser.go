package planner

import (
	"context"
	"log/slog"
	"time"

	"mealbudget"
)

// reviserState tracks the pricing loop's position:
// draft -> priced -> {within budget | over budget} -> revised -> priced -> ...
// terminating in final or exhausted.
type reviserState string

const (
	stateDraft        reviserState = "DRAFT"
	statePriced       reviserState = "PRICED"
	stateWithinBudget reviserState = "WITHIN_BUDGET"
	stateOverBudget   reviserState = "OVER_BUDGET"
	stateRevised      reviserState = "REVISED"
	stateFinal        reviserState = "FINAL"
	stateExhausted    reviserState = "EXHAUSTED"
)

// BudgetReviser drives the price/compare/revise loop. Once the first pricing
// pass succeeds it always terminates with a PlanResult, never an error.
type BudgetReviser struct {
	gen     *Generator
	builder *Builder
	pricer  mealbudget.ListPricer
	ceiling int
	logger  mealbudget.SessionLogger
}

// NewBudgetReviser initializes a new budget reviser. ceiling is the maximum
// number of revisions; values below 1 fall back to 3.
func NewBudgetReviser(gen *Generator, builder *Builder, pricer mealbudget.ListPricer, ceiling int, logger mealbudget.SessionLogger) *BudgetReviser {
	if ceiling < 1 {
		ceiling = 3
	}
	return &BudgetReviser{
		gen:     gen,
		builder: builder,
		pricer:  pricer,
		ceiling: ceiling,
		logger:  logger,
	}
}

type attempt struct {
	plan  mealbudget.MealPlan
	list  mealbudget.GroceryList
	total float64
}

// Run prices the plan's grocery list against the budget, revising up to the
// ceiling. The budget comparison is inclusive: a total equal to the budget is
// within budget. On exhaustion the cheapest of the attempted plans is
// returned with WithinBudget=false.
func (r *BudgetReviser) Run(ctx context.Context, prefs mealbudget.UserPreferences, plan mealbudget.MealPlan) (mealbudget.PlanResult, error) {
	var attempts []attempt
	state := stateDraft

	for rev := 0; ; rev++ {
		list := r.builder.Build(plan, prefs.PantryItems, prefs.MaxNewItems)

		priced, err := r.pricer.PriceList(ctx, list)
		if err != nil {
			// PriceList only fails wholesale (e.g. context canceled).
			if len(attempts) == 0 {
				return mealbudget.PlanResult{}, err
			}
			slog.Warn("REVISER: Pricing failed mid-loop, keeping best attempt", "error", err, "revision", rev)
			state = stateExhausted
			break
		}
		state = statePriced

		total := priced.TotalCost()
		attempts = append(attempts, attempt{plan: plan, list: priced, total: total})

		r.logStep(mealbudget.StepLog{
			Step:      mealbudget.StepCompare,
			Attempt:   rev,
			Timestamp: time.Now(),
			Detail: map[string]any{
				"state":      string(state),
				"total_cost": total,
				"budget":     prefs.WeeklyBudget,
				"incomplete": priced.Incomplete,
			},
		})

		if total <= prefs.WeeklyBudget {
			state = stateFinal
			slog.Info("REVISER: Within budget", "total", total, "budget", prefs.WeeklyBudget, "revisions", rev)
			return result(attempts[len(attempts)-1], rev, true), nil
		}

		state = stateOverBudget
		slog.Info("REVISER: Over budget", "total", total, "budget", prefs.WeeklyBudget, "revision", rev)

		if rev == r.ceiling {
			state = stateExhausted
			break
		}

		revised, err := r.gen.Revise(ctx, prefs, plan, priced)
		r.logStep(mealbudget.StepLog{
			Step:      mealbudget.StepRevise,
			Attempt:   rev + 1,
			Timestamp: time.Now(),
			Detail:    map[string]any{"state": string(stateRevised)},
			Error:     errString(err),
		})
		if err != nil {
			// The loop contract: after the first successful pricing pass the
			// session still gets a result. Keep the best attempt so far.
			slog.Warn("REVISER: Revision failed, keeping best attempt", "error", err, "revision", rev+1)
			state = stateExhausted
			break
		}
		state = stateRevised
		plan = revised
	}

	best := cheapestAttempt(attempts)
	slog.Info("REVISER: Exhausted", "attempts", len(attempts), "cheapest_total", best.total)
	return result(best, len(attempts)-1, false), nil
}

func result(a attempt, revisions int, within bool) mealbudget.PlanResult {
	return mealbudget.PlanResult{
		Plan:         a.plan,
		List:         a.list,
		TotalCost:    a.total,
		Revisions:    revisions,
		WithinBudget: within,
	}
}

func cheapestAttempt(attempts []attempt) attempt {
	best := attempts[0]
	for _, a := range attempts[1:] {
		if a.total < best.total {
			best = a
		}
	}
	return best
}

// logStep logs a step using the configured logger, handling errors gracefully.
func (r *BudgetReviser) logStep(step mealbudget.StepLog) {
	if r.logger != nil {
		if err := r.logger.LogStep(step); err != nil {
			slog.Error("Failed to log session step", "error", err, "step", step.Step)
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
