package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mealbudget"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedSession is an instrumented version of Session with
// observability metrics around generation and the budget revision loop.
type InstrumentedSession struct {
	gen     *Generator
	reviser *BudgetReviser
	logger  mealbudget.SessionLogger
	tracer  trace.Tracer
	meter   metric.Meter
}

// NewInstrumentedSession initializes a new instrumented planner session.
func NewInstrumentedSession(gen *Generator, reviser *BudgetReviser, logger mealbudget.SessionLogger, tracer trace.Tracer, meter metric.Meter) *InstrumentedSession {
	return &InstrumentedSession{
		gen:     gen,
		reviser: reviser,
		logger:  logger,
		tracer:  tracer,
		meter:   meter,
	}
}

// Run executes the planning session with full instrumentation.
func (s *InstrumentedSession) Run(ctx context.Context, prefs mealbudget.UserPreferences) (mealbudget.PlanResult, error) {
	ctx, span := s.tracer.Start(ctx, "InstrumentedSession.Run")
	defer span.End()

	runsCounter, _ := s.meter.Int64Counter("session_runs_total",
		metric.WithDescription("Total number of planning sessions started"))
	runsCompletedCounter, _ := s.meter.Int64Counter("session_runs_completed_total",
		metric.WithDescription("Total number of planning sessions completed successfully"))
	runsFailedCounter, _ := s.meter.Int64Counter("session_runs_failed_total",
		metric.WithDescription("Total number of planning sessions that failed"))
	revisionsCounter, _ := s.meter.Int64Counter("budget_revisions_total",
		metric.WithDescription("Total number of budget revisions performed"))
	exhaustedCounter, _ := s.meter.Int64Counter("budget_exhausted_total",
		metric.WithDescription("Total number of sessions ending over budget"))
	incompleteListsCounter, _ := s.meter.Int64Counter("incomplete_lists_total",
		metric.WithDescription("Total number of grocery lists with unpriced items"))

	groceryItemsGauge, _ := s.meter.Int64Gauge("grocery_items_count",
		metric.WithDescription("Number of items on the final grocery list"))
	totalCostGauge, _ := s.meter.Float64Gauge("plan_total_cost",
		metric.WithDescription("Total cost of the final grocery list"))

	sessionDurationHist, _ := s.meter.Float64Histogram("session_duration_seconds",
		metric.WithDescription("Total duration of a planning session in seconds"))
	generateDurationHist, _ := s.meter.Float64Histogram("generate_duration_seconds",
		metric.WithDescription("Duration of initial plan generation in seconds"))

	runsCounter.Add(ctx, 1)

	if err := prefs.Validate(); err != nil {
		runsFailedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "Invalid preferences")
		span.RecordError(err)
		return mealbudget.PlanResult{}, fmt.Errorf("invalid preferences: %w", err)
	}

	span.SetAttributes(
		attribute.Float64("prefs.weekly_budget", prefs.WeeklyBudget),
		attribute.Int("prefs.pantry_items", len(prefs.PantryItems)),
		attribute.Int("prefs.max_new_items", prefs.MaxNewItems),
	)

	sessionStart := time.Now()

	generateStart := time.Now()
	genCtx, genSpan := s.tracer.Start(ctx, "InstrumentedSession.Generate")
	plan, err := s.gen.Generate(genCtx, prefs)
	genSpan.End()
	generateDurationHist.Record(ctx, time.Since(generateStart).Seconds())

	s.logStep(mealbudget.StepLog{
		Step:      mealbudget.StepGenerate,
		Timestamp: time.Now(),
		Detail:    map[string]any{"distinct_recipes": len(plan.RecipeNames())},
		Error:     errString(err),
	})
	if err != nil {
		runsFailedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "Plan generation failed")
		span.RecordError(err)
		return mealbudget.PlanResult{}, err
	}

	revCtx, revSpan := s.tracer.Start(ctx, "InstrumentedSession.Revise")
	res, err := s.reviser.Run(revCtx, prefs, plan)
	revSpan.End()
	if err != nil {
		runsFailedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "Budget revision loop failed")
		span.RecordError(err)
		return mealbudget.PlanResult{}, err
	}

	runsCompletedCounter.Add(ctx, 1)
	revisionsCounter.Add(ctx, int64(res.Revisions))
	if !res.WithinBudget {
		exhaustedCounter.Add(ctx, 1)
	}
	if res.List.Incomplete {
		incompleteListsCounter.Add(ctx, 1)
	}
	groceryItemsGauge.Record(ctx, int64(len(res.List.Items)))
	totalCostGauge.Record(ctx, res.TotalCost)
	sessionDurationHist.Record(ctx, time.Since(sessionStart).Seconds())

	span.AddEvent("Session complete", trace.WithAttributes(
		attribute.Float64("total_cost", res.TotalCost),
		attribute.Bool("within_budget", res.WithinBudget),
		attribute.Int("revisions", res.Revisions),
		attribute.Bool("incomplete", res.List.Incomplete),
	))

	slog.Info("SESSION: Instrumented run complete",
		"total_cost", res.TotalCost,
		"within_budget", res.WithinBudget,
		"revisions", res.Revisions,
	)
	return res, nil
}

// logStep logs a step using the configured logger, handling errors gracefully.
func (s *InstrumentedSession) logStep(step mealbudget.StepLog) {
	if s.logger != nil {
		if err := s.logger.LogStep(step); err != nil {
			slog.Error("Failed to log session step", "error", err, "step", step.Step)
		}
	}
}
