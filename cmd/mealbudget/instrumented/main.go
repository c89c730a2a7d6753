package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mealbudget"
	"mealbudget/catalog"
	"mealbudget/notify"
	"mealbudget/planner"
	"mealbudget/pricing"
)

// Instrumented variant of the planner CLI: preferences come in as a JSON
// argument instead of interactive questions, and the session runs with OTLP
// tracing and metrics enabled.
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

	var notifyConfig mealbudget.NotifyConfig
	if err := envdecode.Decode(&notifyConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	prefs, err := preferencesFromArg()
	if err != nil {
		slog.Error("SETUP: Failed to parse preferences", "error", err)
		return
	}

	llm, err := catalog.NewGeminiClient(ctx, modelConfig)
	if err != nil {
		slog.Error("SETUP: Failed to create LLM client", "error", err)
		return
	}
	defer llm.Close()

	lookup, err := pricing.NewSearchClient(pricing.SearchClientOpts{
		BaseEndpoint: pricingConfig.SearchEndpoint,
		HTTPClient:   http.DefaultClient,
	})
	if err != nil {
		slog.Error("SETUP: Failed to create price lookup", "error", err)
		return
	}
	pricer := pricing.NewListPricer(lookup, pricing.StoreQuery(pricingConfig.Store, pricingConfig.Location), pricingConfig.Concurrency)

	tracerProvider, meterProvider, otelShutdown, err := mealbudget.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	tracer := tracerProvider.Tracer(mealbudget.TracerNameSession)
	meter := meterProvider.Meter(mealbudget.TracerNameSession)

	ctx, span := tracer.Start(ctx, mealbudget.TracerNameSession, trace.WithAttributes(
		attribute.String("model.id", modelConfig.ModelID),
		attribute.Int("model.max_tokens", int(modelConfig.MaxTokens)),
		attribute.Float64("model.temperature", float64(modelConfig.Temperature)),
		attribute.Float64("model.top_p", float64(modelConfig.TopP)),
	))
	defer span.End()

	gen := planner.NewGenerator(catalog.NewCatalog(llm, modelConfig.Backend), planner.GeneratorConfig{
		RepeatAllowance: plannerConfig.RepeatAllowance,
		ReplaceCount:    plannerConfig.ReplaceCount,
	})
	reviser := planner.NewBudgetReviser(gen, planner.NewBuilder(), pricer, plannerConfig.RevisionCeiling, mealbudget.NewStdoutSessionLogger())
	session := planner.NewInstrumentedSession(gen, reviser, mealbudget.NewStdoutSessionLogger(), tracer, meter)

	res, err := session.Run(ctx, prefs)
	if err != nil {
		slog.Error("SESSION: Run failed", "error", err)
		return
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		slog.Error("SESSION: Failed to marshal result", "error", err)
		return
	}
	fmt.Println(string(out))

	if notifyConfig.SlackWebhookURL != "" {
		slackClient := notify.NewClient(notifyConfig.SlackWebhookURL, http.DefaultClient)
		if err := slackClient.PostMessage(ctx, notifyConfig.SlackChannel, notify.PlanSummary(res)); err != nil {
			slog.Error("NOTIFY: Failed to post plan summary", "error", err)
		}
	}
}

func preferencesFromArg() (mealbudget.UserPreferences, error) {
	if len(os.Args) < 2 {
		return mealbudget.UserPreferences{}, fmt.Errorf("usage: %s '<preferences JSON>'", os.Args[0])
	}
	var prefs mealbudget.UserPreferences
	if err := json.Unmarshal([]byte(os.Args[1]), &prefs); err != nil {
		return mealbudget.UserPreferences{}, fmt.Errorf("invalid preferences JSON: %w", err)
	}
	return prefs, nil
}
