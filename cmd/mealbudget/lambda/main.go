package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"mealbudget"
	"mealbudget/catalog"
	"mealbudget/pantry"
	"mealbudget/planner"
	"mealbudget/pricing"
)

type Params struct {
	Preferences mealbudget.UserPreferences `json:"preferences"`
}

type Results struct {
	Result mealbudget.PlanResult `json:"result"`
}

// Lambda entry point: Bedrock for recipe generation, pantry artifact from S3
// when configured, step logs as JSON lines for CloudWatch.
func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		var modelConfig mealbudget.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		var plannerConfig mealbudget.PlannerConfig
		if err := envdecode.Decode(&plannerConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		var pricingConfig mealbudget.PricingConfig
		if err := envdecode.Decode(&pricingConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		var pantryConfig mealbudget.PantryConfig
		if err := envdecode.Decode(&pantryConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to load AWS config", "error", err)
			return Results{}, err
		}

		prefs := params.Preferences
		if pantryConfig.S3Bucket != "" {
			source := pantry.NewS3Source(s3.NewFromConfig(awsCfg), pantryConfig.S3Bucket, pantryConfig.S3Key)
			items, err := source.Load(ctx)
			if err != nil {
				slog.Error("SETUP: Failed to load pantry artifact from S3", "error", err)
				return Results{}, err
			}
			prefs.PantryItems = append(prefs.PantryItems, items...)
			slog.Info("SETUP: Pantry artifact loaded from S3", "items", len(items))
		}

		llm := catalog.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), modelConfig)

		lookup, err := pricing.NewSearchClient(pricing.SearchClientOpts{
			BaseEndpoint: pricingConfig.SearchEndpoint,
			HTTPClient:   http.DefaultClient,
		})
		if err != nil {
			slog.Error("SETUP: Failed to create price lookup", "error", err)
			return Results{}, err
		}
		pricer := pricing.NewListPricer(lookup, pricing.StoreQuery(pricingConfig.Store, pricingConfig.Location), pricingConfig.Concurrency)

		logger := mealbudget.NewStdoutSessionLogger()
		gen := planner.NewGenerator(catalog.NewCatalog(llm, "bedrock"), planner.GeneratorConfig{
			RepeatAllowance: plannerConfig.RepeatAllowance,
			ReplaceCount:    plannerConfig.ReplaceCount,
		})
		reviser := planner.NewBudgetReviser(gen, planner.NewBuilder(), pricer, plannerConfig.RevisionCeiling, logger)
		session := planner.NewSession(gen, reviser, logger)

		res, err := session.Run(ctx, prefs)
		if err != nil {
			return Results{}, err
		}
		return Results{Result: res}, nil
	}

	lambda.Start(fn)
}
