// Package catalog turns generative model output into usable recipes. The
// generation backends (Gemini, Bedrock) are thin text-in/text-out clients;
// prompt construction, schema validation, and decoding live here.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mealbudget"
)

// llmClient is the text generation contract the backends implement.
type llmClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Catalog implements mealbudget.RecipeCatalog on top of a generative backend.
type Catalog struct {
	llm     llmClient
	backend string
}

// NewCatalog initializes a new recipe catalog. backend names the generative
// service for logs and error messages.
func NewCatalog(llm llmClient, backend string) *Catalog {
	return &Catalog{llm: llm, backend: backend}
}

// Propose asks the generative service for count distinct recipes honoring the
// preferences, never proposing a name in exclude. A response with no parsable
// recipes is a GenerationError.
func (c *Catalog) Propose(ctx context.Context, prefs mealbudget.UserPreferences, count int, exclude []string) ([]mealbudget.Recipe, error) {
	if count < 1 {
		count = 1
	}

	prompt, err := buildProposePrompt(prefs, count, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to build propose prompt: %w", err)
	}

	slog.Info("CATALOG: Requesting recipes", "backend", c.backend, "count", count, "excluded", len(exclude))

	raw, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, &mealbudget.GenerationError{Backend: c.backend, Err: err}
	}

	recipes, err := parseRecipes(raw)
	if err != nil {
		return nil, &mealbudget.GenerationError{Backend: c.backend, Err: err}
	}

	recipes = dropExcluded(recipes, exclude)
	if len(recipes) == 0 {
		return nil, &mealbudget.GenerationError{Backend: c.backend, Err: fmt.Errorf("response contained no usable recipes")}
	}

	slog.Info("CATALOG: Recipes received", "backend", c.backend, "count", len(recipes))
	return recipes, nil
}

func dropExcluded(recipes []mealbudget.Recipe, exclude []string) []mealbudget.Recipe {
	if len(exclude) == 0 {
		return recipes
	}
	excluded := map[string]bool{}
	for _, name := range exclude {
		excluded[mealbudget.NormalizeItemName(name)] = true
	}
	kept := make([]mealbudget.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if !excluded[mealbudget.NormalizeItemName(r.Name)] {
			kept = append(kept, r)
		}
	}
	return kept
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one despite the output contract.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
