package catalog

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealbudget"
)

// responseSchema describes the JSON object the generative service must return.
// Responses are validated against it before decoding so a malformed reply
// surfaces as a clear generation failure instead of a half-empty recipe.
func responseSchema() *jsonschema.Schema {
	minQty := 0.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipes": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":     {Type: "string"},
						"servings": {Type: "integer"},
						"ingredients": {
							Type: "array",
							Items: &jsonschema.Schema{
								Type: "object",
								Properties: map[string]*jsonschema.Schema{
									"name":       {Type: "string"},
									"qty":        {Type: "number", Minimum: &minQty},
									"unit":       {Type: "string"},
									"importance": {Type: "integer"},
								},
								Required: []string{"name", "qty", "unit"},
							},
						},
					},
					Required: []string{"name", "servings", "ingredients"},
				},
			},
		},
		Required: []string{"recipes"},
	}
}

var (
	resolveOnce    sync.Once
	resolvedSchema *jsonschema.Resolved
	resolveErr     error
)

func resolved() (*jsonschema.Resolved, error) {
	resolveOnce.Do(func() {
		resolvedSchema, resolveErr = responseSchema().Resolve(nil)
	})
	return resolvedSchema, resolveErr
}

type proposeResponse struct {
	Recipes []mealbudget.Recipe `json:"recipes"`
}

// parseRecipes validates and decodes the model's JSON reply.
func parseRecipes(raw string) ([]mealbudget.Recipe, error) {
	payload := stripFences(raw)
	if payload == "" {
		return nil, fmt.Errorf("empty response")
	}

	var generic map[string]any
	if err := json.Unmarshal([]byte(payload), &generic); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	schema, err := resolved()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve response schema: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("response failed schema validation: %w", err)
	}

	var resp proposeResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode recipes: %w", err)
	}
	return resp.Recipes, nil
}
