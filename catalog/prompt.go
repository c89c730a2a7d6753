package catalog

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"mealbudget"
)

//go:embed propose_prompt.md
var proposePrompt string

var proposeTmpl = template.Must(template.New("propose").Parse(proposePrompt))

type proposePromptData struct {
	Count               int
	NutritionGoals      string
	Cuisines            string
	DietaryRestrictions string
	PantryItems         string
	Exclude             string
}

func buildProposePrompt(prefs mealbudget.UserPreferences, count int, exclude []string) (string, error) {
	data := proposePromptData{
		Count:               count,
		NutritionGoals:      joinOrNone(prefs.NutritionGoals),
		Cuisines:            joinOrNone(prefs.Cuisines),
		DietaryRestrictions: joinOrNone(prefs.DietaryRestrictions),
		PantryItems:         joinOrNone(prefs.PantryItems),
		Exclude:             strings.Join(exclude, ", "),
	}

	var buf bytes.Buffer
	if err := proposeTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
