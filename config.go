package mealbudget

// ModelConfig selects and tunes the generative backend used for recipes.
type ModelConfig struct {
	Backend      string  `env:"MODEL_BACKEND,default=gemini"`
	ModelID      string  `env:"MODEL_ID,default=gemini-1.5-flash"`
	GeminiAPIKey string  `env:"GEMINI_API_KEY,default="`
	MaxTokens    int32   `env:"MAX_TOKENS,default=2048"`
	Temperature  float32 `env:"TEMPERATURE,default=0.2"`
	TopP         float32 `env:"TOP_P,default=0.9"`
}

// PlannerConfig carries the planning tunables. RepeatAllowance is how many
// extra times a recipe may repeat beyond its first use; ReplaceCount is how
// many meals a single revision swaps out.
type PlannerConfig struct {
	RepeatAllowance int `env:"REPEAT_ALLOWANCE,default=1"`
	ReplaceCount    int `env:"REVISE_REPLACE_COUNT,default=1"`
	RevisionCeiling int `env:"REVISION_CEILING,default=3"`
}

// PricingConfig points the price lookup at a search endpoint and store.
type PricingConfig struct {
	SearchEndpoint string `env:"PRICE_SEARCH_ENDPOINT,default=http://localhost:8089"`
	Store          string `env:"GROCERY_STORE,default=Walmart"`
	Location       string `env:"STORE_LOCATION,default=Watertown, Connecticut"`
	Concurrency    int    `env:"PRICE_LOOKUP_CONCURRENCY,default=4"`
}

// PantryConfig locates the optional pantry inventory artifact. When S3Bucket
// is set the S3 source wins over the local file.
type PantryConfig struct {
	ArtifactPath string `env:"PANTRY_ARTIFACT_PATH,default=artifacts/pantry.json"`
	S3Bucket     string `env:"PANTRY_S3_BUCKET,default="`
	S3Key        string `env:"PANTRY_S3_KEY,default=pantry.json"`
}

// NotifyConfig configures the optional Slack notification of finished plans.
type NotifyConfig struct {
	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL,default="`
	SlackChannel    string `env:"SLACK_CHANNEL,default=#meal-plans"`
}
