package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"mealbudget"
)

const (
	// defaultBedrockModelID is an inference profile ID, not the foundation
	// model's ID. See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultBedrockModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	defaultMaxTokens = 2048

	// Low temperature and top_p keep outputs more deterministic, which is
	// better for the JSON recipe contract.
	defaultTemperature = 0.2
	defaultTopP        = 0.9
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient is a text generation backend for the Bedrock Converse API.
type BedrockClient struct {
	brc bedrockRuntimeClient
	cfg mealbudget.ModelConfig
}

// NewBedrockClient creates a new Bedrock-backed text generation client.
func NewBedrockClient(brc bedrockRuntimeClient, cfg mealbudget.ModelConfig) *BedrockClient {
	if cfg.ModelID == "" || strings.HasPrefix(cfg.ModelID, "gemini") {
		cfg.ModelID = defaultBedrockModelID
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.TopP == 0 {
		cfg.TopP = defaultTopP
	}
	return &BedrockClient{brc: brc, cfg: cfg}
}

// Generate sends the prompt as a single user turn and joins the text blocks
// of the reply.
func (c *BedrockClient) Generate(ctx context.Context, prompt string) (string, error) {
	in := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.cfg.ModelID),
		Messages: []types.Message{
			{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.cfg.MaxTokens),
			Temperature: aws.Float32(c.cfg.Temperature),
			TopP:        aws.Float32(c.cfg.TopP),
		},
	}

	out, err := c.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock invoke failed", "error", err, "model_id", c.cfg.ModelID)
		return "", err
	}

	slog.Info("LLM_CLIENT: Bedrock invoke succeeded",
		"stop_reason", out.StopReason,
		"input_tokens", aws.ToInt32(out.Usage.InputTokens),
		"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
	)

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("unexpected converse output type %T", out.Output)
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("converse output contained no text blocks")
	}
	return sb.String(), nil
}
