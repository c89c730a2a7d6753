package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealbudget"
)

// mockBedrockClient implements bedrockRuntimeClient for testing.
type mockBedrockClient struct {
	response *bedrockruntime.ConverseOutput
	err      error
	input    *bedrockruntime.ConverseInput
}

func (m *mockBedrockClient) Converse(ctx context.Context, input *bedrockruntime.ConverseInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.input = input
	return m.response, m.err
}

func converseTextOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		StopReason: types.StopReasonEndTurn,
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: text},
				},
			},
		},
		Usage: &types.TokenUsage{
			InputTokens:  aws.Int32(10),
			OutputTokens: aws.Int32(20),
		},
	}
}

func TestNewBedrockClientDefaults(t *testing.T) {
	tests := []struct {
		name     string
		input    mealbudget.ModelConfig
		expected mealbudget.ModelConfig
	}{
		{
			name:  "empty config uses defaults",
			input: mealbudget.ModelConfig{},
			expected: mealbudget.ModelConfig{
				ModelID:     defaultBedrockModelID,
				MaxTokens:   defaultMaxTokens,
				Temperature: defaultTemperature,
				TopP:        defaultTopP,
			},
		},
		{
			name: "gemini model id replaced",
			input: mealbudget.ModelConfig{
				ModelID:   "gemini-1.5-flash",
				MaxTokens: 1024,
			},
			expected: mealbudget.ModelConfig{
				ModelID:     defaultBedrockModelID,
				MaxTokens:   1024,
				Temperature: defaultTemperature,
				TopP:        defaultTopP,
			},
		},
		{
			name: "custom config preserved",
			input: mealbudget.ModelConfig{
				ModelID:     "custom-model",
				MaxTokens:   4096,
				Temperature: 0.5,
				TopP:        0.8,
			},
			expected: mealbudget.ModelConfig{
				ModelID:     "custom-model",
				MaxTokens:   4096,
				Temperature: 0.5,
				TopP:        0.8,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewBedrockClient(&mockBedrockClient{}, tt.input)
			assert.Equal(t, tt.expected, client.cfg)
		})
	}
}

func TestBedrockGenerate(t *testing.T) {
	mock := &mockBedrockClient{response: converseTextOutput(`{"recipes": []}`)}
	client := NewBedrockClient(mock, mealbudget.ModelConfig{})

	got, err := client.Generate(context.Background(), "propose recipes")
	require.NoError(t, err)
	assert.Equal(t, `{"recipes": []}`, got)

	require.NotNil(t, mock.input)
	assert.Equal(t, defaultBedrockModelID, aws.ToString(mock.input.ModelId))
	require.Len(t, mock.input.Messages, 1)
	assert.Equal(t, types.ConversationRoleUser, mock.input.Messages[0].Role)
	assert.Equal(t, int32(defaultMaxTokens), aws.ToInt32(mock.input.InferenceConfig.MaxTokens))
}

func TestBedrockGenerateJoinsTextBlocks(t *testing.T) {
	out := converseTextOutput(`{"recipes": `)
	msg := out.Output.(*types.ConverseOutputMemberMessage)
	msg.Value.Content = append(msg.Value.Content, &types.ContentBlockMemberText{Value: `[]}`})

	client := NewBedrockClient(&mockBedrockClient{response: out}, mealbudget.ModelConfig{})
	got, err := client.Generate(context.Background(), "propose recipes")
	require.NoError(t, err)
	assert.Equal(t, `{"recipes": []}`, got)
}

func TestBedrockGenerateInvokeError(t *testing.T) {
	client := NewBedrockClient(&mockBedrockClient{err: errors.New("throttled")}, mealbudget.ModelConfig{})

	_, err := client.Generate(context.Background(), "propose recipes")
	assert.ErrorContains(t, err, "throttled")
}

func TestBedrockGenerateNoTextBlocks(t *testing.T) {
	out := converseTextOutput("")
	msg := out.Output.(*types.ConverseOutputMemberMessage)
	msg.Value.Content = nil

	client := NewBedrockClient(&mockBedrockClient{response: out}, mealbudget.ModelConfig{})
	_, err := client.Generate(context.Background(), "propose recipes")
	assert.ErrorContains(t, err, "no text blocks")
}
