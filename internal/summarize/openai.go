package summarize

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

const defaultChatModel = "gpt-4o-mini"

// OpenAIProvider implements LiveProvider via OpenAI chat completions,
// grounded on the corpus's CallLLM-style wrapper around openai-go.
type OpenAIProvider struct {
	client *openai.Client
	apiKey string
}

var _ LiveProvider = (*OpenAIProvider)(nil)

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{client: &client, apiKey: apiKey}
}

func (p *OpenAIProvider) Available(_ context.Context) bool {
	return p.apiKey != ""
}

// Complete sends a single system+user chat completion request and returns
// the model's reply text.
func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt, model string, maxWords int) (string, error) {
	if model == "" {
		model = defaultChatModel
	}

	params := openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: param.NewOpt(0.2),
		MaxTokens:   param.NewOpt(int64(maxWords * 4)),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
