package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	openai "github.com/sashabaranov/go-openai"
	"github.com/tbxark/eventagent/structured"
	"github.com/tbxark/eventagent/types"
)

// OpenAIOracle calls the chat completions API in JSON mode.
type OpenAIOracle struct {
	client       *openai.Client
	model        string
	systemPrompt string
}

type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
}

func NewOpenAIOracle(cfg OpenAIConfig) *OpenAIOracle {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIOracle{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        model,
		systemPrompt: cfg.SystemPrompt,
	}
}

func (o *OpenAIOracle) Extract(ctx context.Context, req *types.ExtractionRequest) (types.RawExtraction, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(o.systemPrompt, true)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyExtraction
	}
	content := structured.StripCodeFence(resp.Choices[0].Message.Content)
	if !strings.HasPrefix(content, "{") {
		return nil, fmt.Errorf("%w: %q", ErrEmptyExtraction, content)
	}
	raw := types.RawExtraction{}
	if err := sonic.UnmarshalString(content, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyExtraction, err)
	}
	return raw, nil
}
