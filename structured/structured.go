package structured

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// ErrNoToolCall is returned when the model answered without calling the tool
// and the content is not a JSON document either.
var ErrNoToolCall = errors.New("no tool call found in model response")

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

// Chain forces a tool-calling model to answer through a single tool and
// decodes the tool arguments as TOutput.
type Chain[TInput, TOutput any] struct {
	PromptBuilder PromptBuilder[TInput]
	ChatModel     model.ToolCallingChatModel
	ToolInfo      *schema.ToolInfo
}

// NewChain derives the tool schema from TOutput, which must be a struct.
func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
) (*Chain[TInput, TOutput], error) {
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return NewChainWithTool[TInput, TOutput](chatModel, promptBuilder, toolInfo), nil
}

// NewChainWithTool uses a prebuilt tool schema, for outputs whose shape is
// only known at runtime.
func NewChainWithTool[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolInfo *schema.ToolInfo,
) *Chain[TInput, TOutput] {
	return &Chain[TInput, TOutput]{
		PromptBuilder: promptBuilder,
		ChatModel:     chatModel,
		ToolInfo:      toolInfo,
	}
}

func (s *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}

	response, err := s.ChatModel.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{s.ToolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, s.ToolInfo.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("call model failed: %w", err)
	}

	arguments, err := s.arguments(response)
	if err != nil {
		return nil, err
	}

	var result TOutput
	if err := sonic.UnmarshalString(arguments, &result); err != nil {
		return nil, fmt.Errorf("parse ToolCall arguments failed: %w", err)
	}

	return &result, nil
}

// arguments picks the call addressed to our tool. Some providers ignore the
// forced tool choice and reply with plain JSON, which is accepted as well.
func (s *Chain[TInput, TOutput]) arguments(response *schema.Message) (string, error) {
	if response == nil {
		return "", ErrNoToolCall
	}
	for _, call := range response.ToolCalls {
		if call.Function.Name == s.ToolInfo.Name {
			return call.Function.Arguments, nil
		}
	}
	if len(response.ToolCalls) > 0 {
		return response.ToolCalls[0].Function.Arguments, nil
	}
	content := StripCodeFence(response.Content)
	if strings.HasPrefix(content, "{") {
		return content, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoToolCall, response.Content)
}

func (s *Chain[TInput, TOutput]) GetToolInfo() *schema.ToolInfo {
	return s.ToolInfo
}

// StripCodeFence removes a surrounding markdown code fence such as ```json.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		content = content[nl+1:]
	} else {
		content = strings.TrimPrefix(content, "json")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
