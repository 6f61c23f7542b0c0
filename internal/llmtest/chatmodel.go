// Package llmtest provides a scripted eino chat model for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type RespondFunc func(ctx context.Context, input []*schema.Message, opts *model.Options) (*schema.Message, error)

// ChatModel implements model.ToolCallingChatModel by delegating to Respond and
// recording every call.
type ChatModel struct {
	Respond RespondFunc

	mu    sync.Mutex
	calls [][]*schema.Message
	tools []*schema.ToolInfo
}

var _ model.ToolCallingChatModel = (*ChatModel)(nil)

func New(respond RespondFunc) *ChatModel {
	return &ChatModel{Respond: respond}
}

// Reply answers every call with msg.
func Reply(msg *schema.Message) *ChatModel {
	return New(func(context.Context, []*schema.Message, *model.Options) (*schema.Message, error) {
		return msg, nil
	})
}

// Fail answers every call with err.
func Fail(err error) *ChatModel {
	return New(func(context.Context, []*schema.Message, *model.Options) (*schema.Message, error) {
		return nil, err
	})
}

// Block waits for the context to end and returns its error.
func Block() *ChatModel {
	return New(func(ctx context.Context, _ []*schema.Message, _ *model.Options) (*schema.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

// ToolCall builds an assistant message calling name with the given JSON arguments.
func ToolCall(name, arguments string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID:       "call_1",
			Type:     "function",
			Function: schema.FunctionCall{Name: name, Arguments: arguments},
		}},
	}
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{Tools: m.tools}, opts...)
	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.mu.Unlock()
	return m.Respond(ctx, input, options)
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return &ChatModel{Respond: m.Respond, tools: tools}, nil
}

// Calls returns the message lists passed to Generate so far.
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.calls))
	copy(out, m.calls)
	return out
}
