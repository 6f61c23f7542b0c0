package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

var _ adk.Agent = (*Agent)(nil)

// Agent exposes an Engine as an eino adk agent. The session comes from the
// run context (see WithSessionID); without one a new session is started.
type Agent struct {
	name        string
	description string
	engine      *Engine
}

func NewAgent(name, description string, engine *Engine) *Agent {
	return &Agent{
		name:        name,
		description: description,
		engine:      engine,
	}
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			e := recover()
			if e != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		message, err := lastUserMessage(input)
		if err != nil {
			gen.Send(&adk.AgentEvent{Err: err})
			return
		}
		id, ok := SessionIDFromContext(ctx)
		if !ok {
			sess, err := a.engine.Start(ctx)
			if err != nil {
				gen.Send(&adk.AgentEvent{Err: fmt.Errorf("start session: %w", err)})
				return
			}
			id = sess.ID
		}
		out, err := a.engine.Turn(ctx, id, message)
		if err != nil {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("turn failed: %w", err),
			})
			return
		}
		gen.Send(&adk.AgentEvent{
			AgentName: a.name,
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					IsStreaming: false,
					Message: &schema.Message{
						Role:    schema.Assistant,
						Content: out.Response,
					},
					Role: schema.Assistant,
				},
				CustomizedOutput: out,
			},
		})
	}()
	return iter
}

func lastUserMessage(input *adk.AgentInput) (string, error) {
	if input == nil {
		return "", errors.New("no messages in input")
	}
	for i := len(input.Messages) - 1; i >= 0; i-- {
		m := input.Messages[i]
		if m != nil && m.Role == schema.User {
			return m.Content, nil
		}
	}
	return "", errors.New("no user message in input")
}
