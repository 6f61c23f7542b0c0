package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/structured"
)

const (
	replyToolName        = "reply_to_user"
	replyToolDescription = "Send the next conversational message to the user."
)

// DefaultSystemPromptTemplate may contain a single "%s" placeholder for the
// reply language.
const DefaultSystemPromptTemplate = `You are a friendly event planning assistant helping a user describe their event.

Respond naturally and briefly:
- Acknowledge the details you understood this turn.
- If there is a question to ask, ask exactly that question and mention its options in a sentence. Never ask about anything else.
- If the phase is ready, summarize the details and say the event is ready to generate.
- If the last message could not be processed, apologize in one short sentence and ask the question again.
- Never mention internal keys, errors or validation.
- Reply in %s.
`

type toolResponderOptions struct {
	lang                 string
	systemPrompt         string
	systemPromptTemplate string
}

type ResponderOption func(*toolResponderOptions)

func WithLang(lang string) ResponderOption {
	return func(o *toolResponderOptions) {
		o.lang = lang
	}
}

// WithSystemPrompt overrides the system prompt entirely.
func WithSystemPrompt(systemPrompt string) ResponderOption {
	return func(o *toolResponderOptions) {
		o.systemPrompt = systemPrompt
	}
}

func WithSystemPromptTemplate(tpl string) ResponderOption {
	return func(o *toolResponderOptions) {
		o.systemPromptTemplate = tpl
	}
}

// ToolBasedResponder asks a chat model to phrase the reply through a forced
// tool call.
type ToolBasedResponder struct {
	cat          *catalog.Registry
	systemPrompt string
	chain        *structured.Chain[*Request, NextTurnPlan]
}

func NewToolBasedResponder(chatModel model.ToolCallingChatModel, cat *catalog.Registry, opts ...ResponderOption) (*ToolBasedResponder, error) {
	options := toolResponderOptions{
		lang:                 "English",
		systemPromptTemplate: DefaultSystemPromptTemplate,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	systemPrompt := options.systemPrompt
	if systemPrompt == "" {
		systemPrompt = options.systemPromptTemplate
		if strings.Contains(systemPrompt, "%s") {
			systemPrompt = fmt.Sprintf(systemPrompt, options.lang)
		}
	}
	r := &ToolBasedResponder{cat: cat, systemPrompt: systemPrompt}
	chain, err := structured.NewChain[*Request, NextTurnPlan](chatModel, r.buildPrompt, replyToolName, replyToolDescription)
	if err != nil {
		return nil, err
	}
	r.chain = chain
	return r, nil
}

func (r *ToolBasedResponder) Respond(ctx context.Context, req *Request) (*NextTurnPlan, error) {
	plan, err := r.chain.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	return plan, nil
}

func (r *ToolBasedResponder) buildPrompt(_ context.Context, req *Request) ([]*schema.Message, error) {
	return []*schema.Message{
		schema.SystemMessage(r.systemPrompt),
		schema.UserMessage(formatDialogueRequest(r.cat, req)),
	}, nil
}
