package extract

import (
	"fmt"

	"github.com/tbxark/eventagent/types"
)

// DefaultSystemPrompt instructs a model to report only what the user stated.
const DefaultSystemPrompt = `You extract event planning parameters from a conversation.
Report only values the user stated or clearly implied in the latest message, using earlier turns for context.
Prefer the allowed values listed for each key. Use an integer for guest_count.
When the user answers the pending question, map the answer to one of its options.
Omit every key you have no information about; never guess.`

func systemPrompt(custom string, jsonMode bool) string {
	prompt := DefaultSystemPrompt
	if custom != "" {
		prompt = custom
	}
	if jsonMode {
		prompt += "\nReply with a single JSON object mapping parameter keys to values and nothing else."
	} else {
		prompt += fmt.Sprintf("\nCall %s with the extracted parameters.", extractToolName)
	}
	return prompt
}

func userPrompt(req *types.ExtractionRequest) string {
	return types.FormatExtractionRequest(req)
}
