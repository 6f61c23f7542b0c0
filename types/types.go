package types

import (
	"slices"
	"time"
)

// Key is the stable internal identifier of an event parameter.
type Key string

const (
	KeyEventType                 Key = "event_type"
	KeyGuestCount                Key = "guest_count"
	KeyBudgetRange               Key = "budget_range"
	KeyCulture                   Key = "culture"
	KeyStylePreferences          Key = "style_preferences"
	KeySpaceType                 Key = "space_type"
	KeyTimeOfDay                 Key = "time_of_day"
	KeyAccessibilityRequirements Key = "accessibility_requirements"
)

type Phase string

const (
	PhaseCollecting Phase = "collecting"
	PhaseReady      Phase = "ready"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the append-only conversation log.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type FieldInfo struct {
	Key         Key    `json:"key"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// Option is one selectable answer of a clarification question.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type ClarificationQuestion struct {
	Key     Key      `json:"key"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

func (q ClarificationQuestion) Labels() []string {
	labels := make([]string, len(q.Options))
	for i, opt := range q.Options {
		labels[i] = opt.Label
	}
	return labels
}

func (q ClarificationQuestion) Clone() ClarificationQuestion {
	q.Options = slices.Clone(q.Options)
	return q
}

// RawExtraction is an unvalidated proposal of key -> value produced by an
// extraction oracle. Keys and values are untrusted.
type RawExtraction map[string]any

// ExtractionRequest is everything an oracle may look at for one turn.
type ExtractionRequest struct {
	Message  string
	Existing ParameterSet
	History  []Turn
	Missing  []FieldInfo
	// Question is the clarification question the user is answering, if any.
	Question *ClarificationQuestion
	// Allowed lists the canonical values per enumerated key, used as hints only.
	Allowed map[Key][]string
}
