package httpapi

import (
	"time"

	"github.com/tbxark/eventagent/agent"
	"github.com/tbxark/eventagent/merge"
	"github.com/tbxark/eventagent/patch"
	"github.com/tbxark/eventagent/session"
	"github.com/tbxark/eventagent/types"
)

type extractRequest struct {
	Message             string         `json:"message"`
	ExistingParams      map[string]any `json:"existing_params"`
	ConversationHistory []types.Turn   `json:"conversation_history"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type turnResponse struct {
	SessionID             string            `json:"session_id,omitempty"`
	Phase                 types.Phase       `json:"phase"`
	ExtractedParams       map[string]any    `json:"extracted_params"`
	NeedsClarification    bool              `json:"needs_clarification"`
	ClarificationQuestion string            `json:"clarification_question,omitempty"`
	ClarificationOptions  []string          `json:"clarification_options,omitempty"`
	ReadyToGenerate       bool              `json:"ready_to_generate"`
	Response              string            `json:"response"`
	Missing               []string          `json:"missing"`
	Changes               []patch.Operation `json:"changes,omitempty"`
	Rejected              []merge.Rejection `json:"rejected,omitempty"`
}

func newTurnResponse(sessionID string, out *agent.Output) turnResponse {
	resp := turnResponse{
		SessionID:          sessionID,
		Phase:              out.Phase,
		ExtractedParams:    toExternal(out.Params),
		NeedsClarification: out.NeedsClarification,
		ReadyToGenerate:    out.ReadyToGenerate,
		Response:           out.Response,
		Missing:            externalKeys(out.Decision.Missing),
		Changes:            externalChanges(out.Changes),
		Rejected:           out.Rejected,
	}
	if q := out.Question; q != nil {
		resp.ClarificationQuestion = q.Prompt
		resp.ClarificationOptions = q.Labels()
	}
	return resp
}

type sessionResponse struct {
	SessionID string         `json:"session_id"`
	Phase     types.Phase    `json:"phase"`
	Params    map[string]any `json:"params"`
	History   []types.Turn   `json:"history"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func newSessionResponse(sess *session.Session) sessionResponse {
	history := sess.History
	if history == nil {
		history = []types.Turn{}
	}
	return sessionResponse{
		SessionID: sess.ID,
		Phase:     sess.Phase,
		Params:    toExternal(sess.Params),
		History:   history,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
}

type catalogOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type catalogRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type catalogParameter struct {
	Key         string          `json:"key"`
	DisplayName string          `json:"display_name"`
	Required    bool            `json:"required"`
	Multi       bool            `json:"multi"`
	Range       *catalogRange   `json:"range,omitempty"`
	Options     []catalogOption `json:"options,omitempty"`
}

type catalogResponse struct {
	Required   []string           `json:"required"`
	Parameters []catalogParameter `json:"parameters"`
}
