package dialogue

import (
	"context"

	"github.com/tbxark/eventagent/types"
)

type NextTurnPlan struct {
	Message string `json:"message" jsonschema:"required,description=Natural conversational response to the user"`
}

// Request is everything a responder may use to phrase the assistant reply.
type Request struct {
	Phase  types.Phase
	Params types.ParameterSet
	// Applied are the keys whose values were accepted this turn.
	Applied []types.Key
	// Question is the clarification to ask, nil when ready or on a
	// configuration fault.
	Question     *types.ClarificationQuestion
	OracleFailed bool

	LastUserInput string
}

type Responder interface {
	Respond(ctx context.Context, req *Request) (*NextTurnPlan, error)
}
