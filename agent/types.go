package agent

import (
	"github.com/tbxark/eventagent/merge"
	"github.com/tbxark/eventagent/patch"
	"github.com/tbxark/eventagent/planner"
	"github.com/tbxark/eventagent/types"
)

// Input is the explicit state a turn is computed over.
type Input struct {
	Message string
	Params  types.ParameterSet
	History []types.Turn
	Phase   types.Phase
}

// Output is the state after a turn plus what to tell the user.
type Output struct {
	Params   types.ParameterSet
	Phase    types.Phase
	Decision planner.Decision

	Applied  []types.Key
	Rejected []merge.Rejection
	Changes  []patch.Operation

	Response           string
	NeedsClarification bool
	ReadyToGenerate    bool
	Question           *types.ClarificationQuestion

	// OracleFailed is set when extraction was skipped for this turn.
	OracleFailed bool
	// ConfigurationFault is set when a required key has no question.
	ConfigurationFault bool
}

func (o *Output) outcome() string {
	switch {
	case o.ConfigurationFault:
		return "configuration_fault"
	case o.OracleFailed:
		return "oracle_failed"
	case o.ReadyToGenerate:
		return "ready"
	default:
		return "collecting"
	}
}
