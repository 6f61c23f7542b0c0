package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/types"
)

// LocalResponder phrases replies from fixed templates.
type LocalResponder struct {
	cat *catalog.Registry
}

func NewLocalResponder(cat *catalog.Registry) *LocalResponder {
	return &LocalResponder{cat: cat}
}

func (g *LocalResponder) Respond(ctx context.Context, req *Request) (*NextTurnPlan, error) {
	var sb strings.Builder
	if req.OracleFailed {
		sb.WriteString("Sorry, I couldn't process that just now. ")
	} else if facts := formatFacts(g.cat, req.Params, req.Applied); facts != "" {
		fmt.Fprintf(&sb, "Got it. %s. ", facts)
	}

	switch {
	case req.Phase == types.PhaseReady:
		if facts := formatFacts(g.cat, req.Params, req.Params.Keys()); facts != "" {
			fmt.Fprintf(&sb, "I have everything I need: %s. ", facts)
		}
		sb.WriteString("Your event is ready to generate.")
	case req.Question != nil:
		sb.WriteString(req.Question.Prompt)
	default:
		sb.WriteString("Thanks! Give me a moment to prepare the next step.")
	}
	return &NextTurnPlan{Message: strings.TrimSpace(sb.String())}, nil
}

// FailbackResponder tries each responder in order.
type FailbackResponder struct {
	responders []Responder
}

func NewFailbackResponder(responders ...Responder) *FailbackResponder {
	return &FailbackResponder{responders: responders}
}

func (g *FailbackResponder) Respond(ctx context.Context, req *Request) (*NextTurnPlan, error) {
	lastErr := errors.New("no responders configured")
	for _, responder := range g.responders {
		plan, err := responder.Respond(ctx, req)
		if err == nil && plan != nil && plan.Message != "" {
			return plan, nil
		}
		if err == nil {
			err = errors.New("empty response")
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all dialogue responders failed: %w", lastErr)
}
