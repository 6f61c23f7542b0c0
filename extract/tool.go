package extract

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/structured"
	"github.com/tbxark/eventagent/types"
)

const (
	extractToolName        = "record_event_parameters"
	extractToolDescription = "Record the event planning parameters the user provided. Only include keys the user gave information about."
)

// ToolOracle asks a tool-calling chat model to fill a tool whose parameters
// mirror the capability catalog.
type ToolOracle struct {
	chain        *structured.Chain[*types.ExtractionRequest, types.RawExtraction]
	systemPrompt string
}

type ToolOracleOption func(*ToolOracle)

func WithToolSystemPrompt(prompt string) ToolOracleOption {
	return func(o *ToolOracle) {
		o.systemPrompt = prompt
	}
}

func NewToolOracle(chatModel model.ToolCallingChatModel, cat *catalog.Registry, opts ...ToolOracleOption) *ToolOracle {
	o := &ToolOracle{}
	for _, opt := range opts {
		opt(o)
	}
	o.chain = structured.NewChainWithTool[*types.ExtractionRequest, types.RawExtraction](
		chatModel,
		o.buildPrompt,
		ExtractionToolInfo(cat),
	)
	return o
}

func (o *ToolOracle) Extract(ctx context.Context, req *types.ExtractionRequest) (types.RawExtraction, error) {
	result, err := o.chain.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	if result == nil || *result == nil {
		return nil, ErrEmptyExtraction
	}
	return *result, nil
}

func (o *ToolOracle) buildPrompt(_ context.Context, req *types.ExtractionRequest) ([]*schema.Message, error) {
	return []*schema.Message{
		schema.SystemMessage(systemPrompt(o.systemPrompt, false)),
		schema.UserMessage(userPrompt(req)),
	}, nil
}

// ExtractionToolInfo describes every catalog key as an optional tool
// parameter, with enumerated values as hints.
func ExtractionToolInfo(cat *catalog.Registry) *schema.ToolInfo {
	params := make(map[string]*schema.ParameterInfo, len(cat.Keys()))
	for _, k := range cat.Keys() {
		spec, _ := cat.Spec(k)
		desc := spec.DisplayName
		if spec.Description != "" {
			desc += ". " + spec.Description
		}
		switch {
		case spec.Range != nil:
			params[string(k)] = &schema.ParameterInfo{
				Type: schema.Integer,
				Desc: fmt.Sprintf("%s (%d-%d)", desc, spec.Range.Min, spec.Range.Max),
			}
		case spec.Multi:
			params[string(k)] = &schema.ParameterInfo{
				Type: schema.Array,
				Desc: desc,
				ElemInfo: &schema.ParameterInfo{
					Type: schema.String,
					Enum: cat.ValidOptions(k),
				},
			}
		default:
			params[string(k)] = &schema.ParameterInfo{
				Type: schema.String,
				Desc: desc,
				Enum: cat.ValidOptions(k),
			}
		}
	}
	return &schema.ToolInfo{
		Name:        extractToolName,
		Desc:        extractToolDescription,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}
