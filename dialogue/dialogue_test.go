package dialogue

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/internal/llmtest"
	"github.com/tbxark/eventagent/types"
)

var budgetQuestion = &types.ClarificationQuestion{
	Key:    types.KeyBudgetRange,
	Prompt: "What budget range are you working with?",
	Options: []types.Option{
		{Label: "Under $2,000", Value: "under-2k"},
	},
}

func TestLocalResponderAcknowledgesAndAsks(t *testing.T) {
	r := NewLocalResponder(catalog.MustDefault())
	plan, err := r.Respond(context.Background(), &Request{
		Phase:    types.PhaseCollecting,
		Params:   types.ParameterSet{types.KeyEventType: types.String("birthday-child"), types.KeyGuestCount: types.Int(50)},
		Applied:  []types.Key{types.KeyGuestCount},
		Question: budgetQuestion,
	})
	require.NoError(t, err)
	assert.Contains(t, plan.Message, "50")
	assert.NotContains(t, plan.Message, "Birthday (Child)")
	assert.Contains(t, plan.Message, budgetQuestion.Prompt)
}

func TestLocalResponderReady(t *testing.T) {
	r := NewLocalResponder(catalog.MustDefault())
	plan, err := r.Respond(context.Background(), &Request{
		Phase: types.PhaseReady,
		Params: types.ParameterSet{
			types.KeyEventType:   types.String("birthday-child"),
			types.KeyGuestCount:  types.Int(50),
			types.KeyBudgetRange: types.String("under-2k"),
		},
		Applied: []types.Key{types.KeyBudgetRange},
	})
	require.NoError(t, err)
	assert.Contains(t, plan.Message, "Birthday (Child)")
	assert.Contains(t, plan.Message, "Under $2,000")
	assert.Contains(t, plan.Message, "ready to generate")
}

func TestLocalResponderOracleFailure(t *testing.T) {
	r := NewLocalResponder(catalog.MustDefault())
	plan, err := r.Respond(context.Background(), &Request{
		Phase:        types.PhaseCollecting,
		Params:       types.ParameterSet{},
		OracleFailed: true,
		Question:     budgetQuestion,
	})
	require.NoError(t, err)
	assert.Contains(t, plan.Message, "Sorry")
	assert.Contains(t, plan.Message, budgetQuestion.Prompt)
}

func TestToolBasedResponder(t *testing.T) {
	fake := llmtest.New(func(_ context.Context, input []*schema.Message, opts *model.Options) (*schema.Message, error) {
		require.Len(t, input, 2)
		assert.Contains(t, input[0].Content, "Reply in French")
		assert.Contains(t, input[1].Content, budgetQuestion.Prompt)
		assert.Contains(t, input[1].Content, "Under $2,000")
		return llmtest.ToolCall(replyToolName, `{"message":"Quel est votre budget ?"}`), nil
	})
	r, err := NewToolBasedResponder(fake, catalog.MustDefault(), WithLang("French"))
	require.NoError(t, err)

	plan, err := r.Respond(context.Background(), &Request{
		Phase:    types.PhaseCollecting,
		Params:   types.ParameterSet{},
		Question: budgetQuestion,
	})
	require.NoError(t, err)
	assert.Equal(t, "Quel est votre budget ?", plan.Message)
	assert.Len(t, fake.Calls(), 1)
}

func TestFailbackResponder(t *testing.T) {
	broken, err := NewToolBasedResponder(llmtest.Fail(errors.New("timeout")), catalog.MustDefault())
	require.NoError(t, err)
	r := NewFailbackResponder(broken, NewLocalResponder(catalog.MustDefault()))

	plan, err := r.Respond(context.Background(), &Request{Phase: types.PhaseCollecting, Question: budgetQuestion})
	require.NoError(t, err)
	assert.Equal(t, budgetQuestion.Prompt, plan.Message)

	_, err = NewFailbackResponder(broken).Respond(context.Background(), &Request{})
	assert.ErrorContains(t, err, "timeout")
}
