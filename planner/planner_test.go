package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/normalize"
	"github.com/tbxark/eventagent/types"
	"github.com/tbxark/eventagent/validate"
	"go.uber.org/zap/zaptest"
)

func newPlanner(t *testing.T, opts ...Option) (*Planner, *normalize.Normalizer) {
	t.Helper()
	cat := catalog.MustDefault()
	norm, err := normalize.New(cat)
	require.NoError(t, err)
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	p, err := New(norm, validate.New(cat), opts...)
	require.NoError(t, err)
	return p, norm
}

func TestNextAsksInRequiredOrder(t *testing.T) {
	p, _ := newPlanner(t)
	require.NoError(t, p.Check())

	d, err := p.Next(types.ParameterSet{}, types.PhaseCollecting)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseCollecting, d.Phase)
	assert.Equal(t, []types.Key{types.KeyEventType, types.KeyGuestCount, types.KeyBudgetRange}, d.Missing)
	require.NotNil(t, d.Question)
	assert.Equal(t, types.KeyEventType, d.Question.Key)

	d, err = p.Next(types.ParameterSet{types.KeyEventType: types.String("birthday-child")}, types.PhaseCollecting)
	require.NoError(t, err)
	assert.Equal(t, []types.Key{types.KeyGuestCount, types.KeyBudgetRange}, d.Missing)
	assert.Equal(t, types.KeyGuestCount, d.Question.Key)

	d, err = p.Next(types.ParameterSet{
		types.KeyEventType:  types.String("birthday-child"),
		types.KeyGuestCount: types.Int(50),
	}, types.PhaseCollecting)
	require.NoError(t, err)
	assert.Equal(t, []types.Key{types.KeyBudgetRange}, d.Missing)
	assert.Equal(t, types.KeyBudgetRange, d.Question.Key)

	d, err = p.Next(types.ParameterSet{
		types.KeyEventType:   types.String("birthday-child"),
		types.KeyGuestCount:  types.Int(50),
		types.KeyBudgetRange: types.String("under-2k"),
	}, types.PhaseCollecting)
	require.NoError(t, err)
	assert.True(t, d.Ready())
	assert.Nil(t, d.Question)
	assert.Empty(t, d.Missing)
}

func TestNeverAsksAboutValidKey(t *testing.T) {
	p, _ := newPlanner(t)
	sets := []types.ParameterSet{
		{},
		{types.KeyEventType: types.String("wedding")},
		{types.KeyGuestCount: types.Int(10)},
		{types.KeyBudgetRange: types.String("over-50k"), types.KeyCulture: types.String("korean")},
		{types.KeyEventType: types.String("wedding"), types.KeyBudgetRange: types.String("2k-5k")},
		{types.KeyGuestCount: types.Int(0)},
	}
	for _, set := range sets {
		d, err := p.Next(set, types.PhaseCollecting)
		require.NoError(t, err)
		if d.Question == nil {
			continue
		}
		v, present := set[d.Question.Key]
		assert.False(t, present && validate.New(catalog.MustDefault()).IsValid(d.Question.Key, v),
			"asked about %s which holds %v", d.Question.Key, v)
	}
}

func TestReadyIsSticky(t *testing.T) {
	p, _ := newPlanner(t)
	d, err := p.Next(types.ParameterSet{}, types.PhaseReady)
	require.NoError(t, err)
	assert.True(t, d.Ready())
	assert.Nil(t, d.Question)
}

func TestOptionsRoundTrip(t *testing.T) {
	p, norm := newPlanner(t)
	val := validate.New(norm.Catalog())
	for _, k := range norm.Catalog().Keys() {
		q, ok := p.Question(k)
		if !ok {
			continue
		}
		require.NotEmpty(t, q.Options, k)
		for _, opt := range q.Options {
			for _, ctx := range []normalize.Context{
				{},
				{Message: "it's for my 3 year old"},
				{Message: "my 40th", History: []types.Turn{{Role: types.RoleUser, Content: "a party for my husband"}}},
			} {
				v, ok := norm.Normalize(k, opt.Label, ctx)
				require.True(t, ok, "%s %q", k, opt.Label)
				assert.Equal(t, opt.Value, v.String(), "%s %q", k, opt.Label)
				assert.True(t, val.IsValid(k, v))
			}
		}
	}
}

func TestGuestCountQuestionUsesRepresentativeValues(t *testing.T) {
	p, _ := newPlanner(t)
	q, ok := p.Question(types.KeyGuestCount)
	require.True(t, ok)
	assert.Equal(t, []types.Option{
		{Label: "1-10 people", Value: "5"},
		{Label: "10-25 people", Value: "17"},
		{Label: "25-50 people", Value: "37"},
		{Label: "50-100 people", Value: "75"},
		{Label: "100-250 people", Value: "175"},
		{Label: "250+ people", Value: "250"},
	}, q.Options)
}

func TestBudgetQuestionLabels(t *testing.T) {
	p, _ := newPlanner(t)
	q, ok := p.Question(types.KeyBudgetRange)
	require.True(t, ok)
	assert.Equal(t, []string{"Under $2,000", "$2,000-$5,000", "$5,000-$15,000", "$15,000-$50,000", "$50,000+"}, q.Labels())
}

func TestMissingQuestionIsConfigurationFault(t *testing.T) {
	p, _ := newPlanner(t, WithoutQuestion(types.KeyGuestCount))
	assert.True(t, errors.Is(p.Check(), ErrConfigurationFault))

	d, err := p.Next(types.ParameterSet{types.KeyEventType: types.String("wedding")}, types.PhaseCollecting)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigurationFault))
	assert.Nil(t, d.Question)
	assert.Equal(t, types.PhaseCollecting, d.Phase)
}

func TestNewRejectsUnknownRequiredKey(t *testing.T) {
	cat := catalog.MustDefault()
	norm, err := normalize.New(cat)
	require.NoError(t, err)
	_, err = New(norm, validate.New(cat), WithRequired(types.KeyEventType, "favourite_colour"))
	assert.True(t, errors.Is(err, ErrConfigurationFault))
}

func TestNewRejectsUnmappableLabel(t *testing.T) {
	cat, err := catalog.Load([]byte(`
required: [guest_count, event_type]
keys:
  - key: event_type
    display_name: Event type
    values:
      - {value: birthday-child, label: Birthday (Child)}
      - {value: birthday-adult, label: Birthday (Adult)}
  - key: guest_count
    display_name: Guests
    range: {min: 1, max: 1000}
questions:
  - key: guest_count
    prompt: How many?
    labels: [a handful, 10-25 people]
`))
	require.NoError(t, err)
	norm, err := normalize.New(cat)
	require.NoError(t, err)
	_, err = New(norm, validate.New(cat))
	assert.True(t, errors.Is(err, ErrConfigurationFault))
}

func TestSmallCatalogCustomOrder(t *testing.T) {
	cat, err := catalog.Load([]byte(`
required: [guest_count, event_type]
keys:
  - key: event_type
    display_name: Event type
    values:
      - {value: birthday-child, label: Birthday (Child)}
      - {value: birthday-adult, label: Birthday (Adult)}
  - key: guest_count
    display_name: Guests
    range: {min: 1, max: 20}
questions:
  - key: guest_count
    prompt: How many?
    labels: [1-10 people, 10-20 people]
  - key: event_type
    prompt: Which?
    options: [birthday-child, birthday-adult]
`))
	require.NoError(t, err)
	norm, err := normalize.New(cat)
	require.NoError(t, err)
	p, err := New(norm, validate.New(cat))
	require.NoError(t, err)

	d, err := p.Next(types.ParameterSet{types.KeyGuestCount: types.Int(50)}, types.PhaseCollecting)
	require.NoError(t, err)
	assert.Equal(t, []types.Key{types.KeyGuestCount, types.KeyEventType}, d.Missing)
	assert.Equal(t, types.KeyGuestCount, d.Question.Key)
}
