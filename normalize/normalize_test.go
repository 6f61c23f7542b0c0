package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/types"
)

func newNormalizer(t *testing.T, opts ...Option) *Normalizer {
	t.Helper()
	n, err := New(catalog.MustDefault(), opts...)
	require.NoError(t, err)
	return n
}

func TestNormalizeEnumExactAndLabel(t *testing.T) {
	n := newNormalizer(t)
	cases := []struct {
		key  types.Key
		raw  any
		want types.Value
	}{
		{types.KeyEventType, "Wedding", types.String("wedding")},
		{types.KeyEventType, "Birthday (Child)", types.String("birthday-child")},
		{types.KeyEventType, "BIRTHDAY-ADULT", types.String("birthday-adult")},
		{types.KeyEventType, "Corporate Event", types.String("corporate")},
		{types.KeyBudgetRange, "$5,000-$15,000", types.String("5k-15k")},
		{types.KeyBudgetRange, "Under $2,000", types.String("under-2k")},
		{types.KeyBudgetRange, "$50,000+", types.String("over-50k")},
		{types.KeySpaceType, "Indoor & Outdoor", types.String("indoor-outdoor")},
		{types.KeyTimeOfDay, "evening", types.String("evening")},
		{types.KeyCulture, "Middle Eastern", types.String("middle-eastern")},
	}
	for _, tc := range cases {
		got, ok := n.Normalize(tc.key, tc.raw, Context{})
		require.True(t, ok, "%s %v", tc.key, tc.raw)
		assert.Equal(t, tc.want, got, "%s %v", tc.key, tc.raw)
	}
}

func TestNormalizeRejects(t *testing.T) {
	n := newNormalizer(t)
	cases := []struct {
		key types.Key
		raw any
	}{
		{types.KeyEventType, nil},
		{types.KeyEventType, ""},
		{types.KeyEventType, "N/A"},
		{types.KeyEventType, "unknown"},
		{types.KeyEventType, "a quiet get together"},
		{types.KeyEventType, 42.0},
		{types.KeyGuestCount, "abc"},
		{types.KeyGuestCount, true},
		{types.KeyGuestCount, 49.6},
		{types.KeyGuestCount, "2.5"},
		{types.KeyGuestCount, "about 12.5 guests"},
		{types.KeyBudgetRange, "We expect 150 people"},
		{types.KeyBudgetRange, "starting at 7 pm"},
		{types.KeyBudgetRange, "cheap"},
		{types.KeyStylePreferences, []any{}},
		{types.KeyStylePreferences, []any{"modern", "spaceship"}},
		{"favourite_colour", "blue"},
	}
	for _, tc := range cases {
		_, ok := n.Normalize(tc.key, tc.raw, Context{})
		assert.False(t, ok, "%s %v", tc.key, tc.raw)
	}
}

func TestNormalizeBirthdayDisambiguation(t *testing.T) {
	n := newNormalizer(t)
	cases := []struct {
		name string
		raw  string
		ctx  Context
		want string
	}{
		{"age in message", "birthday party", Context{Message: "I want to plan a birthday party for my 3 year old"}, BirthdayChild},
		{"age in raw", "birthday for a 40-year-old", Context{}, BirthdayAdult},
		{"ordinal", "50th birthday", Context{}, BirthdayAdult},
		{"word ordinal", "my son's first birthday", Context{}, BirthdayChild},
		{"turning", "Birthday Party", Context{Message: "she is turning twelve"}, BirthdayChild},
		{"child qualifier", "kids birthday", Context{}, BirthdayChild},
		{"adult qualifier", "birthday", Context{Message: "a surprise birthday for my husband"}, BirthdayAdult},
		{"history", "birthday party", Context{
			Message: "let's do a birthday party",
			History: []types.Turn{
				{Role: types.RoleUser, Content: "it's for my daughter"},
				{Role: types.RoleAssistant, Content: "What type of event are you planning?"},
			},
		}, BirthdayChild},
		{"assistant turns ignored", "birthday party", Context{
			History: []types.Turn{{Role: types.RoleAssistant, Content: "Is this for a child?"}},
		}, BirthdayAdult},
		{"no cue uses default", "Birthday Party", Context{Message: "Birthday Party"}, BirthdayAdult},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := n.Normalize(types.KeyEventType, tc.raw, tc.ctx)
			require.True(t, ok)
			assert.Equal(t, types.String(tc.want), got)
		})
	}
}

func TestNormalizeBirthdayConfiguredDefault(t *testing.T) {
	n := newNormalizer(t, WithBirthdayDefault(BirthdayChild))
	got, ok := n.Normalize(types.KeyEventType, "birthday party", Context{})
	require.True(t, ok)
	assert.Equal(t, types.String(BirthdayChild), got)

	_, err := New(catalog.MustDefault(), WithBirthdayDefault("wedding"))
	assert.Error(t, err)
}

func TestNormalizeGuestCount(t *testing.T) {
	n := newNormalizer(t)
	cases := []struct {
		raw  any
		want int
	}{
		{50.0, 50},
		{"40.0 guests", 40},
		{120, 120},
		{"50", 50},
		{"25-50 people", 37},
		{"1-10 people", 5},
		{"100-250 people", 175},
		{"250+ people", 250},
		{"About 20 kids and their parents, so maybe 50 people total", 50},
		{"between 40 and 60 guests", 50},
		{"fifty guests", 50},
		{"around two hundred", 200},
		{"1,000 people", 1000},
		{"5000", 5000},
	}
	for _, tc := range cases {
		got, ok := n.Normalize(types.KeyGuestCount, tc.raw, Context{})
		require.True(t, ok, "%v", tc.raw)
		assert.Equal(t, types.Int(tc.want), got, "%v", tc.raw)
	}
}

func TestNormalizeBudget(t *testing.T) {
	n := newNormalizer(t)
	cases := []struct {
		raw  any
		want string
	}{
		{"I'd like to keep it under $2000", "under-2k"},
		{"under $2,000", "under-2k"},
		{"around $10k", "5k-15k"},
		{"5-15k", "5k-15k"},
		{"$3000 to $4000", "2k-5k"},
		{"over 50k", "over-50k"},
		{"no more than five thousand", "2k-5k"},
		{"$20,000", "15k-50k"},
		{"2k-5k", "2k-5k"},
		{"between 5 and 15 thousand", "5k-15k"},
		{"$5k – $10k", "5k-15k"},
		{7500.0, "5k-15k"},
		{"A rustic wedding in the garden for 80 guests, budget around $12k", "5k-15k"},
		{"200 guests, budget of $3,000", "2k-5k"},
		{"budget around $20,000, starting at 7 pm", "15k-50k"},
		{"budget is 4000, dinner at 7:30", "2k-5k"},
		{"30 to 40 guests and about 6k", "5k-15k"},
		{"for 25 people, around 1500 dollars", "under-2k"},
	}
	for _, tc := range cases {
		got, ok := n.Normalize(types.KeyBudgetRange, tc.raw, Context{})
		require.True(t, ok, "%v", tc.raw)
		assert.Equal(t, types.String(tc.want), got, "%v", tc.raw)
	}
}

func TestNormalizeKeywords(t *testing.T) {
	n := newNormalizer(t)

	got, ok := n.Normalize(types.KeyEventType, "our wedding anniversary dinner", Context{})
	require.True(t, ok)
	assert.Equal(t, types.String("anniversary"), got)

	got, ok = n.Normalize(types.KeySpaceType, "in the backyard", Context{})
	require.True(t, ok)
	assert.Equal(t, types.String("outdoor"), got)

	got, ok = n.Normalize(types.KeyStylePreferences, "elegant but modern", Context{})
	require.True(t, ok)
	assert.Equal(t, types.Set("elegant", "modern"), got)

	got, ok = n.Normalize(types.KeyStylePreferences, []any{"Rustic", "boho"}, Context{})
	require.True(t, ok)
	assert.Equal(t, types.Set("bohemian", "rustic"), got)

	got, ok = n.Normalize(types.KeyAccessibilityRequirements, []string{"Wheelchair Access"}, Context{})
	require.True(t, ok)
	assert.Equal(t, types.Set("wheelchair-access"), got)
}

func TestWordsToDigits(t *testing.T) {
	assert.Equal(t, "25 guests", wordsToDigits("twenty-five guests"))
	assert.Equal(t, "about 150 people", wordsToDigits("about one hundred fifty people"))
	assert.Equal(t, "24 kids", wordsToDigits("two dozen kids"))
	assert.Equal(t, "3 year old", wordsToDigits("three year old"))
	assert.Equal(t, "no numbers here", wordsToDigits("no numbers here"))
	assert.Equal(t, "15 thousand dollars", wordsToDigits("15 thousand dollars"))
	assert.Equal(t, "20000 dollars", wordsToDigits("twenty thousand dollars"))
}
