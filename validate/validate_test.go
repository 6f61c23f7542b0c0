package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/types"
)

func TestGuestCountRange(t *testing.T) {
	v := New(catalog.MustDefault())
	for n := -5; n <= 1005; n++ {
		want := n >= 1 && n <= 1000
		assert.Equal(t, want, v.IsValid(types.KeyGuestCount, types.Int(n)), "n=%d", n)
	}
	assert.False(t, v.IsValid(types.KeyGuestCount, types.String("abc")))
	assert.False(t, v.IsValid(types.KeyGuestCount, types.String("50")))
	assert.False(t, v.IsValid(types.KeyGuestCount, types.Value{}))
}

func TestEnumMembership(t *testing.T) {
	v := New(catalog.MustDefault())
	assert.True(t, v.IsValid(types.KeyEventType, types.String("birthday-child")))
	assert.True(t, v.IsValid(types.KeyBudgetRange, types.String("5k-15k")))
	assert.False(t, v.IsValid(types.KeyEventType, types.String("Birthday Party")))
	assert.False(t, v.IsValid(types.KeyEventType, types.String("Wedding")))
	assert.False(t, v.IsValid(types.KeyEventType, types.String("")))
	assert.False(t, v.IsValid(types.KeyEventType, types.Int(3)))
	assert.False(t, v.IsValid(types.KeyEventType, types.Value{}))
	assert.False(t, v.IsValid(types.KeyEventType, types.Set("wedding")))
}

func TestMultiValued(t *testing.T) {
	v := New(catalog.MustDefault())
	assert.True(t, v.IsValid(types.KeyStylePreferences, types.Set()))
	assert.True(t, v.IsValid(types.KeyStylePreferences, types.Set("modern", "rustic")))
	assert.False(t, v.IsValid(types.KeyStylePreferences, types.Set("modern", "Rustic")))
	assert.False(t, v.IsValid(types.KeyStylePreferences, types.String("modern")))
}

func TestUnknownKey(t *testing.T) {
	v := New(catalog.MustDefault())
	assert.False(t, v.IsValid("favourite_colour", types.String("blue")))
}

func TestCheck(t *testing.T) {
	v := New(catalog.MustDefault())
	set := types.ParameterSet{
		types.KeyEventType:  types.String("wedding"),
		types.KeyGuestCount: types.Int(0),
		types.KeyCulture:    types.String("martian"),
	}
	assert.Equal(t, []types.Key{types.KeyCulture, types.KeyGuestCount}, v.Check(set))
}
