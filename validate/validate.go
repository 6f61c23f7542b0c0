package validate

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/types"
)

// Validator checks canonical values against the capability catalog. It is a
// pure predicate and safe for concurrent use.
type Validator struct {
	cat *catalog.Registry
	v   *validator.Validate
}

func New(cat *catalog.Registry) *Validator {
	return &Validator{
		cat: cat,
		v:   validator.New(),
	}
}

// IsValid reports whether value may be stored under k. Numeric keys must hold
// an integer inside the catalog range, enumerated keys a canonical member, and
// multi-valued keys a set whose members all validate. Keys outside the catalog
// are never valid.
func (val *Validator) IsValid(k types.Key, value types.Value) bool {
	spec, ok := val.cat.Spec(k)
	if !ok {
		return false
	}
	if spec.Range != nil {
		n, ok := value.Int()
		if !ok {
			return false
		}
		return val.v.Var(n, fmt.Sprintf("gte=%d,lte=%d", spec.Range.Min, spec.Range.Max)) == nil
	}
	options := val.cat.ValidOptions(k)
	if spec.Multi {
		if value.Kind() != types.KindSet {
			return false
		}
		for _, item := range value.Items() {
			if !slices.Contains(options, item) {
				return false
			}
		}
		return true
	}
	s, ok := value.Str()
	if !ok || s == "" {
		return false
	}
	return slices.Contains(options, s)
}

// Check validates every entry of a parameter set and returns the offending
// keys in sorted order.
func (val *Validator) Check(set types.ParameterSet) []types.Key {
	var bad []types.Key
	for _, k := range set.Keys() {
		if !val.IsValid(k, set[k]) {
			bad = append(bad, k)
		}
	}
	return bad
}
