package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/types"
)

// Context carries the conversational signals available when resolving an
// ambiguous value.
type Context struct {
	Message string
	History []types.Turn
}

type Normalizer struct {
	cat             *catalog.Registry
	birthdayDefault string
}

type Option func(*Normalizer)

// WithBirthdayDefault sets the variant used for a birthday mention that has
// no age or qualifier cue anywhere in the conversation.
func WithBirthdayDefault(value string) Option {
	return func(n *Normalizer) {
		n.birthdayDefault = value
	}
}

func New(cat *catalog.Registry, opts ...Option) (*Normalizer, error) {
	n := &Normalizer{
		cat:             cat,
		birthdayDefault: BirthdayAdult,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.birthdayDefault != BirthdayChild && n.birthdayDefault != BirthdayAdult {
		return nil, fmt.Errorf("birthday default must be %s or %s, got %q", BirthdayChild, BirthdayAdult, n.birthdayDefault)
	}
	if _, ok := cat.Lookup(types.KeyEventType, n.birthdayDefault); !ok {
		return nil, fmt.Errorf("birthday default %q is not an event type in the catalog", n.birthdayDefault)
	}
	return n, nil
}

func (n *Normalizer) Catalog() *catalog.Registry {
	return n.cat
}

var absenceMarkers = map[string]struct{}{
	"":              {},
	"none":          {},
	"null":          {},
	"nil":           {},
	"na":            {},
	"n-a":           {},
	"unknown":       {},
	"unspecified":   {},
	"not-specified": {},
	"not-provided":  {},
	"not-sure":      {},
	"undefined":     {},
	"tbd":           {},
}

func isAbsent(s string) bool {
	_, ok := absenceMarkers[catalog.Fold(s)]
	return ok
}

// Normalize maps a raw oracle or UI value for key k onto its canonical form.
// The second result is false when no rule applies; the caller must treat that
// as a rejected value. The result is not range checked.
func (n *Normalizer) Normalize(k types.Key, raw any, ctx Context) (types.Value, bool) {
	if !n.cat.Known(k) {
		return types.Value{}, false
	}
	raw = unwrap(raw)
	if raw == nil {
		return types.Value{}, false
	}
	if _, ok := n.cat.Range(k); ok {
		return n.normalizeCount(raw)
	}
	if n.cat.IsMulti(k) {
		return n.normalizeSet(k, raw, ctx)
	}
	s, ok := n.enum(k, raw, ctx)
	if !ok {
		return types.Value{}, false
	}
	return types.String(s), true
}

// unwrap flattens the encodings a raw value may arrive in.
func unwrap(raw any) any {
	switch v := raw.(type) {
	case types.Value:
		return v.Any()
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case *string:
		if v == nil {
			return nil
		}
		return *v
	}
	return raw
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func (n *Normalizer) normalizeCount(raw any) (types.Value, bool) {
	if f, ok := toFloat(raw); ok {
		// Counts are whole people; 49.6 is rejected, not rounded.
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return types.Value{}, false
		}
		return types.Int(int(f)), true
	}
	s, ok := raw.(string)
	if !ok || isAbsent(s) {
		return types.Value{}, false
	}
	count, ok := parseCount(s)
	if !ok {
		return types.Value{}, false
	}
	return types.Int(count), true
}

func (n *Normalizer) normalizeSet(k types.Key, raw any, ctx Context) (types.Value, bool) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case string:
		if isAbsent(v) {
			return types.Value{}, false
		}
		if s, ok := n.exact(k, v); ok {
			return types.Set(s), true
		}
		matches := n.keywordMatches(k, v)
		if len(matches) == 0 {
			return types.Value{}, false
		}
		return types.Set(matches...), true
	default:
		return types.Value{}, false
	}
	// An empty list carries no preference, the same as an omitted key.
	if len(items) == 0 {
		return types.Value{}, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := n.enum(k, unwrap(item), ctx)
		if !ok {
			return types.Value{}, false
		}
		out = append(out, s)
	}
	return types.Set(out...), true
}

// enum resolves a single enumerated value: exact match, then display label,
// then key specific rules.
func (n *Normalizer) enum(k types.Key, raw any, ctx Context) (string, bool) {
	if f, ok := toFloat(raw); ok {
		if k == types.KeyBudgetRange && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return n.cat.Bucket(k, int(math.Round(f)))
		}
		return "", false
	}
	s, ok := raw.(string)
	if !ok || isAbsent(s) {
		return "", false
	}
	if v, ok := n.exact(k, s); ok {
		return v, true
	}
	switch k {
	case types.KeyEventType:
		if mentionsBirthday(s) {
			return n.resolveBirthday(s, ctx), true
		}
	case types.KeyBudgetRange:
		if amount, ok := parseBudget(s); ok {
			return n.cat.Bucket(k, amount)
		}
		return "", false
	}
	return n.bestKeyword(k, s)
}

// exact matches s against canonical values first and display labels second.
func (n *Normalizer) exact(k types.Key, s string) (string, bool) {
	if v, ok := n.cat.Lookup(k, s); ok {
		return v, true
	}
	return n.cat.ValueForLabel(k, s)
}

// keywordMatches returns every value of k whose value, label or keywords occur
// as whole words in text, in catalog order.
func (n *Normalizer) keywordMatches(k types.Key, text string) []string {
	folded := "-" + catalog.Fold(text) + "-"
	var out []string
	for _, v := range n.cat.Values(k) {
		for _, phrase := range phrases(v) {
			if strings.Contains(folded, "-"+phrase+"-") {
				out = append(out, v.Value)
				break
			}
		}
	}
	return out
}

// bestKeyword picks the value with the longest matching phrase, so "wedding
// anniversary" reads as an anniversary. Equal-length matches for different
// values are ambiguous.
func (n *Normalizer) bestKeyword(k types.Key, text string) (string, bool) {
	folded := "-" + catalog.Fold(text) + "-"
	best, bestLen, tie := "", 0, false
	for _, v := range n.cat.Values(k) {
		for _, phrase := range phrases(v) {
			if !strings.Contains(folded, "-"+phrase+"-") {
				continue
			}
			switch {
			case len(phrase) > bestLen:
				best, bestLen, tie = v.Value, len(phrase), false
			case len(phrase) == bestLen && best != v.Value:
				tie = true
			}
		}
	}
	if best == "" || tie {
		return "", false
	}
	return best, true
}

func phrases(v catalog.ValueSpec) []string {
	out := make([]string, 0, len(v.Keywords)+2)
	out = append(out, catalog.Fold(v.Value), catalog.Fold(v.Label))
	for _, kw := range v.Keywords {
		out = append(out, catalog.Fold(kw))
	}
	return slices.DeleteFunc(slices.Compact(out), func(s string) bool { return s == "" })
}
