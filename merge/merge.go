package merge

import (
	"fmt"
	"slices"

	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/internal/metrics"
	"github.com/tbxark/eventagent/normalize"
	"github.com/tbxark/eventagent/patch"
	"github.com/tbxark/eventagent/types"
	"github.com/tbxark/eventagent/validate"
	"go.uber.org/zap"
)

type Reason string

const (
	ReasonUnknownKey       Reason = "unknown_key"
	ReasonNotNormalizable  Reason = "not_normalizable"
	ReasonInvalid          Reason = "invalid"
	ReasonConflictingAlias Reason = "conflicting_alias"
)

// Rejection records a proposed value that was not stored. It is data, not an
// error: the key simply stays as it was.
type Rejection struct {
	Key    string `json:"key"`
	Raw    any    `json:"raw"`
	Reason Reason `json:"reason"`
}

type Result struct {
	Set types.ParameterSet
	// Applied lists every key whose proposed value validated, including values
	// equal to what was already stored. Ops holds only actual changes.
	Applied  []types.Key
	Rejected []Rejection
	Ops      []patch.Operation
}

type Merger struct {
	cat       *catalog.Registry
	normalize *normalize.Normalizer
	validate  *validate.Validator
	logger    *zap.Logger
}

type Option func(*Merger)

func WithLogger(logger *zap.Logger) Option {
	return func(m *Merger) {
		m.logger = logger
	}
}

func New(norm *normalize.Normalizer, val *validate.Validator, opts ...Option) *Merger {
	m := &Merger{
		cat:       norm.Catalog(),
		normalize: norm,
		validate:  val,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge folds a raw extraction into existing. Every proposed key is resolved,
// normalized and validated; only values that pass are written, overwriting any
// earlier value. Nothing is ever removed, and merging the same extraction
// twice yields the same set. existing is not modified.
func (m *Merger) Merge(existing types.ParameterSet, raw types.RawExtraction, ctx normalize.Context) (*Result, error) {
	res := &Result{
		Applied:  []types.Key{},
		Rejected: []Rejection{},
	}
	proposed := make(types.ParameterSet, len(raw))
	source := make(map[types.Key]string, len(raw))

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		value := raw[name]
		k, ok := m.cat.ResolveKey(name)
		if !ok {
			m.reject(res, name, value, ReasonUnknownKey)
			continue
		}
		canonical, ok := m.normalize.Normalize(k, value, ctx)
		if !ok {
			m.reject(res, name, value, ReasonNotNormalizable)
			continue
		}
		if !m.validate.IsValid(k, canonical) {
			m.reject(res, name, value, ReasonInvalid)
			continue
		}
		if prev, dup := proposed[k]; dup && !prev.Equal(canonical) {
			// Two spellings of one key disagree. The canonical spelling wins,
			// otherwise the first name in sorted order.
			if source[k] == string(k) || name != string(k) {
				m.reject(res, name, value, ReasonConflictingAlias)
				continue
			}
			m.reject(res, source[k], raw[source[k]], ReasonConflictingAlias)
		}
		proposed[k] = canonical
		source[k] = name
	}

	// The patch is the only writer: ops carry the proposed values that differ
	// from existing and Apply produces the new set.
	res.Ops = patch.Diff(existing, proposed)
	if err := patch.ValidatePatchOperations(res.Ops, m.allowedKeys()); err != nil {
		return nil, fmt.Errorf("merge produced an invalid patch: %w", err)
	}
	set, err := patch.Apply(existing, res.Ops)
	if err != nil {
		return nil, fmt.Errorf("failed to apply merge patch: %w", err)
	}
	res.Set = set
	res.Applied = append(res.Applied, proposed.Keys()...)
	return res, nil
}

func (m *Merger) allowedKeys() map[types.Key]bool {
	keys := m.cat.Keys()
	allowed := make(map[types.Key]bool, len(keys))
	for _, k := range keys {
		allowed[k] = true
	}
	return allowed
}

func (m *Merger) reject(res *Result, name string, raw any, reason Reason) {
	res.Rejected = append(res.Rejected, Rejection{Key: name, Raw: raw, Reason: reason})
	metrics.ExtractionRejected.WithLabelValues(string(reason)).Inc()
	m.logger.Debug("extraction rejected",
		zap.String("key", name),
		zap.Any("raw", raw),
		zap.String("reason", string(reason)),
	)
}
