package planner

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/internal/metrics"
	"github.com/tbxark/eventagent/normalize"
	"github.com/tbxark/eventagent/types"
	"github.com/tbxark/eventagent/validate"
	"go.uber.org/zap"
)

// ErrConfigurationFault marks catalog and question tables that are out of
// sync. It is meant for operators, never for end users.
var ErrConfigurationFault = errors.New("configuration fault")

// Decision is the planner state after a turn.
type Decision struct {
	Phase    types.Phase
	Missing  []types.Key
	Question *types.ClarificationQuestion
}

func (d Decision) Ready() bool {
	return d.Phase == types.PhaseReady
}

type Planner struct {
	cat       *catalog.Registry
	validate  *validate.Validator
	required  []types.Key
	questions map[types.Key]types.ClarificationQuestion
	logger    *zap.Logger
}

type Option func(*Planner)

// WithRequired overrides the catalog's required parameter list. Order is
// clarification precedence.
func WithRequired(keys ...types.Key) Option {
	return func(p *Planner) {
		p.required = slices.Clone(keys)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// WithoutQuestion drops the registered question for k. It exists to exercise
// the configuration fault path.
func WithoutQuestion(k types.Key) Option {
	return func(p *Planner) {
		delete(p.questions, k)
	}
}

// New builds the question registry from the catalog and checks it. Every
// option must round-trip through the normalizer to a valid value, and every
// required key must be known. A required key without a question is logged and
// reported by Next rather than failing construction, so a running service
// keeps answering for the keys it can ask about; use Check to fail fast.
func New(norm *normalize.Normalizer, val *validate.Validator, opts ...Option) (*Planner, error) {
	cat := norm.Catalog()
	p := &Planner{
		cat:       cat,
		validate:  val,
		required:  cat.Required(),
		questions: make(map[types.Key]types.ClarificationQuestion),
		logger:    zap.NewNop(),
	}
	for _, k := range cat.Keys() {
		q, ok, err := buildQuestion(cat, norm, val, k)
		if err != nil {
			return nil, err
		}
		if ok {
			p.questions[k] = q
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	seen := make(map[types.Key]bool, len(p.required))
	for _, k := range p.required {
		if !cat.Known(k) {
			return nil, fmt.Errorf("%w: required key %q is not in the catalog", ErrConfigurationFault, k)
		}
		if seen[k] {
			return nil, fmt.Errorf("%w: required key %q listed twice", ErrConfigurationFault, k)
		}
		seen[k] = true
	}
	return p, nil
}

func buildQuestion(cat *catalog.Registry, norm *normalize.Normalizer, val *validate.Validator, k types.Key) (types.ClarificationQuestion, bool, error) {
	spec, ok := cat.Question(k)
	if !ok {
		return types.ClarificationQuestion{}, false, nil
	}
	q := types.ClarificationQuestion{Key: k, Prompt: spec.Prompt}
	for _, value := range spec.Options {
		label, ok := cat.LabelFor(k, value)
		if !ok {
			return q, false, fmt.Errorf("%w: question for %q offers %q which is not a catalog value", ErrConfigurationFault, k, value)
		}
		q.Options = append(q.Options, types.Option{Label: label, Value: value})
	}
	for _, label := range spec.Labels {
		v, ok := norm.Normalize(k, label, normalize.Context{})
		if !ok {
			return q, false, fmt.Errorf("%w: option %q for %q has no label mapping", ErrConfigurationFault, label, k)
		}
		q.Options = append(q.Options, types.Option{Label: label, Value: v.String()})
	}
	for _, opt := range q.Options {
		v, ok := norm.Normalize(k, opt.Label, normalize.Context{})
		if !ok || v.String() != opt.Value {
			return q, false, fmt.Errorf("%w: option %q for %q does not normalize to %q", ErrConfigurationFault, opt.Label, k, opt.Value)
		}
		if !val.IsValid(k, v) {
			return q, false, fmt.Errorf("%w: option %q for %q normalizes to invalid value %q", ErrConfigurationFault, opt.Label, k, opt.Value)
		}
	}
	return q, true, nil
}

// Check reports every required key that has no registered question.
func (p *Planner) Check() error {
	var errs []error
	for _, k := range p.required {
		if _, ok := p.questions[k]; !ok {
			errs = append(errs, fmt.Errorf("%w: required key %q has no clarification question", ErrConfigurationFault, k))
		}
	}
	return errors.Join(errs...)
}

func (p *Planner) Required() []types.Key {
	return slices.Clone(p.required)
}

// Missing lists required keys that hold no valid value, in precedence order.
func (p *Planner) Missing(set types.ParameterSet) []types.Key {
	missing := make([]types.Key, 0, len(p.required))
	for _, k := range p.required {
		v, ok := set[k]
		if !ok || v.IsZero() || !p.validate.IsValid(k, v) {
			missing = append(missing, k)
		}
	}
	return missing
}

// Question returns the registered question for k.
func (p *Planner) Question(k types.Key) (types.ClarificationQuestion, bool) {
	q, ok := p.questions[k]
	if !ok {
		return types.ClarificationQuestion{}, false
	}
	return q.Clone(), true
}

// Next computes the state after a merge. READY is sticky: once reached it is
// returned for any later set. Otherwise the first missing required key is
// asked about. A key holding a valid value is never asked about.
func (p *Planner) Next(set types.ParameterSet, prev types.Phase) (Decision, error) {
	if prev == types.PhaseReady {
		return Decision{Phase: types.PhaseReady, Missing: []types.Key{}}, nil
	}
	missing := p.Missing(set)
	if len(missing) == 0 {
		return Decision{Phase: types.PhaseReady, Missing: missing}, nil
	}
	k := missing[0]
	q, ok := p.Question(k)
	if !ok {
		metrics.ConfigurationFaults.Inc()
		p.logger.Error("required parameter has no clarification question",
			zap.String("key", string(k)),
			zap.Strings("missing", keyStrings(missing)),
		)
		return Decision{Phase: types.PhaseCollecting, Missing: missing},
			fmt.Errorf("%w: required key %q has no clarification question", ErrConfigurationFault, k)
	}
	return Decision{Phase: types.PhaseCollecting, Missing: missing, Question: &q}, nil
}

func keyStrings(keys []types.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
