package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/tbxark/eventagent/types"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// ErrInvalidCatalog is returned when a catalog document is structurally
// invalid or internally inconsistent.
var ErrInvalidCatalog = errors.New("invalid capability catalog")

type ValueSpec struct {
	Value    string   `yaml:"value" validate:"required"`
	Label    string   `yaml:"label" validate:"required"`
	Keywords []string `yaml:"keywords"`
	// Min and Max bound a numeric bucket as [Min, Max). A nil bound is open.
	Min *int `yaml:"min"`
	Max *int `yaml:"max"`
}

// Contains reports whether amount falls inside the bucket.
func (v ValueSpec) Contains(amount int) bool {
	if v.Min != nil && amount < *v.Min {
		return false
	}
	if v.Max != nil && amount >= *v.Max {
		return false
	}
	return v.Min != nil || v.Max != nil
}

type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max" validate:"gtefield=Min"`
}

type KeySpec struct {
	Key         types.Key   `yaml:"key" validate:"required"`
	DisplayName string      `yaml:"display_name" validate:"required"`
	Description string      `yaml:"description"`
	Aliases     []string    `yaml:"aliases"`
	Multi       bool        `yaml:"multi"`
	Range       *Range      `yaml:"range"`
	Values      []ValueSpec `yaml:"values" validate:"dive"`
}

type QuestionSpec struct {
	Key    types.Key `yaml:"key" validate:"required"`
	Prompt string    `yaml:"prompt" validate:"required"`
	// Options are canonical values; their labels come from the key's values.
	Options []string `yaml:"options"`
	// Labels are display labels for keys without enumerated values.
	Labels []string `yaml:"labels"`
}

type Document struct {
	Required  []types.Key    `yaml:"required"`
	Keys      []KeySpec      `yaml:"keys" validate:"required,dive"`
	Questions []QuestionSpec `yaml:"questions" validate:"dive"`
}

// Registry is the read-only capability catalog. It is safe for concurrent use.
type Registry struct {
	order     []types.Key
	keys      map[types.Key]*KeySpec
	aliases   map[string]types.Key
	values    map[types.Key]map[string]string
	labels    map[types.Key]map[string]string
	questions map[types.Key]QuestionSpec
	required  []types.Key
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the registry built from the embedded catalog. It is parsed
// once per process.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Load(defaultCatalogYAML)
	})
	return defaultRegistry, defaultErr
}

// MustDefault is Default for callers that treat a broken embedded catalog as
// a programming error.
func MustDefault() *Registry {
	reg, err := Default()
	if err != nil {
		panic(err)
	}
	return reg
}

func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Load(data)
}

func Load(data []byte) (*Registry, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return New(doc)
}

// New builds a registry from an in-memory document.
func New(doc Document) (*Registry, error) {
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	r := &Registry{
		keys:      make(map[types.Key]*KeySpec, len(doc.Keys)),
		aliases:   make(map[string]types.Key),
		values:    make(map[types.Key]map[string]string, len(doc.Keys)),
		labels:    make(map[types.Key]map[string]string, len(doc.Keys)),
		questions: make(map[types.Key]QuestionSpec, len(doc.Questions)),
	}
	for i := range doc.Keys {
		if err := r.addKey(&doc.Keys[i]); err != nil {
			return nil, err
		}
	}
	for _, q := range doc.Questions {
		if err := r.addQuestion(q); err != nil {
			return nil, err
		}
	}
	for _, k := range doc.Required {
		if _, ok := r.keys[k]; !ok {
			return nil, fmt.Errorf("%w: required key %q is not in the catalog", ErrInvalidCatalog, k)
		}
		if slices.Contains(r.required, k) {
			return nil, fmt.Errorf("%w: required key %q listed twice", ErrInvalidCatalog, k)
		}
		r.required = append(r.required, k)
	}
	return r, nil
}

func (r *Registry) addKey(spec *KeySpec) error {
	if _, dup := r.keys[spec.Key]; dup {
		return fmt.Errorf("%w: duplicate key %q", ErrInvalidCatalog, spec.Key)
	}
	if spec.Range != nil && len(spec.Values) > 0 {
		return fmt.Errorf("%w: key %q declares both a range and values", ErrInvalidCatalog, spec.Key)
	}
	if spec.Range == nil && len(spec.Values) == 0 {
		return fmt.Errorf("%w: key %q declares neither a range nor values", ErrInvalidCatalog, spec.Key)
	}
	r.keys[spec.Key] = spec
	r.order = append(r.order, spec.Key)

	for _, name := range append([]string{string(spec.Key)}, spec.Aliases...) {
		folded := foldKey(name)
		if owner, ok := r.aliases[folded]; ok && owner != spec.Key {
			return fmt.Errorf("%w: alias %q is claimed by %q and %q", ErrInvalidCatalog, name, owner, spec.Key)
		}
		r.aliases[folded] = spec.Key
	}

	values := make(map[string]string, len(spec.Values))
	labels := make(map[string]string, len(spec.Values))
	for _, v := range spec.Values {
		if v.Value != strings.ToLower(v.Value) {
			return fmt.Errorf("%w: value %q of %q is not lower case", ErrInvalidCatalog, v.Value, spec.Key)
		}
		fv := Fold(v.Value)
		if _, dup := values[fv]; dup {
			return fmt.Errorf("%w: value %q of %q is not unique", ErrInvalidCatalog, v.Value, spec.Key)
		}
		values[fv] = v.Value
		fl := Fold(v.Label)
		if _, dup := labels[fl]; dup {
			return fmt.Errorf("%w: label %q of %q is not unique", ErrInvalidCatalog, v.Label, spec.Key)
		}
		labels[fl] = v.Value
	}
	// A label must never fold onto a different value's canonical spelling.
	for fl, target := range labels {
		if other, ok := values[fl]; ok && other != target {
			return fmt.Errorf("%w: label for %q collides with value %q of %q", ErrInvalidCatalog, target, other, spec.Key)
		}
	}
	r.values[spec.Key] = values
	r.labels[spec.Key] = labels
	return nil
}

func (r *Registry) addQuestion(q QuestionSpec) error {
	spec, ok := r.keys[q.Key]
	if !ok {
		return fmt.Errorf("%w: question for unknown key %q", ErrInvalidCatalog, q.Key)
	}
	if _, dup := r.questions[q.Key]; dup {
		return fmt.Errorf("%w: duplicate question for %q", ErrInvalidCatalog, q.Key)
	}
	if len(q.Options) == 0 && len(q.Labels) == 0 {
		return fmt.Errorf("%w: question for %q has no options", ErrInvalidCatalog, q.Key)
	}
	if spec.Range != nil && len(q.Options) > 0 {
		return fmt.Errorf("%w: question for range key %q must use labels", ErrInvalidCatalog, q.Key)
	}
	r.questions[q.Key] = q
	return nil
}

// Keys returns every catalog key in declaration order.
func (r *Registry) Keys() []types.Key {
	return slices.Clone(r.order)
}

// Required returns the default required parameter list in precedence order.
func (r *Registry) Required() []types.Key {
	return slices.Clone(r.required)
}

func (r *Registry) Known(k types.Key) bool {
	_, ok := r.keys[k]
	return ok
}

func (r *Registry) Spec(k types.Key) (KeySpec, bool) {
	spec, ok := r.keys[k]
	if !ok {
		return KeySpec{}, false
	}
	return *spec, true
}

func (r *Registry) IsMulti(k types.Key) bool {
	spec, ok := r.keys[k]
	return ok && spec.Multi
}

// ValidOptions returns the ordered canonical values of k. Unknown keys and
// numeric keys yield an empty set, meaning no enumerated constraint.
func (r *Registry) ValidOptions(k types.Key) []string {
	spec, ok := r.keys[k]
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(spec.Values))
	for _, v := range spec.Values {
		out = append(out, v.Value)
	}
	return out
}

// Range returns the inclusive numeric range of k, if it has one.
func (r *Registry) Range(k types.Key) (Range, bool) {
	spec, ok := r.keys[k]
	if !ok || spec.Range == nil {
		return Range{}, false
	}
	return *spec.Range, true
}

// Values returns the value specs of k in declaration order.
func (r *Registry) Values(k types.Key) []ValueSpec {
	spec, ok := r.keys[k]
	if !ok {
		return nil
	}
	return slices.Clone(spec.Values)
}

// Lookup matches s against the canonical values of k, ignoring case and
// punctuation, and returns the canonical spelling.
func (r *Registry) Lookup(k types.Key, s string) (string, bool) {
	v, ok := r.values[k][Fold(s)]
	return v, ok
}

// ValueForLabel resolves a display label to its canonical value.
func (r *Registry) ValueForLabel(k types.Key, label string) (string, bool) {
	v, ok := r.labels[k][Fold(label)]
	return v, ok
}

func (r *Registry) LabelFor(k types.Key, value string) (string, bool) {
	spec, ok := r.keys[k]
	if !ok {
		return "", false
	}
	for _, v := range spec.Values {
		if v.Value == value {
			return v.Label, true
		}
	}
	return "", false
}

// Bucket returns the value of k whose numeric bounds contain amount.
func (r *Registry) Bucket(k types.Key, amount int) (string, bool) {
	spec, ok := r.keys[k]
	if !ok {
		return "", false
	}
	for _, v := range spec.Values {
		if v.Contains(amount) {
			return v.Value, true
		}
	}
	return "", false
}

// ResolveKey maps a key name as written by an oracle or a client ("eventType",
// "Event Type", "budget") to its canonical key.
func (r *Registry) ResolveKey(name string) (types.Key, bool) {
	k, ok := r.aliases[foldKey(name)]
	return k, ok
}

func (r *Registry) Question(k types.Key) (QuestionSpec, bool) {
	q, ok := r.questions[k]
	if !ok {
		return QuestionSpec{}, false
	}
	q.Options = slices.Clone(q.Options)
	q.Labels = slices.Clone(q.Labels)
	return q, true
}

// Fields describes the given keys for prompts.
func (r *Registry) Fields(keys []types.Key) []types.FieldInfo {
	out := make([]types.FieldInfo, 0, len(keys))
	for _, k := range keys {
		spec, ok := r.keys[k]
		if !ok {
			continue
		}
		out = append(out, types.FieldInfo{
			Key:         k,
			DisplayName: spec.DisplayName,
			Description: spec.Description,
			Required:    slices.Contains(r.required, k),
		})
	}
	return out
}

// Allowed returns the enumerated values of every key that has them.
func (r *Registry) Allowed() map[types.Key][]string {
	out := make(map[types.Key][]string, len(r.order))
	for _, k := range r.order {
		if opts := r.ValidOptions(k); len(opts) > 0 {
			out[k] = opts
		}
	}
	return out
}

// Fold lowercases s and collapses every run of non-alphanumeric characters
// into a single hyphen, so "Birthday (Child)" and "birthday-child" compare
// equal.
func Fold(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	pending := false
	for _, c := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			if pending && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pending = false
			sb.WriteRune(c)
			continue
		}
		pending = true
	}
	return sb.String()
}

func foldKey(s string) string {
	return strings.ReplaceAll(Fold(s), "-", "")
}
