package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindString
	KindInt
	KindSet
)

// Value is a canonical parameter value: an enum string, an integer, or a set
// of enum strings. Sets are kept sorted and de-duplicated so that equal sets
// compare and serialize identically.
type Value struct {
	kind ValueKind
	str  string
	num  int
	set  []string
}

func String(s string) Value {
	return Value{kind: KindString, str: s}
}

func Int(n int) Value {
	return Value{kind: KindInt, num: n}
}

func Set(items ...string) Value {
	set := slices.Clone(items)
	slices.Sort(set)
	set = slices.Compact(set)
	if set == nil {
		set = []string{}
	}
	return Value{kind: KindSet, set: set}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsZero() bool { return v.kind == KindNone }

func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) Int() (int, bool) {
	return v.num, v.kind == KindInt
}

func (v Value) Items() []string {
	if v.kind != KindSet {
		return nil
	}
	return slices.Clone(v.set)
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.num == o.num
	case KindSet:
		return slices.Equal(v.set, o.set)
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.Itoa(v.num)
	case KindSet:
		return strings.Join(v.set, ", ")
	default:
		return ""
	}
}

// Any returns the plain Go representation used at serialization boundaries.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindSet:
		return slices.Clone(v.set)
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("set value must be a list of strings: %w", err)
		}
		*v = Set(items...)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("unsupported parameter value %s", string(data))
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("numeric parameter value %v is not an integer", f)
		}
		*v = Int(int(f))
	}
	return nil
}

// ParameterSet accumulates canonical values across a conversation.
type ParameterSet map[Key]Value

func (s ParameterSet) Clone() ParameterSet {
	out := make(ParameterSet, len(s))
	for k, v := range s {
		if v.kind == KindSet {
			v.set = slices.Clone(v.set)
		}
		out[k] = v
	}
	return out
}

func (s ParameterSet) Has(k Key) bool {
	v, ok := s[k]
	return ok && !v.IsZero()
}

func (s ParameterSet) Keys() []Key {
	return slices.Sorted(maps.Keys(s))
}

func (s ParameterSet) Equal(o ParameterSet) bool {
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
