package httpapi

import (
	"github.com/tbxark/eventagent/patch"
	"github.com/tbxark/eventagent/types"
)

// External key names used by web clients. Internal code only sees the
// canonical keys.
var externalNames = map[types.Key]string{
	types.KeyEventType:                 "eventType",
	types.KeyGuestCount:                "guestCount",
	types.KeyBudgetRange:               "budget",
	types.KeyCulture:                   "culture",
	types.KeyStylePreferences:          "stylePreferences",
	types.KeySpaceType:                 "spaceType",
	types.KeyTimeOfDay:                 "timeOfDay",
	types.KeyAccessibilityRequirements: "accessibilityRequirements",
}

var internalKeys = func() map[string]types.Key {
	m := make(map[string]types.Key, len(externalNames))
	for k, name := range externalNames {
		m[name] = k
	}
	return m
}()

func externalName(k types.Key) string {
	if name, ok := externalNames[k]; ok {
		return name
	}
	return string(k)
}

func toExternal(params types.ParameterSet) map[string]any {
	out := make(map[string]any, len(params))
	for _, k := range params.Keys() {
		if v := params[k]; !v.IsZero() {
			out[externalName(k)] = v.Any()
		}
	}
	return out
}

// fromExternal renames known external keys. Other names pass through and
// are resolved or rejected by the merger.
func fromExternal(params map[string]any) types.RawExtraction {
	out := make(types.RawExtraction, len(params))
	for name, v := range params {
		if k, ok := internalKeys[name]; ok {
			out[string(k)] = v
			continue
		}
		if _, exists := out[name]; !exists {
			out[name] = v
		}
	}
	return out
}

func externalKeys(keys []types.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = externalName(k)
	}
	return out
}

func externalChanges(ops []patch.Operation) []patch.Operation {
	out := make([]patch.Operation, 0, len(ops))
	for _, op := range ops {
		if k, ok := patch.KeyOf(op.Path); ok {
			op.Path = "/" + externalName(k)
		}
		out = append(out, op)
	}
	return out
}
