package patch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tbxark/eventagent/types"
)

// Apply runs ops against a copy of current and returns the patched set. The
// input set is never modified.
func Apply(current types.ParameterSet, ops []Operation) (types.ParameterSet, error) {
	if len(ops) == 0 {
		return current.Clone(), nil
	}
	if current == nil {
		current = types.ParameterSet{}
	}

	currentJSON, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal current parameters: %w", err)
	}

	ops = FixOperation(currentJSON, ops)

	patchJSON, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch operations: %w", err)
	}

	p, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}

	modifiedJSON, err := p.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}

	result := types.ParameterSet{}
	if err := json.Unmarshal(modifiedJSON, &result); err != nil {
		return nil, fmt.Errorf("patch produced an invalid parameter set: %w", err)
	}
	for k, v := range result {
		if v.IsZero() {
			delete(result, k)
		}
	}
	return result, nil
}

// FixOperation downgrades replace to add for absent paths and drops removals
// of paths that do not exist, so a patch computed against a stale view still
// applies.
func FixOperation(currentJSON []byte, ops []Operation) []Operation {
	var doc any
	if err := json.Unmarshal(currentJSON, &doc); err != nil {
		return ops
	}

	fixed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		switch op.Op {
		case OperationReplace:
			if !pathExists(doc, op.Path) {
				op.Op = OperationAdd
			}
			fixed = append(fixed, op)
		case OperationRemove:
			if pathExists(doc, op.Path) {
				fixed = append(fixed, op)
			}
		default:
			fixed = append(fixed, op)
		}
	}

	return fixed
}

func pathExists(doc any, path string) bool {
	if path == "" {
		return true
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}

	tokens := strings.Split(path[1:], "/")
	cur := doc
	for _, token := range tokens {
		token = strings.ReplaceAll(token, "~1", "/")
		token = strings.ReplaceAll(token, "~0", "~")
		switch node := cur.(type) {
		case map[string]any:
			value, ok := node[token]
			if !ok {
				return false
			}
			cur = value
		case []any:
			index, err := strconv.Atoi(token)
			if err != nil || index < 0 || index >= len(node) {
				return false
			}
			cur = node[index]
		default:
			return false
		}
	}

	return true
}
