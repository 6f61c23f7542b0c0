package patch

import (
	"github.com/tbxark/eventagent/types"
)

// Diff returns the operations that turn from into to. Keys present in from
// but missing in to are left alone: parameter sets only grow or change.
func Diff(from, to types.ParameterSet) []Operation {
	ops := make([]Operation, 0)
	for _, k := range to.Keys() {
		next := to[k]
		if next.IsZero() {
			continue
		}
		prev, exists := from[k]
		switch {
		case !exists || prev.IsZero():
			ops = append(ops, Operation{Op: OperationAdd, Path: Pointer(k), Value: next.Any()})
		case !prev.Equal(next):
			ops = append(ops, Operation{Op: OperationReplace, Path: Pointer(k), Value: next.Any()})
		}
	}
	return ops
}
