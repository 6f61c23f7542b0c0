package patch

import (
	"fmt"

	"github.com/tbxark/eventagent/types"
)

// ValidatePatchOperations rejects operations that remove values or address
// anything other than an allowed top-level key. An empty allow list permits
// every key.
func ValidatePatchOperations(ops []Operation, allowed map[types.Key]bool) error {
	for i, op := range ops {
		if err := validateOperation(op, allowed); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

func validateOperation(op Operation, allowed map[types.Key]bool) error {
	switch op.Op {
	case OperationAdd, OperationReplace:
	default:
		return fmt.Errorf("operation %q is not permitted on parameters", op.Op)
	}
	k, ok := KeyOf(op.Path)
	if !ok {
		return fmt.Errorf("path %q does not address a parameter", op.Path)
	}
	if len(allowed) > 0 && !allowed[k] {
		return fmt.Errorf("path %q is not in the allowed paths set", op.Path)
	}
	return nil
}
