package patch

import (
	"strings"

	"github.com/tbxark/eventagent/types"
)

const (
	OperationAdd     = "add"
	OperationReplace = "replace"
	OperationRemove  = "remove"
)

// Operation is one RFC6902 operation over a parameter set document.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// Pointer returns the JSON pointer addressing k in a parameter set document.
func Pointer(k types.Key) string {
	return "/" + escapeJSONPointer(string(k))
}

// KeyOf is the inverse of Pointer for top-level paths.
func KeyOf(path string) (types.Key, bool) {
	if !strings.HasPrefix(path, "/") || strings.Count(path, "/") != 1 {
		return "", false
	}
	token := strings.ReplaceAll(path[1:], "~1", "/")
	token = strings.ReplaceAll(token, "~0", "~")
	return types.Key(token), token != ""
}

func escapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}
