package dialogue

import (
	"fmt"
	"strings"

	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/types"
)

// describe renders a stored value with its display label where one exists.
func describe(cat *catalog.Registry, k types.Key, v types.Value) string {
	switch v.Kind() {
	case types.KindString:
		s, _ := v.Str()
		if label, ok := cat.LabelFor(k, s); ok {
			return label
		}
		return s
	case types.KindSet:
		items := v.Items()
		labels := make([]string, len(items))
		for i, item := range items {
			labels[i] = item
			if label, ok := cat.LabelFor(k, item); ok {
				labels[i] = label
			}
		}
		return strings.Join(labels, ", ")
	default:
		return v.String()
	}
}

func displayName(cat *catalog.Registry, k types.Key) string {
	if spec, ok := cat.Spec(k); ok {
		return spec.DisplayName
	}
	return string(k)
}

func formatFacts(cat *catalog.Registry, params types.ParameterSet, keys []types.Key) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, ok := params[k]
		if !ok || v.IsZero() {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", displayName(cat, k), describe(cat, k, v)))
	}
	return strings.Join(parts, "; ")
}

func formatDialogueRequest(cat *catalog.Registry, req *Request) string {
	sections := []string{
		fmt.Sprintf("# Phase:\n%s", req.Phase),
	}
	if facts := formatFacts(cat, req.Params, req.Params.Keys()); facts != "" {
		sections = append(sections, fmt.Sprintf("# Known details:\n%s", facts))
	}
	if len(req.Applied) > 0 {
		sections = append(sections, fmt.Sprintf("# Understood this turn:\n%s", formatFacts(cat, req.Params, req.Applied)))
	}
	if req.OracleFailed {
		sections = append(sections, "# Note:\nThe last message could not be processed. Apologize briefly and ask again.")
	}
	if q := req.Question; q != nil {
		sections = append(sections, fmt.Sprintf("# Question to ask:\n%s\nOptions: %s", q.Prompt, strings.Join(q.Labels(), ", ")))
	}
	if req.LastUserInput != "" {
		sections = append(sections, fmt.Sprintf("# User input:\n%s", req.LastUserInput))
	}
	return strings.Join(sections, "\n\n")
}
