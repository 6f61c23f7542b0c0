package types

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

func formatParametersSection(params ParameterSet) string {
	if len(params) == 0 {
		return "# Known parameters:\n none"
	}
	var buf strings.Builder
	buf.WriteString("# Known parameters:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Key", "Value")
	for _, key := range params.Keys() {
		_ = table.Append(string(key), params[key].String())
	}
	_ = table.Render()
	return buf.String()
}

func formatMissingFieldsSection(fields []FieldInfo) string {
	if len(fields) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Missing required parameters:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Key", "Name", "Description")
	for _, field := range fields {
		_ = table.Append(string(field.Key), field.DisplayName, field.Description)
	}
	_ = table.Render()
	return buf.String()
}

func formatAllowedSection(allowed map[Key][]string) string {
	if len(allowed) == 0 {
		return ""
	}
	keys := make([]Key, 0, len(allowed))
	for k := range allowed {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var sb strings.Builder
	sb.WriteString("# Allowed values:\n")
	for _, k := range keys {
		fmt.Fprintf(&sb, "- %s: %s\n", k, strings.Join(allowed[k], ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatQuestionSection(q *ClarificationQuestion) string {
	if q == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Pending question (%s):\n%s\n", q.Key, q.Prompt)
	for _, opt := range q.Options {
		fmt.Fprintf(&sb, "- %s => %s\n", opt.Label, opt.Value)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatHistorySection(history []Turn) string {
	if len(history) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("# Conversation so far:\n")
	for _, turn := range history {
		fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatExtractionRequest renders the request as the user message of an
// extraction prompt.
func FormatExtractionRequest(req *ExtractionRequest) string {
	sections := []string{
		fmt.Sprintf("# Current Date:\n%s", time.Now().Format(time.DateOnly)),
		formatParametersSection(req.Existing),
	}
	if s := formatMissingFieldsSection(req.Missing); s != "" {
		sections = append(sections, s)
	}
	if s := formatAllowedSection(req.Allowed); s != "" {
		sections = append(sections, s)
	}
	if s := formatQuestionSection(req.Question); s != "" {
		sections = append(sections, s)
	}
	if s := formatHistorySection(req.History); s != "" {
		sections = append(sections, s)
	}
	sections = append(sections, fmt.Sprintf("# Latest user message:\n%s", req.Message))
	return strings.Join(sections, "\n\n")
}
