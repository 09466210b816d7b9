package codeact

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// DefaultPreviewChars is the default variable preview budget.
const DefaultPreviewChars = 1000

// VariableSummary is a bounded textual rendering of one host input value,
// built once at run start and immutable afterwards.
type VariableSummary struct {
	Name        string
	TypeTag     string
	Description string
	TotalLength int
	Preview     string
}

// SummarizeVariable builds the summary for one input value. previewChars <= 0
// uses DefaultPreviewChars.
func SummarizeVariable(name string, value any, description string, previewChars int) VariableSummary {
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}
	text := renderValue(value)
	return VariableSummary{
		Name:        name,
		TypeTag:     typeTag(value),
		Description: description,
		TotalLength: len(text),
		Preview:     TruncateHeadTail(text, previewChars),
	}
}

// renderValue serializes composite values as pretty JSON and scalars via
// direct textual rendering.
func renderValue(value any) string {
	if value == nil {
		return "None"
	}
	if s, ok := value.(string); ok {
		return s
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Ptr:
		if data, err := json.MarshalIndent(value, "", "  "); err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("%v", value)
}

func typeTag(value any) string {
	if value == nil {
		return "none"
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Slice, reflect.Array:
		return "list"
	default:
		return fmt.Sprintf("%T", value)
	}
}

// Format renders the summary: name, type tag, optional description, total
// length with thousands separators, and the preview in a fenced block.
func (v VariableSummary) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s (%s)\n", v.Name, v.TypeTag)
	if v.Description != "" {
		sb.WriteString(v.Description)
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "Length: %s characters\n", formatThousands(v.TotalLength))
	fmt.Fprintf(&sb, "```\n%s\n```", v.Preview)
	return sb.String()
}

// FormatVariables renders all summaries separated by blank lines.
func FormatVariables(summaries []VariableSummary) string {
	if len(summaries) == 0 {
		return "No input variables were provided."
	}
	parts := make([]string, len(summaries))
	for i, s := range summaries {
		parts[i] = s.Format()
	}
	return strings.Join(parts, "\n\n")
}
