package codeact

import "strings"

// ToolFunc is the invocation capability of a host tool. Positional,
// keyword, and variadic arguments from the script are forwarded
// transparently.
type ToolFunc func(args []any, kwargs map[string]any) (any, error)

// ParamKind classifies one declared parameter of a tool. Tools declare
// their parameter shape explicitly instead of relying on runtime
// reflection over the callable.
type ParamKind string

const (
	ParamPositional         ParamKind = "positional"
	ParamOptionalPositional ParamKind = "optional_positional"
	ParamKeyword            ParamKind = "keyword"
	ParamOptionalKeyword    ParamKind = "optional_keyword"
	ParamVarArgs            ParamKind = "varargs"
	ParamVarKwargs          ParamKind = "varkwargs"
	ParamContinuation       ParamKind = "continuation"
)

// Param is one declared parameter in a tool's shape descriptor.
type Param struct {
	Name string
	Kind ParamKind
}

// Tool is a host-supplied callable reachable by name from sandboxed code.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Fn          ToolFunc
}

// Synopsis returns the tool's documentation, deriving a single-line
// signature from the declared parameter shape when no description is set.
func (t Tool) Synopsis() string {
	if t.Description != "" {
		return t.Description
	}
	var parts []string
	var continuation string
	for _, p := range t.Params {
		switch p.Kind {
		case ParamPositional:
			parts = append(parts, p.Name)
		case ParamOptionalPositional:
			parts = append(parts, "["+p.Name+"]")
		case ParamKeyword:
			parts = append(parts, p.Name+"=")
		case ParamOptionalKeyword:
			parts = append(parts, "["+p.Name+"=]")
		case ParamVarArgs:
			parts = append(parts, "*"+p.Name)
		case ParamVarKwargs:
			parts = append(parts, "**"+p.Name)
		case ParamContinuation:
			continuation = p.Name
		}
	}
	sig := t.Name + "(" + strings.Join(parts, ", ") + ")"
	if continuation != "" {
		sig += " -> " + continuation
	}
	return sig
}

// NormalizeTools converts caller-supplied tools into a uniform name->Tool
// mapping. Accepted shapes: map[string]Tool, []Tool, and map[string]ToolFunc.
// Anything else normalizes to an empty mapping; this never fails.
func NormalizeTools(tools any) map[string]Tool {
	out := make(map[string]Tool)
	switch v := tools.(type) {
	case map[string]Tool:
		for name, t := range v {
			if t.Name == "" {
				t.Name = name
			}
			out[name] = t
		}
	case []Tool:
		for _, t := range v {
			if t.Name == "" {
				continue
			}
			out[t.Name] = t
		}
	case map[string]ToolFunc:
		for name, fn := range v {
			out[name] = Tool{Name: name, Fn: fn}
		}
	}
	return out
}
