package codeact

import "testing"

func TestToolSynopsisFromParams(t *testing.T) {
	tool := Tool{
		Name: "search",
		Params: []Param{
			{Name: "query", Kind: ParamPositional},
			{Name: "limit", Kind: ParamOptionalPositional},
			{Name: "lang", Kind: ParamKeyword},
			{Name: "safe", Kind: ParamOptionalKeyword},
			{Name: "extra", Kind: ParamVarArgs},
			{Name: "opts", Kind: ParamVarKwargs},
			{Name: "results", Kind: ParamContinuation},
		},
	}
	want := "search(query, [limit], lang=, [safe=], *extra, **opts) -> results"
	if got := tool.Synopsis(); got != want {
		t.Errorf("Synopsis() = %q, want %q", got, want)
	}
}

func TestToolSynopsisPrefersDescription(t *testing.T) {
	tool := Tool{
		Name:        "search",
		Description: "search(query) - full text search",
		Params:      []Param{{Name: "query", Kind: ParamPositional}},
	}
	if got := tool.Synopsis(); got != tool.Description {
		t.Errorf("Synopsis() = %q, want the description", got)
	}
}

func TestNormalizeToolsFromMap(t *testing.T) {
	in := map[string]Tool{
		"lookup": {Fn: func([]any, map[string]any) (any, error) { return nil, nil }},
	}
	got := NormalizeTools(in)
	if len(got) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(got))
	}
	if got["lookup"].Name != "lookup" {
		t.Errorf("map key was not backfilled as the tool name, got %q", got["lookup"].Name)
	}
}

func TestNormalizeToolsFromSlice(t *testing.T) {
	in := []Tool{
		{Name: "a"},
		{Name: ""}, // unnamed entries are dropped
		{Name: "b"},
	}
	got := NormalizeTools(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(got))
	}
	if _, ok := got["a"]; !ok {
		t.Error("tool a missing")
	}
	if _, ok := got["b"]; !ok {
		t.Error("tool b missing")
	}
}

func TestNormalizeToolsFromFuncMap(t *testing.T) {
	in := map[string]ToolFunc{
		"echo": func(args []any, _ map[string]any) (any, error) { return args, nil },
	}
	got := NormalizeTools(in)
	if got["echo"].Fn == nil {
		t.Error("function was not carried over")
	}
}

func TestNormalizeToolsUnknownShape(t *testing.T) {
	if got := NormalizeTools(42); len(got) != 0 {
		t.Errorf("expected empty mapping, got %v", got)
	}
	if got := NormalizeTools(nil); len(got) != 0 {
		t.Errorf("expected empty mapping for nil, got %v", got)
	}
}
