package modelcall

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/martinemde/codeloop/codeact"
)

const actionPreamble = `You are an expert programmer solving a task by writing short Starlark scripts.

Each turn you see the task's input variables and the full interaction history.
Write the next script to make progress. Variables persist between scripts.
Use print(...) to inspect values; only printed output comes back to you.
Starlark is a Python dialect: no imports beyond load("json"|"math"|"time", ...),
no classes, no while-else, no file or network access.

When you know the final answer, call %s.

Respond with a short line of reasoning followed by exactly one fenced code
block containing the script.`

// buildActionSystem renders the system prompt for the action generator.
func buildActionSystem(spec codeact.TaskSpec, tools map[string]codeact.Tool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, actionPreamble, codeact.CallShape(spec.Outputs))
	if len(spec.Outputs) > 0 {
		sb.WriteString("\n\nOutput fields:")
		for _, f := range spec.Outputs {
			fmt.Fprintf(&sb, "\n  - %s (%s)", f.Name, f.Type)
			if f.Description != "" {
				fmt.Fprintf(&sb, ": %s", f.Description)
			}
		}
	}
	if len(tools) > 0 {
		sb.WriteString("\n\nAvailable tools:")
		for _, t := range tools {
			fmt.Fprintf(&sb, "\n  - %s", t.Synopsis())
		}
	}
	return sb.String()
}

// Generator returns an ActionGenerator for the given task.
func (c *Client) Generator(spec codeact.TaskSpec, tools map[string]codeact.Tool) codeact.ActionGenerator {
	system := buildActionSystem(spec, tools)
	return func(ctx context.Context, variablesText, historyText, progress string) (string, string, error) {
		user := fmt.Sprintf("Iteration %s.\n\n# Input Variables\n\n%s\n\n# Interaction History\n\n%s\n\nWrite the next script.",
			progress, variablesText, historyText)
		reply, err := Retry(ctx, c.retry, func(ctx context.Context) (string, error) {
			return c.complete(ctx, system, user)
		})
		if err != nil {
			return "", "", err
		}
		reasoning, code := ParseAction(reply)
		return reasoning, code, nil
	}
}

const extractPreamble = `The iteration budget for a scripted task run is exhausted.
Derive the best possible final answer from the inputs and the interaction
history below. Respond with a single JSON object holding exactly these
fields, and nothing else:`

// Extractor returns the fallback Extractor for the given task. Values are
// coerced to the declared types best-effort; fields that fail coercion are
// passed through raw.
func (c *Client) Extractor(spec codeact.TaskSpec) codeact.Extractor {
	var fieldLines strings.Builder
	for _, f := range spec.Outputs {
		fmt.Fprintf(&fieldLines, "\n  - %q (%s)", f.Name, f.Type)
	}
	system := extractPreamble + fieldLines.String()
	return func(ctx context.Context, variablesText, historyText string) (map[string]any, error) {
		user := fmt.Sprintf("# Input Variables\n\n%s\n\n# Interaction History\n\n%s", variablesText, historyText)
		reply, err := Retry(ctx, c.retry, func(ctx context.Context) (string, error) {
			return c.complete(ctx, system, user)
		})
		if err != nil {
			return nil, err
		}
		payload, err := ExtractJSONObject(reply)
		if err != nil {
			return nil, fmt.Errorf("extractor reply had no JSON object: %w", err)
		}
		outputs := make(map[string]any, len(spec.Outputs))
		for _, f := range spec.Outputs {
			raw, ok := payload[f.Name]
			if !ok {
				continue
			}
			if coerced, cerr := f.Type.Coerce(raw); cerr == nil {
				outputs[f.Name] = coerced
			} else {
				outputs[f.Name] = raw
			}
		}
		return outputs, nil
	}
}

// ParseAction splits a model reply into reasoning text and the contents of
// its first fenced code block. Replies without a fence are treated as all
// code so that malformed output still round-trips through the sandbox.
func ParseAction(reply string) (reasoning, code string) {
	start := strings.Index(reply, "```")
	if start == -1 {
		return "", strings.TrimSpace(reply)
	}
	reasoning = strings.TrimSpace(reply[:start])
	rest := reply[start+3:]
	// Skip an optional language tag on the opening fence line.
	if nl := strings.IndexByte(rest, '\n'); nl != -1 && isLanguageTag(strings.TrimSpace(rest[:nl])) {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end != -1 {
		rest = rest[:end]
	}
	return reasoning, strings.TrimSpace(rest)
}

// isLanguageTag reports whether a fence-line remainder looks like a
// language tag rather than code.
func isLanguageTag(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// ExtractJSONObject finds and parses the first balanced JSON object in a
// reply, tolerating surrounding prose.
func ExtractJSONObject(s string) (map[string]any, error) {
	start := strings.IndexByte(s, '{')
	for start != -1 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			ch := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					var out map[string]any
					if err := json.Unmarshal([]byte(s[start:i+1]), &out); err == nil {
						return out, nil
					}
					i = len(s) // malformed candidate; try the next '{'
				}
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next == -1 {
			break
		}
		start = start + 1 + next
	}
	return nil, fmt.Errorf("no parseable JSON object found")
}
