package codeact

import "context"

// ResultKind discriminates execution results.
type ResultKind string

const (
	ResultText       ResultKind = "text"
	ResultSubmission ResultKind = "submission"
)

// NoOutputPlaceholder is returned when a script produced no visible output
// and its final expression rendered empty.
const NoOutputPlaceholder = "[No output produced. Use print(...) to emit output.]"

// ExecResult is the tagged union an engine returns on success: either
// captured text or a final submission payload.
type ExecResult struct {
	Kind    ResultKind
	Text    string
	Payload map[string]any
}

// TextResult wraps captured output text.
func TextResult(text string) ExecResult {
	return ExecResult{Kind: ResultText, Text: text}
}

// SubmissionResult wraps a raw submission payload.
func SubmissionResult(payload map[string]any) ExecResult {
	return ExecResult{Kind: ResultSubmission, Payload: payload}
}

// Engine is the sandboxed execution contract. A conforming implementation
// maintains one isolated, stateful session: bindings injected or defined by
// a script persist for subsequent calls, tool callables are reachable by
// name from inside scripts, and execution failures surface as tagged
// SandboxSyntaxError or SandboxRuntimeError values, never raw panics.
//
// One session serves exactly one run; a single session must not be shared
// across concurrent runs.
type Engine interface {
	// Start initializes the session. Idempotent.
	Start() error

	// Execute runs one script, injecting variables into the session's
	// bindings first. It returns captured stdout text, the printable
	// rendering of the final expression when nothing was printed, or a
	// Submission when the script invoked the submit capability.
	Execute(ctx context.Context, code string, variables map[string]any) (ExecResult, error)

	// Shutdown releases all session bindings so a later Start begins from
	// a clean state. Idempotent.
	Shutdown() error
}

// ToolBinder is implemented by engines that accept host tool bindings
// before the session starts. The runner uses it to install user tools and
// the budget-guarded ask-the-model capability for each run.
type ToolBinder interface {
	BindTools(tools map[string]Tool) error
}
