package starlarkbox

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	starlarkjson "go.starlark.net/lib/json"
	starlarkmath "go.starlark.net/lib/math"
	starlarktime "go.starlark.net/lib/time"
	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/martinemde/codeloop/codeact"
)

const scriptFilename = "script.star"

// deniedCapabilities are tool names refused outright: nothing that spawns
// processes or escapes to a shell may be reachable from sandboxed code.
var deniedCapabilities = map[string]bool{
	"exec":       true,
	"spawn":      true,
	"shell":      true,
	"system":     true,
	"popen":      true,
	"subprocess": true,
}

// loadModule resolves a load() against the explicit module allow-list.
func loadModule(name string) (starlark.StringDict, bool) {
	switch name {
	case "json":
		return starlark.StringDict{"json": starlarkjson.Module}, true
	case "math":
		return starlark.StringDict{"math": starlarkmath.Module}, true
	case "time":
		return starlark.StringDict{"time": starlarktime.Module}, true
	default:
		return nil, false
	}
}

func allowedModuleNames() string {
	names := []string{"json", "math", "time"}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

type sessionState int

const (
	stateUninitialized sessionState = iota
	stateStarted
	stateShutDown
)

// Session is a stateful, capability-scoped Starlark interpreter serving one
// run. Bindings defined by scripts or injected by the host persist across
// Execute calls until Shutdown. A session must not be shared across
// concurrent runs.
type Session struct {
	mu      sync.Mutex
	state   sessionState
	globals starlark.StringDict
	tools   map[string]codeact.Tool
	opts    *syntax.FileOptions

	// single-shot submit slot, reset before each execution
	submitted bool
	payload   map[string]any
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTools binds host tools at construction time.
func WithTools(tools map[string]codeact.Tool) SessionOption {
	return func(s *Session) {
		s.tools = cloneTools(tools)
	}
}

// NewSession creates an uninitialized session.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		tools: make(map[string]codeact.Tool),
		opts: &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func cloneTools(tools map[string]codeact.Tool) map[string]codeact.Tool {
	out := make(map[string]codeact.Tool, len(tools))
	for name, t := range tools {
		out[name] = t
	}
	return out
}

// BindTools replaces the session's host tool bindings. Deny-listed
// capability names are refused.
func (s *Session) BindTools(tools map[string]codeact.Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range tools {
		if deniedCapabilities[name] {
			return fmt.Errorf("tool %q is denied: process-spawning and shell capabilities are not permitted in the sandbox", name)
		}
	}
	s.tools = cloneTools(tools)
	return nil
}

// Start initializes the session with an empty binding table. Idempotent:
// calling Start on a started session is a no-op.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateStarted {
		return nil
	}
	for name := range s.tools {
		if deniedCapabilities[name] {
			return fmt.Errorf("tool %q is denied: process-spawning and shell capabilities are not permitted in the sandbox", name)
		}
	}
	s.globals = make(starlark.StringDict)
	s.state = stateStarted
	return nil
}

// Shutdown releases all session bindings so a later Start begins from a
// clean state. Idempotent.
func (s *Session) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateShutDown {
		return nil
	}
	s.globals = nil
	s.state = stateShutDown
	return nil
}

// Execute runs one script. Variables are injected into the session's
// bindings before running and persist for subsequent calls. Output written
// by print is captured in isolation from the host's own output stream. If
// the script invoked submit, the result is a Submission and normal output
// derivation is skipped.
func (s *Session) Execute(ctx context.Context, code string, variables map[string]any) (codeact.ExecResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateStarted {
		return codeact.ExecResult{}, errors.New("session is not started")
	}

	for name, value := range variables {
		sv, err := goToStarlark(value)
		if err != nil {
			return codeact.ExecResult{}, fmt.Errorf("inject %q: %w", name, err)
		}
		s.globals[name] = sv
	}

	src := StripFence(code)

	s.submitted = false
	s.payload = nil

	var captured strings.Builder
	thread := &starlark.Thread{
		Name: "sandbox",
		Print: func(_ *starlark.Thread, msg string) {
			captured.WriteString(msg)
			captured.WriteByte('\n')
		},
		Load: func(_ *starlark.Thread, module string) (starlark.StringDict, error) {
			if dict, ok := loadModule(module); ok {
				return dict, nil
			}
			return nil, fmt.Errorf("module %q is not available in the sandbox; allowed modules: %s", module, allowedModuleNames())
		},
	}

	head, tail, err := splitFinalExpression(s.opts, src)
	if err != nil {
		return codeact.ExecResult{}, &codeact.SandboxSyntaxError{LoopError: codeact.LoopError{
			Message: err.Error(), Cause: err,
		}}
	}

	env := s.environment()

	var execErr error
	if strings.TrimSpace(head) != "" {
		globals, err := starlark.ExecFileOptions(s.opts, thread, scriptFilename, head, env)
		// Bindings established before a failure still persist.
		for name, value := range globals {
			s.globals[name] = value
		}
		execErr = err
	}
	if s.submitted {
		return codeact.SubmissionResult(s.payload), nil
	}
	if execErr != nil {
		return codeact.ExecResult{}, asSandboxError(execErr)
	}

	var final starlark.Value = starlark.None
	if strings.TrimSpace(tail) != "" {
		value, evalErr := starlark.EvalOptions(s.opts, thread, scriptFilename, tail, s.environment())
		if s.submitted {
			return codeact.SubmissionResult(s.payload), nil
		}
		if evalErr != nil {
			return codeact.ExecResult{}, asSandboxError(evalErr)
		}
		final = value
	}

	if text := captured.String(); strings.TrimSpace(text) != "" {
		return codeact.TextResult(strings.TrimRight(text, "\n")), nil
	}
	if rendered := renderFinal(final); rendered != "" {
		return codeact.TextResult(rendered), nil
	}
	return codeact.TextResult(codeact.NoOutputPlaceholder), nil
}

// environment builds the evaluation environment: persisted bindings layered
// over the tool builtins and the submit capability.
func (s *Session) environment() starlark.StringDict {
	env := make(starlark.StringDict, len(s.tools)+len(s.globals)+1)
	for name, tool := range s.tools {
		env[name] = toolBuiltin(tool)
	}
	env["submit"] = s.submitBuiltin()
	for name, value := range s.globals {
		env[name] = value
	}
	return env
}

// submitBuiltin writes into the session's single-shot result slot. It never
// raises on a well-formed payload; completion is signaled through the slot,
// not through a non-local exit.
func (s *Session) submitBuiltin() *starlark.Builtin {
	return starlark.NewBuiltin("submit", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		payload := make(map[string]any)
		if len(args) > 1 {
			return nil, errors.New("submit: pass the output fields as keyword arguments or a single dict")
		}
		if len(args) == 1 {
			dict, ok := args[0].(*starlark.Dict)
			if !ok {
				return nil, fmt.Errorf("submit: positional argument must be a dict, got %s", args[0].Type())
			}
			converted, err := starlarkToGo(dict)
			if err != nil {
				return nil, fmt.Errorf("submit: %w", err)
			}
			payload = converted.(map[string]any)
		}
		for _, kv := range kwargs {
			name := string(kv[0].(starlark.String))
			value, err := starlarkToGo(kv[1])
			if err != nil {
				return nil, fmt.Errorf("submit: %s: %w", name, err)
			}
			payload[name] = value
		}
		// Execute holds the session lock for the duration of the script,
		// so the slot is written without re-locking.
		s.payload = payload
		s.submitted = true
		return starlark.None, nil
	})
}

// toolBuiltin bridges a host tool into the sandbox, forwarding positional,
// keyword, and variadic arguments transparently.
func toolBuiltin(tool codeact.Tool) *starlark.Builtin {
	return starlark.NewBuiltin(tool.Name, func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if tool.Fn == nil {
			return nil, fmt.Errorf("%s: tool has no implementation", tool.Name)
		}
		goArgs := make([]any, len(args))
		for i, a := range args {
			v, err := starlarkToGo(a)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", tool.Name, i, err)
			}
			goArgs[i] = v
		}
		goKwargs := make(map[string]any, len(kwargs))
		for _, kv := range kwargs {
			name := string(kv[0].(starlark.String))
			v, err := starlarkToGo(kv[1])
			if err != nil {
				return nil, fmt.Errorf("%s: argument %q: %w", tool.Name, name, err)
			}
			goKwargs[name] = v
		}
		result, err := tool.Fn(goArgs, goKwargs)
		if err != nil {
			// Host tool failures, including budget exhaustion, surface as
			// ordinary script-level failures.
			return nil, fmt.Errorf("%s: %w", tool.Name, err)
		}
		return goToStarlark(result)
	})
}

// asSandboxError maps interpreter failures onto the tagged sandbox error
// types. Static resolution failures count as syntax errors.
func asSandboxError(err error) error {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return &codeact.SandboxRuntimeError{LoopError: codeact.LoopError{
			Message: evalErr.Backtrace(), Cause: err,
		}}
	}
	switch err.(type) {
	case syntax.Error, resolve.Error, resolve.ErrorList:
		return &codeact.SandboxSyntaxError{LoopError: codeact.LoopError{
			Message: err.Error(), Cause: err,
		}}
	}
	return &codeact.SandboxRuntimeError{LoopError: codeact.LoopError{
		Message: err.Error(), Cause: err,
	}}
}
