package starlarkbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinemde/codeloop/codeact"
)

func startedSession(t *testing.T, opts ...SessionOption) *Session {
	t.Helper()
	s := NewSession(opts...)
	require.NoError(t, s.Start())
	return s
}

func exec(t *testing.T, s *Session, code string) codeact.ExecResult {
	t.Helper()
	result, err := s.Execute(context.Background(), code, nil)
	require.NoError(t, err)
	return result
}

func TestExecuteCapturesPrint(t *testing.T) {
	s := startedSession(t)
	result := exec(t, s, `print("hello")`)
	assert.Equal(t, codeact.ResultText, result.Kind)
	assert.Equal(t, "hello", result.Text)
}

func TestExecuteMultiplePrints(t *testing.T) {
	s := startedSession(t)
	result := exec(t, s, "print(1)\nprint(2)")
	assert.Equal(t, "1\n2", result.Text)
}

func TestBindingsPersistAcrossExecutes(t *testing.T) {
	s := startedSession(t)
	exec(t, s, "x = 40")
	exec(t, s, "def bump(n):\n    return n + 2")
	result := exec(t, s, "print(bump(x))")
	assert.Equal(t, "42", result.Text)
}

func TestFinalExpressionValueIsOutput(t *testing.T) {
	s := startedSession(t)
	result := exec(t, s, "x = 2\nx + 3")
	assert.Equal(t, "5", result.Text)
}

func TestFinalExpressionStringRendersUnquoted(t *testing.T) {
	s := startedSession(t)
	result := exec(t, s, `"plain text"`)
	assert.Equal(t, "plain text", result.Text)
}

func TestPrintWinsOverFinalExpression(t *testing.T) {
	s := startedSession(t)
	result := exec(t, s, "print(\"printed\")\n1 + 1")
	assert.Equal(t, "printed", result.Text)
}

func TestNoOutputPlaceholder(t *testing.T) {
	s := startedSession(t)
	result := exec(t, s, "x = 1")
	assert.Equal(t, codeact.NoOutputPlaceholder, result.Text)
}

func TestExecuteStripsMarkdownFence(t *testing.T) {
	s := startedSession(t)
	result := exec(t, s, "```python\nprint(\"fenced\")\n```")
	assert.Equal(t, "fenced", result.Text)
}

func TestVariablesInjectedAndPersistent(t *testing.T) {
	s := startedSession(t)
	result, err := s.Execute(context.Background(), "print(question)", map[string]any{"question": "why?"})
	require.NoError(t, err)
	assert.Equal(t, "why?", result.Text)

	// Still bound on a later call with no injection.
	result = exec(t, s, "print(question)")
	assert.Equal(t, "why?", result.Text)
}

func TestSubmitKeywordArguments(t *testing.T) {
	s := startedSession(t)
	result := exec(t, s, `submit(answer="Paris", confidence=0.9)`)
	require.Equal(t, codeact.ResultSubmission, result.Kind)
	assert.Equal(t, "Paris", result.Payload["answer"])
	assert.Equal(t, 0.9, result.Payload["confidence"])
}

func TestSubmitSingleDict(t *testing.T) {
	s := startedSession(t)
	result := exec(t, s, `submit({"answer": "Paris"})`)
	require.Equal(t, codeact.ResultSubmission, result.Kind)
	assert.Equal(t, "Paris", result.Payload["answer"])
}

func TestSubmitNonDictPositionalFails(t *testing.T) {
	s := startedSession(t)
	_, err := s.Execute(context.Background(), `submit("oops")`, nil)
	var runtimeErr *codeact.SandboxRuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	assert.Contains(t, err.Error(), "submit")
}

func TestSubmitThenErrorStillSubmits(t *testing.T) {
	s := startedSession(t)
	result := exec(t, s, "submit(answer=\"done\")\nundefined_name")
	require.Equal(t, codeact.ResultSubmission, result.Kind)
	assert.Equal(t, "done", result.Payload["answer"])
}

func TestToolForwarding(t *testing.T) {
	var gotArgs []any
	var gotKwargs map[string]any
	tools := map[string]codeact.Tool{
		"lookup": {
			Name: "lookup",
			Fn: func(args []any, kwargs map[string]any) (any, error) {
				gotArgs = args
				gotKwargs = kwargs
				return []any{"a", "b"}, nil
			},
		},
	}
	s := startedSession(t, WithTools(tools))
	result := exec(t, s, `print(lookup("key", 7, limit=2))`)

	require.Equal(t, []any{"key", int64(7)}, gotArgs)
	require.Equal(t, map[string]any{"limit": int64(2)}, gotKwargs)
	assert.Equal(t, `["a", "b"]`, result.Text)
}

func TestToolErrorSurfacesAsRuntimeError(t *testing.T) {
	tools := map[string]codeact.Tool{
		"flaky": {
			Name: "flaky",
			Fn: func([]any, map[string]any) (any, error) {
				return nil, errors.New("upstream unavailable")
			},
		},
	}
	s := startedSession(t, WithTools(tools))
	_, err := s.Execute(context.Background(), "flaky()", nil)
	var runtimeErr *codeact.SandboxRuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	assert.Contains(t, err.Error(), "flaky: upstream unavailable")
}

func TestLoadAllowedModule(t *testing.T) {
	s := startedSession(t)
	result := exec(t, s, "load(\"json\", \"json\")\nprint(json.encode({\"k\": 1}))")
	assert.Equal(t, `{"k":1}`, result.Text)
}

func TestLoadDeniedModule(t *testing.T) {
	s := startedSession(t)
	_, err := s.Execute(context.Background(), `load("os", "os")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `module "os" is not available`)
	assert.Contains(t, err.Error(), "json, math, time")
}

func TestSyntaxErrorTagged(t *testing.T) {
	s := startedSession(t)
	_, err := s.Execute(context.Background(), "def broken(:\n", nil)
	var syntaxErr *codeact.SandboxSyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.True(t, codeact.IsRecoverable(err))
}

func TestRuntimeErrorTagged(t *testing.T) {
	s := startedSession(t)
	_, err := s.Execute(context.Background(), "1 // 0", nil)
	var runtimeErr *codeact.SandboxRuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	assert.True(t, codeact.IsRecoverable(err))
}

func TestBindingsSurviveFailedExecution(t *testing.T) {
	s := startedSession(t)
	_, err := s.Execute(context.Background(), "x = 7\nundefined_name()", nil)
	require.Error(t, err)

	result := exec(t, s, "print(x)")
	assert.Equal(t, "7", result.Text)
}

func TestShutdownClearsBindings(t *testing.T) {
	s := startedSession(t)
	exec(t, s, "x = 1")
	require.NoError(t, s.Shutdown())
	require.NoError(t, s.Start())

	_, err := s.Execute(context.Background(), "print(x)", nil)
	require.Error(t, err, "binding from the previous session must be gone")
}

func TestExecuteRequiresStart(t *testing.T) {
	s := NewSession()
	_, err := s.Execute(context.Background(), "print(1)", nil)
	require.Error(t, err)
}

func TestBindToolsRejectsDeniedCapability(t *testing.T) {
	s := NewSession()
	err := s.BindTools(map[string]codeact.Tool{
		"shell": {Name: "shell", Fn: func([]any, map[string]any) (any, error) { return nil, nil }},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestStartRejectsDeniedCapability(t *testing.T) {
	s := NewSession(WithTools(map[string]codeact.Tool{
		"exec": {Name: "exec"},
	}))
	require.Error(t, s.Start())
}

func TestWhileAndReassignmentAllowed(t *testing.T) {
	s := startedSession(t)
	result := exec(t, s, "total = 0\ni = 0\nwhile i < 5:\n    total += i\n    i += 1\nprint(total)")
	assert.Equal(t, "10", result.Text)
}
