package taskfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinemde/codeloop/codeact"
)

func writeTask(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "task.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validTask = `
name: capital
description: answer a geography question
inputs:
  - name: question
    type: string
    description: the question to answer
outputs:
  - name: answer
    type: string
values:
  question: "What is the capital of France?"
`

func TestLoadValidTask(t *testing.T) {
	task, err := Load(writeTask(t, validTask))
	require.NoError(t, err)

	assert.Equal(t, "capital", task.Name)
	assert.Equal(t, "What is the capital of France?", task.Values["question"])

	// Omitted options fall back to defaults.
	assert.Equal(t, 20, task.Options.MaxIterations)
	assert.Equal(t, 50, task.Options.MaxSubCalls)
	assert.Equal(t, codeact.DefaultMaxOutputChars, task.Options.MaxOutputChars)
	assert.Equal(t, codeact.DefaultPreviewChars, task.Options.PreviewChars)
}

func TestLoadOptionsOverride(t *testing.T) {
	task, err := Load(writeTask(t, validTask+`
options:
  max_iterations: 5
  timeout_seconds: 1.5
`))
	require.NoError(t, err)

	assert.Equal(t, 5, task.Options.MaxIterations)
	assert.Equal(t, 50, task.Options.MaxSubCalls, "untouched options keep their defaults")

	config := task.RunConfig()
	assert.Equal(t, 5, config.MaxIterations)
	assert.Equal(t, 1500*time.Millisecond, config.Timeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeTask(t, "outputs: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestValidateRequiresOutputs(t *testing.T) {
	_, err := Load(writeTask(t, `
name: empty
inputs: []
outputs: []
`))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "outputs")
}

func TestValidateRejectsUnknownType(t *testing.T) {
	_, err := Load(writeTask(t, `
outputs:
  - name: answer
    type: varchar
`))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "varchar")
}

func TestValidateRequiresValueForDeclaredInput(t *testing.T) {
	_, err := Load(writeTask(t, `
inputs:
  - name: question
    type: string
outputs:
  - name: answer
    type: string
`))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "values.question")
}

func TestValidateRejectsNonPositiveLimits(t *testing.T) {
	_, err := Load(writeTask(t, validTask+`
options:
  max_iterations: 0
`))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "max_iterations")
}

func TestValidateRejectsNegativeTimeout(t *testing.T) {
	task := &Task{
		Outputs: []FieldSpec{{Name: "answer", Type: "string"}},
		Options: DefaultOptions(),
	}
	task.Options.TimeoutSeconds = -1
	err := Validate(task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout_seconds")
}

func TestSpecConversion(t *testing.T) {
	task, err := Load(writeTask(t, validTask))
	require.NoError(t, err)

	spec, err := task.Spec()
	require.NoError(t, err)
	require.Len(t, spec.Inputs, 1)
	require.Len(t, spec.Outputs, 1)
	assert.Equal(t, codeact.Field{Name: "question", Type: codeact.FieldString, Description: "the question to answer"}, spec.Inputs[0])
	assert.Equal(t, codeact.FieldString, spec.Outputs[0].Type)
}

func TestSpecOmittedTypeDefaultsToAny(t *testing.T) {
	task, err := Load(writeTask(t, `
outputs:
  - name: answer
`))
	require.NoError(t, err)

	spec, err := task.Spec()
	require.NoError(t, err)
	assert.Equal(t, codeact.FieldAny, spec.Outputs[0].Type)
}
