// Package taskfile loads YAML task definitions: the declared input and
// output fields, literal input values, and run options.
package taskfile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/martinemde/codeloop/codeact"
)

// FieldSpec declares one input or output field.
type FieldSpec struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description,omitempty"`
}

// Options holds the recognized run options.
type Options struct {
	MaxIterations  int     `yaml:"max_iterations"`
	MaxSubCalls    int     `yaml:"max_sub_calls"`
	MaxOutputChars int     `yaml:"max_output_chars"`
	PreviewChars   int     `yaml:"preview_chars"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
	Verbose        bool    `yaml:"verbose"`
}

// DefaultOptions returns options with default values.
func DefaultOptions() Options {
	return Options{
		MaxIterations:  20,
		MaxSubCalls:    50,
		MaxOutputChars: codeact.DefaultMaxOutputChars,
		PreviewChars:   codeact.DefaultPreviewChars,
	}
}

// Task is one task document.
type Task struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Inputs      []FieldSpec    `yaml:"inputs"`
	Outputs     []FieldSpec    `yaml:"outputs"`
	Values      map[string]any `yaml:"values"`
	Options     Options        `yaml:"options"`
}

// ValidationError represents a task file validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Load reads and parses a task file, applying defaults for missing options.
func Load(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	task := Task{Options: DefaultOptions()}
	if err := yaml.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to parse task file: %w", err)
	}

	if err := Validate(&task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Validate checks that a task is well formed.
func Validate(task *Task) error {
	if len(task.Outputs) == 0 {
		return ValidationError{Field: "outputs", Message: "at least one output field is required"}
	}
	for i, f := range task.Inputs {
		if f.Name == "" {
			return ValidationError{Field: fmt.Sprintf("inputs[%d].name", i), Message: "required field is empty"}
		}
		if _, err := codeact.ParseFieldType(f.Type); err != nil {
			return ValidationError{Field: fmt.Sprintf("inputs[%d].type", i), Message: err.Error()}
		}
		if _, ok := task.Values[f.Name]; !ok {
			return ValidationError{Field: "values." + f.Name, Message: "no value provided for declared input"}
		}
	}
	for i, f := range task.Outputs {
		if f.Name == "" {
			return ValidationError{Field: fmt.Sprintf("outputs[%d].name", i), Message: "required field is empty"}
		}
		if _, err := codeact.ParseFieldType(f.Type); err != nil {
			return ValidationError{Field: fmt.Sprintf("outputs[%d].type", i), Message: err.Error()}
		}
	}
	if task.Options.MaxIterations <= 0 {
		return ValidationError{Field: "options.max_iterations", Message: "must be positive"}
	}
	if task.Options.MaxSubCalls <= 0 {
		return ValidationError{Field: "options.max_sub_calls", Message: "must be positive"}
	}
	if task.Options.TimeoutSeconds < 0 {
		return ValidationError{Field: "options.timeout_seconds", Message: "must not be negative"}
	}
	return nil
}

// Spec converts the declared fields into a codeact.TaskSpec.
func (t *Task) Spec() (codeact.TaskSpec, error) {
	spec := codeact.TaskSpec{
		Inputs:  make([]codeact.Field, len(t.Inputs)),
		Outputs: make([]codeact.Field, len(t.Outputs)),
	}
	for i, f := range t.Inputs {
		ft, err := codeact.ParseFieldType(f.Type)
		if err != nil {
			return codeact.TaskSpec{}, err
		}
		spec.Inputs[i] = codeact.Field{Name: f.Name, Type: ft, Description: f.Description}
	}
	for i, f := range t.Outputs {
		ft, err := codeact.ParseFieldType(f.Type)
		if err != nil {
			return codeact.TaskSpec{}, err
		}
		spec.Outputs[i] = codeact.Field{Name: f.Name, Type: ft, Description: f.Description}
	}
	return spec, nil
}

// RunConfig converts the options into a codeact.RunConfig.
func (t *Task) RunConfig() codeact.RunConfig {
	return codeact.RunConfig{
		MaxIterations:  t.Options.MaxIterations,
		MaxSubCalls:    t.Options.MaxSubCalls,
		MaxOutputChars: t.Options.MaxOutputChars,
		PreviewChars:   t.Options.PreviewChars,
		Timeout:        time.Duration(t.Options.TimeoutSeconds * float64(time.Second)),
		Verbose:        t.Options.Verbose,
	}
}
