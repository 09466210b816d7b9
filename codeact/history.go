package codeact

import (
	"fmt"
	"strings"
)

// DefaultMaxOutputChars is the default per-step output truncation budget.
const DefaultMaxOutputChars = 10000

// StepRecord is one executed step: the model's reasoning (possibly empty),
// the script it submitted, and the rendered execution output. Immutable once
// appended.
type StepRecord struct {
	Reasoning string
	Code      string
	Output    string
}

// Format renders the step: a numbered header, an optional reasoning line,
// the code in a fenced block, and the output truncated head/tail against
// maxOutputChars, prefixed by the untruncated output length.
func (s StepRecord) Format(index int, maxOutputChars int) string {
	if maxOutputChars <= 0 {
		maxOutputChars = DefaultMaxOutputChars
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Step %d\n", index)
	if s.Reasoning != "" {
		fmt.Fprintf(&sb, "Reasoning: %s\n", s.Reasoning)
	}
	fmt.Fprintf(&sb, "```\n%s\n```\n", s.Code)
	fmt.Fprintf(&sb, "Output (%s characters):\n%s",
		formatThousands(len(s.Output)), TruncateHeadTail(s.Output, maxOutputChars))
	return sb.String()
}

// History is a persistent, append-only sequence of step records. Append
// returns a new value; previously held references keep observing their
// original length and contents.
type History struct {
	steps          []StepRecord
	maxOutputChars int
}

// NewHistory creates an empty history with the given per-step output budget.
// maxOutputChars <= 0 uses DefaultMaxOutputChars.
func NewHistory(maxOutputChars int) History {
	if maxOutputChars <= 0 {
		maxOutputChars = DefaultMaxOutputChars
	}
	return History{maxOutputChars: maxOutputChars}
}

// Append returns a new History with step added. The new value shares no
// mutable state with the receiver.
func (h History) Append(step StepRecord) History {
	steps := make([]StepRecord, len(h.steps)+1)
	copy(steps, h.steps)
	steps[len(h.steps)] = step
	return History{steps: steps, maxOutputChars: h.maxOutputChars}
}

// Size returns the number of steps.
func (h History) Size() int {
	return len(h.steps)
}

// Step returns the i-th step (0-based).
func (h History) Step(i int) StepRecord {
	return h.steps[i]
}

// Last returns up to n most recent steps in chronological order.
func (h History) Last(n int) []StepRecord {
	if n > len(h.steps) {
		n = len(h.steps)
	}
	out := make([]StepRecord, n)
	copy(out, h.steps[len(h.steps)-n:])
	return out
}

// Format renders all steps in order separated by blank lines, or a fixed
// sentence when the history is empty.
func (h History) Format() string {
	if len(h.steps) == 0 {
		return "No interaction has occurred yet."
	}
	parts := make([]string, len(h.steps))
	for i, step := range h.steps {
		parts[i] = step.Format(i+1, h.maxOutputChars)
	}
	return strings.Join(parts, "\n\n")
}
