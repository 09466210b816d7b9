package codeact

import (
	"strings"
	"testing"
)

func TestHistoryAppendPreservesOrder(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 5; i++ {
		h = h.Append(StepRecord{Code: string(rune('a' + i))})
	}
	if h.Size() != 5 {
		t.Fatalf("expected size 5, got %d", h.Size())
	}
	for i := 0; i < 5; i++ {
		if h.Step(i).Code != string(rune('a'+i)) {
			t.Errorf("step %d: expected %q, got %q", i, string(rune('a'+i)), h.Step(i).Code)
		}
	}
}

func TestHistoryAppendIsImmutable(t *testing.T) {
	h1 := NewHistory(0)
	h1 = h1.Append(StepRecord{Code: "first"})

	before := h1
	h2 := h1.Append(StepRecord{Code: "second"})
	h3 := h1.Append(StepRecord{Code: "other-second"})

	if before.Size() != 1 {
		t.Errorf("earlier reference grew: size %d", before.Size())
	}
	if h2.Size() != 2 || h3.Size() != 2 {
		t.Fatalf("expected both branches to have size 2, got %d and %d", h2.Size(), h3.Size())
	}
	if h2.Step(1).Code != "second" || h3.Step(1).Code != "other-second" {
		t.Error("branched appends observed each other's contents")
	}
}

func TestHistoryEmptyFormat(t *testing.T) {
	h := NewHistory(0)
	got := h.Format()
	if got != "No interaction has occurred yet." {
		t.Errorf("unexpected empty rendering: %q", got)
	}
}

func TestHistoryFormatRendersAllSteps(t *testing.T) {
	h := NewHistory(0)
	h = h.Append(StepRecord{Reasoning: "think", Code: "print(1)", Output: "1"})
	h = h.Append(StepRecord{Code: "print(2)", Output: "2"})

	got := h.Format()
	if !strings.Contains(got, "## Step 1") || !strings.Contains(got, "## Step 2") {
		t.Errorf("missing step headers:\n%s", got)
	}
	if !strings.Contains(got, "Reasoning: think") {
		t.Error("missing reasoning line for step 1")
	}
	// Step 2 has no reasoning; the line must be omitted entirely.
	step2 := got[strings.Index(got, "## Step 2"):]
	if strings.Contains(step2, "Reasoning:") {
		t.Error("empty reasoning was rendered for step 2")
	}
}

func TestStepFormatTruncatesOutput(t *testing.T) {
	long := strings.Repeat("x", 500)
	step := StepRecord{Code: "noop()", Output: long}

	got := step.Format(1, 100)
	if !strings.Contains(got, "characters omitted") {
		t.Error("expected an omission marker for long output")
	}
	if !strings.Contains(got, "Output (500 characters):") {
		t.Errorf("expected untruncated length prefix, got:\n%s", got)
	}
	if len(got) >= len(long) {
		t.Error("truncated rendering is not shorter than the raw output")
	}
}

func TestStepFormatShortOutputUntouched(t *testing.T) {
	step := StepRecord{Code: "noop()", Output: "fine"}
	got := step.Format(3, 100)
	if strings.Contains(got, "omitted") {
		t.Error("unexpected omission marker for short output")
	}
	if !strings.Contains(got, "fine") {
		t.Error("output text missing")
	}
}
