package codeact

import (
	"strings"
	"testing"
)

func TestTruncateHeadTail(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		budget   int
		truncate bool
	}{
		{"under budget", "short", 100, false},
		{"exactly budget", strings.Repeat("a", 100), 100, false},
		{"over budget", strings.Repeat("a", 101), 100, true},
		{"far over budget", strings.Repeat("a", 100000), 1000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateHeadTail(tt.text, tt.budget)
			if !tt.truncate {
				if got != tt.text {
					t.Errorf("expected text unchanged")
				}
				return
			}
			if !strings.Contains(got, "characters omitted") {
				t.Error("expected omission marker")
			}
			if len(got) >= len(tt.text) {
				t.Error("truncated text is not shorter than input")
			}
			if !strings.HasPrefix(got, tt.text[:tt.budget/2]) {
				t.Error("head half missing")
			}
			if !strings.HasSuffix(got, tt.text[len(tt.text)-tt.budget/2:]) {
				t.Error("tail half missing")
			}
		})
	}
}

func TestTruncateHeadTailDeterministic(t *testing.T) {
	text := strings.Repeat("abc", 1000)
	if TruncateHeadTail(text, 100) != TruncateHeadTail(text, 100) {
		t.Error("truncation is not deterministic")
	}
}

func TestSummarizeVariableShortValue(t *testing.T) {
	s := SummarizeVariable("question", "What is 2+2?", "", 1000)
	if s.Preview != "What is 2+2?" {
		t.Errorf("expected full preview, got %q", s.Preview)
	}
	if s.TotalLength != len("What is 2+2?") {
		t.Errorf("wrong total length %d", s.TotalLength)
	}
	if strings.Contains(s.Preview, "omitted") {
		t.Error("unexpected omission marker")
	}
}

func TestSummarizeVariableLongValue(t *testing.T) {
	long := strings.Repeat("z", 5000)
	s := SummarizeVariable("doc", long, "", 1000)
	if s.TotalLength != 5000 {
		t.Errorf("wrong total length %d", s.TotalLength)
	}
	if !strings.Contains(s.Preview, "characters omitted") {
		t.Error("expected omission marker")
	}
	if len(s.Preview) >= 5000 {
		t.Error("preview is not shorter than the full text")
	}
}

func TestSummarizeVariableCompositeValue(t *testing.T) {
	s := SummarizeVariable("data", map[string]any{"k": []any{1, 2}}, "", 1000)
	if s.TypeTag != "object" {
		t.Errorf("expected object type tag, got %q", s.TypeTag)
	}
	// Pretty JSON rendering.
	if !strings.Contains(s.Preview, "\"k\"") {
		t.Errorf("expected JSON rendering, got %q", s.Preview)
	}
}

func TestVariableSummaryFormat(t *testing.T) {
	s := SummarizeVariable("n", 1234567, "a big number", 1000)
	got := s.Format()
	if !strings.Contains(got, "### n (int)") {
		t.Errorf("missing header: %q", got)
	}
	if !strings.Contains(got, "a big number") {
		t.Error("missing description line")
	}
	if !strings.Contains(got, "```") {
		t.Error("missing fenced preview")
	}

	// Description omitted entirely when empty.
	s2 := SummarizeVariable("n", 5, "", 1000)
	if strings.Contains(s2.Format(), "\n\n```") {
		// no blank description line between header and length
		t.Error("empty description left a gap")
	}
}

func TestVariableSummaryFormatThousandsSeparator(t *testing.T) {
	long := strings.Repeat("x", 123456)
	s := SummarizeVariable("doc", long, "", 100)
	if !strings.Contains(s.Format(), "123,456") {
		t.Errorf("expected thousands separators, got:\n%s", s.Format())
	}
}

func TestFormatThousands(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-5000, "-5,000"},
	}
	for _, tt := range tests {
		if got := formatThousands(tt.n); got != tt.want {
			t.Errorf("formatThousands(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatVariablesEmpty(t *testing.T) {
	if got := FormatVariables(nil); !strings.Contains(got, "No input variables") {
		t.Errorf("unexpected empty rendering %q", got)
	}
}
