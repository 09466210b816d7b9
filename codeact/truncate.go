package codeact

import (
	"fmt"
	"strconv"
	"strings"
)

// TruncateHeadTail bounds text to roughly budget characters by keeping the
// first and last budget/2 characters around an omission marker stating how
// many characters were removed. Deterministic: the same input always yields
// the same output.
func TruncateHeadTail(text string, budget int) string {
	if budget <= 0 || len(text) <= budget {
		return text
	}
	half := budget / 2
	omitted := len(text) - 2*half
	return text[:half] +
		fmt.Sprintf("\n... [%d characters omitted] ...\n", omitted) +
		text[len(text)-half:]
}

// formatThousands renders n with comma thousands separators.
func formatThousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
