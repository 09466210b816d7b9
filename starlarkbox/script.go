package starlarkbox

import (
	"strings"

	"go.starlark.net/syntax"
)

// StripFence removes a single leading and trailing fenced-code line (a line
// that is only a fence marker, optionally with a language tag on the
// opening line), so scripts wrapped in documentation-style fences still
// run.
func StripFence(code string) string {
	trimmed := strings.TrimSpace(code)
	lines := strings.Split(trimmed, "\n")
	if len(lines) > 0 && isOpeningFence(lines[0]) {
		lines = lines[1:]
	}
	if len(lines) > 0 && isClosingFence(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func isOpeningFence(line string) bool {
	line = strings.TrimSpace(line)
	marker := fenceMarker(line)
	if marker == "" {
		return false
	}
	tag := strings.TrimPrefix(line, marker)
	// Optional language tag, no spaces.
	return tag == "" || !strings.ContainsAny(tag, " \t")
}

func isClosingFence(line string) bool {
	line = strings.TrimSpace(line)
	return line == "```" || line == "~~~"
}

func fenceMarker(line string) string {
	if strings.HasPrefix(line, "```") {
		return "```"
	}
	if strings.HasPrefix(line, "~~~") {
		return "~~~"
	}
	return ""
}

// splitFinalExpression parses src and, when the last statement is a bare
// expression starting on its own line, splits the source so the expression
// can be evaluated separately for its value. Returns the full source as
// head when no split applies.
func splitFinalExpression(opts *syntax.FileOptions, src string) (head, tail string, err error) {
	file, err := opts.Parse(scriptFilename, src, 0)
	if err != nil {
		return "", "", err
	}
	if len(file.Stmts) == 0 {
		return src, "", nil
	}
	last, ok := file.Stmts[len(file.Stmts)-1].(*syntax.ExprStmt)
	if !ok {
		return src, "", nil
	}
	start, _ := last.Span()
	lines := strings.Split(src, "\n")
	if start.Line <= 1 || int(start.Line) > len(lines) {
		if start.Line == 1 && len(file.Stmts) == 1 {
			// Whole script is one expression.
			return "", src, nil
		}
		return src, "", nil
	}
	if len(file.Stmts) >= 2 {
		// Do not split statements sharing a line (semicolon form).
		_, prevEnd := file.Stmts[len(file.Stmts)-2].Span()
		if prevEnd.Line == start.Line {
			return src, "", nil
		}
	}
	head = strings.Join(lines[:start.Line-1], "\n")
	tail = strings.Join(lines[start.Line-1:], "\n")
	return head, tail, nil
}
