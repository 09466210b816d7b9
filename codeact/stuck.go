package codeact

import "strings"

// StuckWindow is how many consecutive identical prior steps trigger the
// stuck hint.
const StuckWindow = 3

// StuckHint is the corrective message recorded instead of executing
// repeated code.
const StuckHint = "You have proposed the same code three times in a row, so it was not executed again. " +
	"Step back, reconsider the approach, and try something different."

// IsStuck reports whether code matches, after trimming, the code of the
// last StuckWindow history entries. It never fires before the history has
// StuckWindow entries.
func IsStuck(h History, code string) bool {
	if h.Size() < StuckWindow {
		return false
	}
	trimmed := strings.TrimSpace(code)
	for _, step := range h.Last(StuckWindow) {
		if strings.TrimSpace(step.Code) != trimmed {
			return false
		}
	}
	return true
}
