package avp

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// generateUnifiedDiff renders a unified diff between two versions of a
// secret. Binary values get a one-line notice instead of a hunk dump.
// Returns the empty string when the values are identical.
func generateUnifiedDiff(key string, from, to int, oldValue, newValue []byte) string {
	if string(oldValue) == string(newValue) {
		return ""
	}

	if !utf8.Valid(oldValue) || !utf8.Valid(newValue) {
		return fmt.Sprintf("Binary secret %s changed between version %d and %d\n", key, from, to)
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff for better output
	oldStr, newStr := string(oldValue), string(newValue)
	a, b, lineArray := dmp.DiffLinesToChars(oldStr, newStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(oldStr, diffs)
	if len(patches) == 0 {
		return ""
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- %s@v%d\n", key, from))
	result.WriteString(fmt.Sprintf("+++ %s@v%d\n", key, to))
	result.WriteString(dmp.PatchToText(patches))
	return result.String()
}
