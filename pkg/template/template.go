// Package template provides placeholder substitution for message-bearing
// action parameters.
package template

import (
	"regexp"
	"strconv"
	"strings"
)

// placeholderPattern matches {{identifier}} with optional inner whitespace.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// Substitute replaces every {{key}} placeholder in the input with the value
// of that key in the execution context. Absent keys substitute the empty
// string so a half-filled context still produces deliverable text.
func Substitute(input string, data map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		key := strings.Trim(match, "{} \t")

		value, ok := data[key]
		if !ok || value == nil {
			return ""
		}

		return Stringify(value)
	})
}

// Stringify renders a context value the way it reads in a message body.
func Stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
