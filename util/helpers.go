package util

import (
	"fmt"
)

// StringerString is a string that implements fmt.Stringer
type StringerString string

func (s StringerString) String() string {
	return string(s)
}

// StringsToStringers converts a slice of strings to a slice of fmt.Stringer
func StringsToStringers(strs []string) []fmt.Stringer {
	stringers := make([]fmt.Stringer, len(strs))
	for i, s := range strs {
		stringers[i] = StringerString(s)
	}
	return stringers
}

// StringersToStrings converts a slice of fmt.Stringer to their string values
func StringersToStrings(stringers []fmt.Stringer) []string {
	strs := make([]string, len(stringers))
	for i, s := range stringers {
		strs[i] = s.String()
	}
	return strs
}

// Truncate shortens s to at most max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
