package util

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringsToStringers(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "Empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "Single item",
			input:    []string{"default"},
			expected: []string{"default"},
		},
		{
			name:     "Multiple items",
			input:    []string{"Free", "Tier 1", "Tier 3"},
			expected: []string{"Free", "Tier 1", "Tier 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stringers := StringsToStringers(tt.input)
			assert.Len(t, stringers, len(tt.expected))
			for i, s := range stringers {
				assert.Equal(t, tt.expected[i], s.String())
			}
		})
	}
}

func TestStringersToStrings(t *testing.T) {
	in := []fmt.Stringer{StringerString("a"), StringerString("b")}
	assert.Equal(t, []string{"a", "b"}, StringersToStrings(in))

	// Round trip preserves order
	round := StringersToStrings(StringsToStringers([]string{"x", "y", "z"}))
	assert.Equal(t, []string{"x", "y", "z"}, round)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exactly", Truncate("exactly", 7))
	assert.Equal(t, "long te...", Truncate("long text that overflows", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "", Truncate("anything", 0))
}
