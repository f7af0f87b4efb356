package setting

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockStringer struct {
	val string
}

func (m mockStringer) String() string {
	return m.val
}

func TestStringOptions(t *testing.T) {
	tests := []struct {
		name     string
		input    []fmt.Stringer
		expected []string
	}{
		{
			name:     "Empty slice",
			input:    []fmt.Stringer{},
			expected: []string{},
		},
		{
			name: "Single item",
			input: []fmt.Stringer{
				mockStringer{val: "Free"},
			},
			expected: []string{"Free"},
		},
		{
			name: "Multiple items",
			input: []fmt.Stringer{
				mockStringer{val: "Free"},
				mockStringer{val: "Tier 1"},
				mockStringer{val: "Tier 3"},
			},
			expected: []string{"Free", "Tier 1", "Tier 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StringOptions(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
