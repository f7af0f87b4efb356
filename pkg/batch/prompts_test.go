package batch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyTemplate(t *testing.T) {
	// Caller variables substitute first
	out := ApplyTemplate("Replace sky with {background}.", map[string]string{"background": "pure white"})
	assert.Equal(t, "Replace sky with pure white.", out)

	// Built-in defaults fill anything the caller left out
	out = ApplyTemplate("Keep {preservation_focus} intact on a {background}.", nil)
	assert.Equal(t, "Keep buildings and natural elements intact on a solid black background.", out)

	// Unknown placeholders pass through untouched
	out = ApplyTemplate("Mind the {mystery}.", nil)
	assert.Equal(t, "Mind the {mystery}.", out)
}

func TestOptimizePrompt(t *testing.T) {
	// Whitespace collapses and terminal punctuation is added
	assert.Equal(t, "Remove the sky.", OptimizePrompt("  Remove \n\t the   sky "))

	// Existing terminal punctuation is kept
	assert.Equal(t, "Remove the sky!", OptimizePrompt("Remove the sky!"))

	// Overly long prompts are truncated to the cap
	long := strings.Repeat("a", MaxPromptLength+100)
	out := OptimizePrompt(long)
	assert.LessOrEqual(t, len(out), MaxPromptLength)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestRenderPrompt(t *testing.T) {
	ResetConfig()
	cfg := GetConfig(NewMockPreferences())

	p := Prompt{Name: "test", Text: "replace   sky with {background}"}

	cfg.SetOptimizePrompt(true)
	assert.Equal(t, "replace sky with solid black background.", cfg.RenderPrompt(p, nil))

	cfg.SetOptimizePrompt(false)
	assert.Equal(t, "replace   sky with solid black background", cfg.RenderPrompt(p, nil))

	// Caller variables override the defaults
	out := cfg.RenderPrompt(p, map[string]string{"background": "green screen"})
	assert.Contains(t, out, "green screen")
}
