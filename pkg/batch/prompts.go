package batch

import (
	"errors"
	"regexp"
	"strings"

	"github.com/dixieflatline76/Retouch/util"
)

// ErrPromptNotFound is returned when a prompt name has no library entry.
var ErrPromptNotFound = errors.New("prompt not found")

// templateDefaults fill any {variable} placeholders the caller left
// unresolved, so a library prompt always renders to usable text.
var templateDefaults = map[string]string{
	"background":         "solid black background",
	"preservation_focus": "buildings and natural elements",
	"scene_type":         "outdoor scene",
	"intensity":          "moderate",
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// ApplyTemplate substitutes {variable} placeholders in text from vars, then
// from the built-in defaults for anything still unresolved.
func ApplyTemplate(text string, vars map[string]string) string {
	for name, value := range vars {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	for name, value := range templateDefaults {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}

// OptimizePrompt normalizes a prompt before it is sent to the model: overly
// long text is truncated, whitespace is collapsed, and a terminal punctuation
// mark is ensured.
func OptimizePrompt(text string) string {
	if len(text) > MaxPromptLength {
		text = util.Truncate(text, MaxPromptLength)
	}
	text = whitespaceRE.ReplaceAllString(strings.TrimSpace(text), " ")
	if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") && !strings.HasSuffix(text, "?") {
		text += "."
	}
	return text
}

// RenderPrompt produces the final instruction text for a prompt, applying
// template variables and, when enabled, the optimization pass.
func (c *Config) RenderPrompt(p Prompt, vars map[string]string) string {
	text := ApplyTemplate(p.Text, vars)
	if c.GetOptimizePrompt() {
		text = OptimizePrompt(text)
	}
	return text
}
