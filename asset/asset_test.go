package asset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetManager(t *testing.T) {
	am := NewManager()

	t.Run("GetImage", func(t *testing.T) {
		img, err := am.GetImage("splash.png")
		assert.NoError(t, err)
		assert.NotNil(t, img)

		_, err = am.GetImage("non_existent.png")
		assert.Error(t, err)
	})

	t.Run("GetIcon", func(t *testing.T) {
		icon, err := am.GetIcon("tray.png")
		assert.NoError(t, err)
		assert.NotNil(t, icon)
		assert.Equal(t, "tray.png", icon.Name())
		assert.NotEmpty(t, icon.Content())

		_, err = am.GetIcon("non_existent.png")
		assert.Error(t, err)

		_, err = am.GetIcon("")
		assert.Error(t, err)
	})

	t.Run("GetText", func(t *testing.T) {
		text, err := am.GetText("terms.txt")
		assert.NoError(t, err)
		assert.NotEmpty(t, text)

		_, err = am.GetText("non_existent.txt")
		assert.Error(t, err)
	})

	t.Run("DefaultPromptsParse", func(t *testing.T) {
		text, err := am.GetText("default_prompts.json")
		assert.NoError(t, err)

		var payload struct {
			Prompts []struct {
				Name string `json:"name"`
				Text string `json:"text"`
			} `json:"prompts"`
		}
		err = json.Unmarshal([]byte(text), &payload)
		assert.NoError(t, err)
		assert.NotEmpty(t, payload.Prompts)
		assert.Equal(t, "default", payload.Prompts[0].Name)
	})
}
