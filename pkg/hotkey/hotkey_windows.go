//go:build windows

package hotkey

import "golang.design/x/hotkey"

const (
	modCtrl = hotkey.ModCtrl
	modAlt  = hotkey.ModAlt

	keyR = hotkey.KeyR
	keyX = hotkey.KeyX
	keyO = hotkey.KeyO
)

// HasAccessibility always succeeds, Windows needs no permission for global
// hotkeys.
func HasAccessibility() bool {
	return true
}
