//go:build !darwin && !windows

package hotkey

import "golang.design/x/hotkey"

const (
	modCtrl = hotkey.ModCtrl
	modAlt  = hotkey.Mod1 // X11 has no named Alt mask, Mod1 is Alt on stock layouts

	keyR = hotkey.KeyR
	keyX = hotkey.KeyX
	keyO = hotkey.KeyO
)

// HasAccessibility always succeeds outside macOS.
func HasAccessibility() bool {
	return true
}
