//go:build darwin

package hotkey

import "golang.design/x/hotkey"

/*
#cgo LDFLAGS: -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>

int checkAccessibilityNative() {
    return AXIsProcessTrusted() ? 1 : 0;
}
*/
import "C"

// HasAccessibility reports whether the process is trusted for global event
// capture. Without the permission macOS drops hotkey registrations silently.
func HasAccessibility() bool {
	return C.checkAccessibilityNative() != 0
}

const (
	// macOS convention puts app shortcuts on Cmd+Option
	modCtrl = hotkey.ModCmd
	modAlt  = hotkey.ModOption

	keyR = hotkey.KeyR
	keyX = hotkey.KeyX
	keyO = hotkey.KeyO
)
