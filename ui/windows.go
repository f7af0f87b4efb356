//go:build windows
// +build windows

package ui

import "fyne.io/fyne/v2"

// windowsOS implements the OS interface for Windows.
type windowsOS struct{}

// TransformToForeground is a no-op on Windows, which has no Dock policy.
func (w *windowsOS) TransformToForeground() {
}

// TransformToBackground is a no-op on Windows, which has no Dock policy.
func (w *windowsOS) TransformToBackground() {
}

// SetupLifecycle is a no-op on Windows.
func (w *windowsOS) SetupLifecycle(app fyne.App, ra *RetouchApp) {
}

// getOS returns a new instance of the windowsOS struct.
func getOS() OS {
	return &windowsOS{}
}
