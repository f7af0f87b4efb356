//go:build darwin
// +build darwin

package ui

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Foundation -framework AppKit

#import <AppKit/AppKit.h>

// Regular apps have a Dock icon and a menu bar.
const NSApplicationActivationPolicy Regular = 0;

// Accessory apps have no Dock icon and do not appear in the Force Quit window.
const NSApplicationActivationPolicy Accessory = 1;

// setActivationPolicy activates the application and sets its activation policy.
// Activating is required for the policy change to take effect.
void setActivationPolicy(long policy) {
    [NSApp setActivationPolicy:policy];
    [NSApp activateIgnoringOtherApps:YES];
}
*/
import "C"

import "fyne.io/fyne/v2"

// darwinOS implements the OS interface for macOS.
type darwinOS struct{}

// TransformToForeground changes the application to be a regular app with a Dock icon.
func (d *darwinOS) TransformToForeground() {
	C.setActivationPolicy(C.Regular)
}

// TransformToBackground changes the application to be a background-only app.
func (d *darwinOS) TransformToBackground() {
	C.setActivationPolicy(C.Accessory)
}

// SetupLifecycle parks the app in the menu bar at startup. The Dock icon
// appears only while the main window is visible.
func (d *darwinOS) SetupLifecycle(app fyne.App, ra *RetouchApp) {
	app.Lifecycle().SetOnStarted(func() {
		d.TransformToBackground()
	})
}

// getOS returns a new instance of the darwinOS struct.
func getOS() OS {
	return &darwinOS{}
}
