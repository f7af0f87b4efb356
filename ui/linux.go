//go:build linux
// +build linux

package ui

import (
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/dixieflatline76/Retouch/config"
)

// linuxOS implements the OS interface for Linux.
type linuxOS struct{}

// TransformToForeground is a no-op on Linux, which has no Dock policy.
func (l *linuxOS) TransformToForeground() {
}

// TransformToBackground is a no-op on Linux, which has no Dock policy.
func (l *linuxOS) TransformToBackground() {
}

// SetupLifecycle is a no-op on standard Linux desktops.
func (l *linuxOS) SetupLifecycle(app fyne.App, ra *RetouchApp) {
}

// chromeOS implements the OS interface for Chrome OS (Crostini), where no
// system tray exists. The shelf icon toggles a pseudo-tray window instead.
type chromeOS struct {
	linuxOS
	trayWindow fyne.Window
	visible    bool
}

// SetupLifecycle wires the shelf icon click, which Fyne reports as entering
// the foreground, to the pseudo-tray window.
func (c *chromeOS) SetupLifecycle(app fyne.App, ra *RetouchApp) {
	app.Lifecycle().SetOnEnteredForeground(func() {
		if c.trayWindow == nil {
			c.createTrayWindow(app, ra)
		}
		if c.visible {
			c.trayWindow.Hide()
		} else {
			c.trayWindow.Show()
			c.trayWindow.RequestFocus()
		}
		c.visible = !c.visible
	})
}

// createTrayWindow renders the tray menu as a column of buttons.
func (c *chromeOS) createTrayWindow(app fyne.App, ra *RetouchApp) {
	w := app.NewWindow(config.AppName + " Tray")
	w.SetUndecorated(true)

	var items []fyne.CanvasObject
	if ra.trayMenu != nil {
		for _, item := range ra.trayMenu.Items {
			if item.IsSeparator {
				items = append(items, widget.NewSeparator())
				continue
			}
			menuItem := item
			btn := widget.NewButton(menuItem.Label, func() {
				if menuItem.Action != nil {
					menuItem.Action()
				}
				c.trayWindow.Hide()
				c.visible = false
			})
			items = append(items, btn)
		}
	}

	w.SetContent(container.NewPadded(container.NewVBox(items...)))

	// Wayland ignores window placement hints, so centered is the safe choice
	w.CenterOnScreen()

	c.trayWindow = w
}

// getOS returns the OS implementation for the current desktop.
func getOS() OS {
	// Crostini leaves this milestone marker in the container
	if _, err := os.Stat("/dev/.cros_milestone"); err == nil {
		return &chromeOS{}
	}
	return &linuxOS{}
}
