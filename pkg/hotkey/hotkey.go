package hotkey

import (
	"time"

	"golang.design/x/hotkey"

	"github.com/dixieflatline76/Retouch/pkg/batch"
	"github.com/dixieflatline76/Retouch/util/log"
)

// StartListeners initializes and starts the global hotkey listeners.
// It registers shortcuts for showing the monitor window, cancelling the
// active run, and opening the output folder.
func StartListeners() {
	if !HasAccessibility() {
		log.Print("Accessibility permission missing, global shortcuts stay disabled")
		return
	}

	// Modifier and key constants come from the platform files, so macOS
	// gets Cmd+Option instead of Ctrl+Alt.
	hkShow := hotkey.New([]hotkey.Modifier{modCtrl, modAlt}, keyR)
	hkCancel := hotkey.New([]hotkey.Modifier{modCtrl, modAlt}, keyX)
	hkOutput := hotkey.New([]hotkey.Modifier{modCtrl, modAlt}, keyO)

	// Helper to register and listen
	registerAndListen := func(hk *hotkey.Hotkey, name string, action func()) {
		if err := hk.Register(); err != nil {
			log.Printf("Failed to register hotkey %s: %v", name, err)
			return
		}
		log.Printf("Registered hotkey: %s", name)

		go func() {
			for range hk.Keydown() {
				log.Debugf("Hotkey pressed: %s", name)
				action()
				// Simple debounce, the channel absorbs bursts reasonably well
				time.Sleep(200 * time.Millisecond)
			}
		}()
	}

	// Start listeners
	registerAndListen(hkShow, "Show Retouch", func() {
		bp := batch.GetInstance()
		if bp != nil {
			bp.ShowWindow()
		}
	})

	registerAndListen(hkCancel, "Cancel Batch", func() {
		bp := batch.GetInstance()
		if bp != nil {
			bp.CancelRun()
		}
	})

	registerAndListen(hkOutput, "Open Output Folder", func() {
		bp := batch.GetInstance()
		if bp != nil {
			bp.OpenOutputFolder()
		}
	})
}
