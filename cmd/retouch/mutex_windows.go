//go:build windows
// +build windows

package main

import (
	"errors"
	"syscall"

	"github.com/dixieflatline76/Retouch/config"
	"github.com/dixieflatline76/Retouch/util/log"
	"golang.org/x/sys/windows"
)

var (
	mutex windows.Handle
)

// acquireLock tries to acquire a single-instance lock (mutex on Windows).
func acquireLock() (bool, error) {
	namePtr, err := syscall.UTF16PtrFromString(config.AppName + "_SingleInstanceMutex")
	if err != nil {
		return false, err
	}

	mutex, err = windows.CreateMutex(nil, false, namePtr)
	if err != nil {
		// CreateMutex hands back the existing mutex along with this error
		if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
			windows.CloseHandle(mutex)
			mutex = 0
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// releaseLock releases the single-instance lock. The named mutex disappears
// with its last open handle.
func releaseLock() {
	if mutex != 0 { // Avoid closing a mutex that was never created
		if err := windows.CloseHandle(mutex); err != nil {
			log.Printf("Failed to close mutex handle: %v", err)
		}
		mutex = 0
	}
}
