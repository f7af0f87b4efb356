//go:build windows
// +build windows

package batch

import (
	"errors"

	"github.com/dixieflatline76/Retouch/util/log"
	"github.com/harry1453/go-common-file-dialog/cfd"
	"github.com/harry1453/go-common-file-dialog/cfdutil"
)

// hasNativeFolderDialog reports whether the OS ships a folder picker worth
// using over the Fyne one. Windows does.
func hasNativeFolderDialog() bool {
	return true
}

// pickFolderNative shows the Windows folder picker, starting from the last
// used folder. The bool result is false when the user cancels.
func pickFolderNative(initialFolder string) (string, bool) {
	folder, err := cfdutil.ShowPickFolderDialog(cfd.DialogConfig{
		Title:         "Select Image Folder",
		Role:          "RetouchSourceFolder",
		DefaultFolder: initialFolder,
	})
	if err != nil {
		if !errors.Is(err, cfd.ErrorCancelled) {
			log.Printf("Native folder dialog failed: %v", err)
		}
		return "", false
	}
	return folder, true
}
