//go:build !windows
// +build !windows

package batch

// hasNativeFolderDialog reports whether the OS ships a folder picker worth
// using over the Fyne one. Outside Windows the Fyne dialog is used.
func hasNativeFolderDialog() bool {
	return false
}

// pickFolderNative is never reached off Windows.
func pickFolderNative(string) (string, bool) {
	return "", false
}
