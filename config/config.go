package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// GetPath returns the path to the user's config directory. Callers that
// write into it are responsible for creating it.
func GetPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Error getting user home directory: %v", err)
	}
	return filepath.Join(homeDir, "."+strings.ToLower(AppName))
}
