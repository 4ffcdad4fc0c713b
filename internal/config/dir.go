package config

import (
	"os"
	"path/filepath"
)

const appDirName = "hurldeck"

// Dir returns the directory holding the settings file. The OS config dir is
// preferred; a dot directory under HOME is the fallback when the platform
// gives us nothing.
func Dir() string {
	if base, err := os.UserConfigDir(); err == nil && base != "" {
		return filepath.Join(base, appDirName)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, "."+appDirName)
	}
	return "." + appDirName
}

// DefaultDataDir is where the workspace lives unless the flag or settings
// say otherwise.
func DefaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, appDirName)
	}
	return appDirName
}
