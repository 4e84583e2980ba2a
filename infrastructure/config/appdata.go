package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

// appDataDir returns an operating system specific directory to be used for
// storing application data for an application. On Windows and macOS the
// application name is capitalized, elsewhere it is a hidden directory in
// the home directory of the current user.
func appDataDir(appName string) string {
	appName = strings.TrimPrefix(appName, ".")
	if appName == "" {
		return "."
	}
	appNameUpper := string(unicode.ToUpper(rune(appName[0]))) + appName[1:]

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData != "" {
			return filepath.Join(localAppData, appNameUpper)
		}
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, appNameUpper)
		}
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appNameUpper)
	}
	return filepath.Join(homeDir, "."+appName)
}
