package util

import (
	"os"
	"path/filepath"
	"strings"
)

// DataDir is where app keeps its database, config and log.
func DataDir(app string) string {
	if base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); base != "" {
		return filepath.Join(base, app)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", app)
	}
	return filepath.Join(home, ".local", "share", app)
}

// EnsureDataDir creates DataDir(app) if missing and returns it.
func EnsureDataDir(app string) (string, error) {
	dir := DataDir(app)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// ExpandHome replaces a leading "~" or "$HOME" in a user supplied path.
func ExpandHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	switch {
	case path == "~":
		return home
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(home, path[2:])
	case strings.Contains(path, "$HOME"):
		return strings.ReplaceAll(path, "$HOME", home)
	}
	return path
}
