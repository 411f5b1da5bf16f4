package config

import (
	"os"
	"path/filepath"
)

// FindProjectRoot walks up from dir looking for a .treescope/ directory
// and returns the directory containing it. The search stops at the user's
// home directory or the filesystem root.
func FindProjectRoot(dir string) (string, bool) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", false
		}
	}
	home, _ := os.UserHomeDir()

	for {
		marker := filepath.Join(dir, ".treescope")
		if info, err := os.Stat(marker); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

// FindConfig returns the path of the nearest .treescope/config.yaml above
// dir, if one exists.
func FindConfig(dir string) (string, bool) {
	root, ok := FindProjectRoot(dir)
	if !ok {
		return "", false
	}
	candidate := filepath.Join(root, ".treescope", "config.yaml")
	if _, err := os.Stat(candidate); err != nil {
		return "", false
	}
	return candidate, true
}
