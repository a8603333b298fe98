package util

import (
	"os"
	"path/filepath"
)

// FindGitRoot walks up from start looking for a .git entry. When none is
// found the absolute form of start is returned.
func FindGitRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	origin := dir

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return origin, nil
		}
		dir = parent
	}
}
