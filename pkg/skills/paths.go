package skills

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveHomePath expands a leading "~" or "~/" to the user's home directory.
// Any other path, including an already absolute one, is returned unchanged.
func ResolveHomePath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(homeDir, path[1:])
}

// NormalizeName returns the case and whitespace insensitive lookup key for a skill name
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
