package util

import (
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ExpandPath resolves a leading ~ to the current user's home directory.
func ExpandPath(path string) (string, error) {
	return homedir.Expand(strings.TrimSpace(path))
}

// MissingEnv returns the names from keys whose environment variable is unset
// or blank.
func MissingEnv(keys ...string) []string {
	var missing []string
	for _, key := range keys {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
