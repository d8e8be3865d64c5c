package pathutil

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// Expand substitutes environment variables, resolves a leading "~" or "~/"
// against the home directory, and cleans the result. An empty or
// whitespace-only input expands to "".
func Expand(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(trimmed)
	switch {
	case expanded == "~":
		home, err := homeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		expanded = home
	case strings.HasPrefix(expanded, "~/"):
		home, err := homeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~/"))
	}

	return filepath.Clean(expanded), nil
}

// homeDir finds a usable home directory, rejecting values that are themselves
// unresolved tilde shorthands (seen with misconfigured $HOME).
func homeDir() (string, error) {
	if home, err := os.UserHomeDir(); err == nil && usableHome(home) {
		return strings.TrimSpace(home), nil
	}
	if current, err := user.Current(); err == nil && usableHome(current.HomeDir) {
		return strings.TrimSpace(current.HomeDir), nil
	}

	envHome := strings.TrimSpace(os.Getenv("HOME"))
	if envHome == "" {
		return "", fmt.Errorf("HOME is not set")
	}
	if !usableHome(envHome) {
		return "", fmt.Errorf("HOME is not fully resolved: %s", envHome)
	}
	return envHome, nil
}

func usableHome(home string) bool {
	trimmed := strings.TrimSpace(home)
	return trimmed != "" && trimmed != "~" && !strings.HasPrefix(trimmed, "~/")
}
