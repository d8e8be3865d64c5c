package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"

	wardenErrors "github.com/wardenhq/warden/internal/errors"
)

// ResolveRealPath expands a user-supplied path and resolves it to its real
// (symlink-free) location. For paths that do not exist yet, the parent
// directory is resolved and the literal filename appended, so symlinked
// ancestors are still followed. If resolution fails entirely, the expanded
// path is returned as a best-effort value; callers must still run the
// containment check against it.
func ResolveRealPath(path string) (string, error) {
	expanded, err := Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand path: %w", err)
	}
	if expanded == "" {
		return "", fmt.Errorf("empty path")
	}
	if !filepath.IsAbs(expanded) {
		if abs, err := filepath.Abs(expanded); err == nil {
			expanded = abs
		}
	}

	if real, err := filepath.EvalSymlinks(expanded); err == nil {
		return real, nil
	}

	// New-file case: resolve the parent, keep the leaf name literal.
	parent := filepath.Dir(expanded)
	if realParent, err := filepath.EvalSymlinks(parent); err == nil {
		return filepath.Join(realParent, filepath.Base(expanded)), nil
	}

	return expanded, nil
}

// CheckPathAllowed reports whether realPath sits inside one of the allowed
// directories. An empty allow list means unrestricted. Containment is
// computed on path components, not raw string prefixes, so /ws never admits
// /workspace2.
func CheckPathAllowed(realPath string, allowedDirs []string) error {
	if len(allowedDirs) == 0 {
		return nil
	}

	for _, dir := range allowedDirs {
		if isAncestor(dir, realPath) {
			return nil
		}
	}

	return fmt.Errorf("%s is outside allowed directories: %w", realPath, wardenErrors.ErrPathDenied)
}

func isAncestor(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
