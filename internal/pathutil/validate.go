// Package pathutil confines client-supplied file paths to known directories.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideAllowed reports a path that escapes every allowed directory.
var ErrOutsideAllowed = errors.New("path is outside allowed directories")

// Redact shortens a path to .../<parent>/<base> for error messages.
func Redact(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// Resolve makes path absolute, interpreting relative paths against root.
func Resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

// Confine checks that path lies inside one of allowed after symlinks are
// resolved. The file itself need not exist yet.
func Confine(path string, allowed []string) error {
	if path == "" {
		return errors.New("path is empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return errors.New("path contains null byte")
	}
	if len(allowed) == 0 {
		return errors.New("no allowed directories configured")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", Redact(path), err)
	}
	dir, err := resolveExisting(filepath.Dir(abs))
	if err != nil {
		return err
	}
	resolved := filepath.Join(dir, filepath.Base(abs))

	for _, a := range allowed {
		aAbs, err := filepath.Abs(a)
		if err != nil {
			continue
		}
		aResolved, err := resolveExisting(aAbs)
		if err != nil {
			continue
		}
		if within(resolved, aResolved) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrOutsideAllowed, Redact(abs))
}

// resolveExisting evaluates symlinks on the deepest existing ancestor of dir
// and re-appends the missing tail.
func resolveExisting(dir string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved, nil
	}
	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve %s", Redact(dir))
	}
	resolvedParent, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

func within(path, base string) bool {
	return path == base || strings.HasPrefix(path, base+string(os.PathSeparator))
}
