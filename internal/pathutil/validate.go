// Package pathutil keeps backup and restore file operations inside
// configured directories.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RedactPath reduces a full path to .../<parent>/<basename> for error
// messages, e.g. "/srv/lumaura/backups/x.json.gz" becomes ".../backups/x.json.gz".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	base := filepath.Base(cleaned)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// ValidatePath checks that path lies inside one of allowedDirs after
// cleaning and symlink resolution. The file itself need not exist.
func ValidatePath(path string, allowedDirs []string) error {
	switch {
	case path == "":
		return fmt.Errorf("path validation failed: path is empty")
	case len(allowedDirs) == 0:
		return fmt.Errorf("path validation failed: no allowed directories configured")
	case strings.ContainsRune(path, '\x00'):
		return fmt.Errorf("path validation failed: path contains null byte")
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("path validation failed: cannot resolve absolute path: %w", err)
	}

	// Resolve the parent so a symlinked directory cannot point outside.
	resolvedDir, err := resolveExistingParent(filepath.Dir(absPath))
	if err != nil {
		return fmt.Errorf("path validation failed: cannot resolve parent directory: %w", err)
	}
	resolved := filepath.Join(resolvedDir, filepath.Base(absPath))

	for _, allowed := range allowedDirs {
		allowedAbs, err := filepath.Abs(filepath.Clean(allowed))
		if err != nil {
			continue
		}
		allowedResolved, err := resolveExistingParent(allowedAbs)
		if err != nil {
			continue
		}
		if isSubpath(resolved, allowedResolved) {
			return nil
		}
	}

	return fmt.Errorf("path validation failed: %q is outside allowed directories", RedactPath(absPath))
}

// resolveExistingParent resolves symlinks on the deepest existing ancestor
// of dir and re-appends the missing tail.
func resolveExistingParent(dir string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(dir))
	}

	resolvedParent, err := resolveExistingParent(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

// isSubpath reports whether path equals base or lies beneath it.
func isSubpath(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}

// AllowedBackupDirs returns the directories backups may be read from or
// written to: the configured backupDir and ~/.lumaura/backups.
func AllowedBackupDirs(backupDir string) []string {
	var dirs []string
	if backupDir != "" {
		dirs = append(dirs, backupDir)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(homeDir, ".lumaura", "backups"))
	}
	return dirs
}

// ResolveBackupFile turns a bare file name into a path inside backupDir and
// validates the result against AllowedBackupDirs.
func ResolveBackupFile(name, backupDir string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("backup file name is empty")
	}
	path := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) && !strings.ContainsRune(name, '/') {
		path = filepath.Join(backupDir, name)
	}
	if err := ValidatePath(path, AllowedBackupDirs(backupDir)); err != nil {
		return "", err
	}
	return path, nil
}
