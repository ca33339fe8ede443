package security

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// PathValidator decides whether a folder may be used as a cleanup root
type PathValidator struct {
	protectedPaths  []string
	caseInsensitive bool
}

// NewPathValidator creates a PathValidator for the running OS with its
// default protected paths plus any extra ones
func NewPathValidator(extra ...string) *PathValidator {
	return NewPathValidatorFor(runtime.GOOS, extra...)
}

// NewPathValidatorFor creates a PathValidator using the conventions of goos
func NewPathValidatorFor(goos string, extra ...string) *PathValidator {
	pv := &PathValidator{caseInsensitive: goos == "windows"}
	if goos == "windows" {
		pv.protectedPaths = []string{
			`C:\`,
			`C:\Windows`,
			`C:\Windows\System32`,
			`C:\Program Files`,
			`C:\Program Files (x86)`,
			`C:\Users`,
		}
	} else {
		pv.protectedPaths = []string{
			"/",
			"/bin",
			"/boot",
			"/dev",
			"/etc",
			"/lib",
			"/lib64",
			"/proc",
			"/root",
			"/sbin",
			"/sys",
			"/usr",
			"/var",
			"/System",
			"/Applications",
			"/Library/System",
		}
	}
	for _, p := range extra {
		pv.AddProtectedPath(p)
	}
	return pv
}

// ValidateRoot checks a candidate cleanup root. Roots that equal a protected
// path, or contain one, are refused. Folders nested under a protected path
// (C:\Windows\Temp) are allowed.
func (pv *PathValidator) ValidateRoot(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if !isAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	// Shell metacharacters have no business in a cache folder name
	dangerousChars := []string{";", "&", "|", "`", "<", ">", "\n", "\r"}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous characters: %s", path)
		}
	}

	if pv.IsProtectedPath(path) {
		return fmt.Errorf("refusing to clean protected path: %s", path)
	}

	return nil
}

// IsProtectedPath reports whether path equals a protected path or is an
// ancestor of one
func (pv *PathValidator) IsProtectedPath(path string) bool {
	key := pv.Key(path)
	for _, protected := range pv.protectedPaths {
		pkey := pv.Key(protected)
		if key == pkey || isAncestor(key, pkey) {
			return true
		}
	}
	return false
}

// AddProtectedPath adds a custom protected path
func (pv *PathValidator) AddProtectedPath(path string) {
	if path == "" {
		return
	}
	pv.protectedPaths = append(pv.protectedPaths, cleanPath(path))
}

// ProtectedPaths returns a copy of the protected path list
func (pv *PathValidator) ProtectedPaths() []string {
	out := make([]string, len(pv.protectedPaths))
	copy(out, pv.protectedPaths)
	return out
}

// Key returns the comparison key for path: cleaned, separator-normalised,
// and folded to lower case where the filesystem is case-insensitive
func (pv *PathValidator) Key(path string) string {
	key := cleanPath(path)
	if pv.caseInsensitive {
		key = strings.ToLower(key)
	}
	return key
}

// CaseInsensitive reports whether paths compare case-insensitively
func (pv *PathValidator) CaseInsensitive() bool {
	return pv.caseInsensitive
}

func cleanPath(path string) string {
	p := strings.ReplaceAll(path, `\`, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") && !strings.HasSuffix(p, ":/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func isAbs(path string) bool {
	if filepath.IsAbs(path) {
		return true
	}
	// Drive-letter paths are absolute regardless of the host OS
	return len(path) >= 3 && path[1] == ':' && (path[2] == '\\' || path[2] == '/')
}

// isAncestor reports whether parent is a strict ancestor of child. Both must
// already be keys.
func isAncestor(parent, child string) bool {
	if parent == child {
		return false
	}
	prefix := parent
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(child, prefix)
}
