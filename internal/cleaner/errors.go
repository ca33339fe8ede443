package cleaner

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"syscall"
)

// ErrFileInUse is reported when another process holds a file open
var ErrFileInUse = errors.New("file is in use by another process")

// ErrorReason categorizes why a file operation failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorIsDirectory
	ErrorInvalidPath
	ErrorPathUnavailable
	ErrorUnexpectedIO
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorIsDirectory:
		return "Is a directory"
	case ErrorInvalidPath:
		return "Invalid path"
	case ErrorPathUnavailable:
		return "Path unavailable"
	case ErrorUnexpectedIO:
		return "I/O error"
	default:
		return "Unspecified error"
	}
}

// DeletionError represents a failed delete or move of a single file
type DeletionError struct {
	Path     string
	Op       string
	Reason   ErrorReason
	Original error
}

// Error implements the error interface
func (e *DeletionError) Error() string {
	if e.Original == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Reason)
	}
	return fmt.Sprintf("%s %s: %s (%v)", e.Op, e.Path, e.Reason, e.Original)
}

// Unwrap returns the underlying error
func (e *DeletionError) Unwrap() error {
	return e.Original
}

// Is lets errors.Is(err, ErrFileInUse) match any in-use failure
func (e *DeletionError) Is(target error) bool {
	return target == ErrFileInUse && e.Reason == ErrorFileInUse
}

// UserMessage returns a user-friendly error message
func (e *DeletionError) UserMessage() string {
	switch e.Reason {
	case ErrorPermissionDenied:
		return fmt.Sprintf("⚠️  Permission denied: %s", e.Path)
	case ErrorFileInUse:
		return fmt.Sprintf("⚠️  File is being used: %s (close the application and try again)", e.Path)
	case ErrorFileNotFound:
		return fmt.Sprintf("ℹ️  Already deleted: %s", e.Path)
	case ErrorIsDirectory:
		return fmt.Sprintf("⚠️  Cannot delete directory: %s", e.Path)
	case ErrorInvalidPath:
		return fmt.Sprintf("❌ Invalid or unsafe path: %s", e.Path)
	case ErrorPathUnavailable:
		return fmt.Sprintf("ℹ️  Path unavailable: %s", e.Path)
	default:
		return fmt.Sprintf("❌ Error processing %s: %v", e.Path, e.Original)
	}
}

// CategorizeError analyzes an error and returns a categorized DeletionError
func CategorizeError(path, op string, err error) *DeletionError {
	if err == nil {
		return nil
	}

	var existing *DeletionError
	if errors.As(err, &existing) {
		return existing
	}

	delErr := &DeletionError{
		Path:     path,
		Op:       op,
		Original: err,
		Reason:   ErrorUnexpectedIO,
	}

	switch {
	case errors.Is(err, ErrFileInUse):
		delErr.Reason = ErrorFileInUse
		return delErr
	case errors.Is(err, fs.ErrNotExist):
		delErr.Reason = ErrorFileNotFound
		return delErr
	case errors.Is(err, fs.ErrPermission):
		delErr.Reason = ErrorPermissionDenied
		return delErr
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if reason, ok := classifyErrno(errno); ok {
			delErr.Reason = reason
		}
	}

	return delErr
}

// GroupErrors groups deletion errors by reason
func GroupErrors(errs []*DeletionError) map[ErrorReason][]*DeletionError {
	grouped := make(map[ErrorReason][]*DeletionError)
	for _, err := range errs {
		grouped[err.Reason] = append(grouped[err.Reason], err)
	}
	return grouped
}

// FormatErrorSummary creates a user-friendly summary of errors
func FormatErrorSummary(errs []*DeletionError) string {
	if len(errs) == 0 {
		return ""
	}

	grouped := GroupErrors(errs)
	reasons := make([]ErrorReason, 0, len(grouped))
	for reason := range grouped {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

	var b strings.Builder
	b.WriteString("\n⚠️  Issues encountered:\n")
	for i, reason := range reasons {
		branch := "├─"
		if i == len(reasons)-1 {
			branch = "└─"
		}
		fmt.Fprintf(&b, "   %s %s: %d files\n", branch, reason, len(grouped[reason]))
		switch reason {
		case ErrorFileInUse:
			b.WriteString("   │  └─ Tip: Close applications and retry\n")
		case ErrorPermissionDenied:
			b.WriteString("   │  └─ Tip: Run from an elevated prompt\n")
		}
	}

	return b.String()
}
