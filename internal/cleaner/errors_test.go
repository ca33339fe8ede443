package cleaner

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		path   string
		reason ErrorReason
	}{
		{
			name:   "os.ErrNotExist",
			err:    os.ErrNotExist,
			path:   "/not/exist.txt",
			reason: ErrorFileNotFound,
		},
		{
			name:   "os.ErrPermission",
			err:    os.ErrPermission,
			path:   "/perm/denied.txt",
			reason: ErrorPermissionDenied,
		},
		{
			name:   "wrapped permission error",
			err:    fmt.Errorf("failed to remove: %w", os.ErrPermission),
			path:   "/wrapped/file.txt",
			reason: ErrorPermissionDenied,
		},
		{
			name:   "PathError wrapping not-exist",
			err:    &os.PathError{Op: "remove", Path: "/test/file.txt", Err: os.ErrNotExist},
			path:   "/test/file.txt",
			reason: ErrorFileNotFound,
		},
		{
			name:   "in use sentinel",
			err:    ErrFileInUse,
			path:   "/open/file.txt",
			reason: ErrorFileInUse,
		},
		{
			name:   "wrapped in use sentinel",
			err:    fmt.Errorf("%w: locked", ErrFileInUse),
			path:   "/open/file.txt",
			reason: ErrorFileInUse,
		},
		{
			name:   "generic error",
			err:    errors.New("disk on fire"),
			path:   "/some/file.txt",
			reason: ErrorUnexpectedIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delErr := CategorizeError(tt.path, "delete", tt.err)

			if delErr.Reason != tt.reason {
				t.Errorf("CategorizeError(%v) reason = %v, want %v", tt.err, delErr.Reason, tt.reason)
			}
			if delErr.Path != tt.path {
				t.Errorf("CategorizeError(%v) path = %s, want %s", tt.err, delErr.Path, tt.path)
			}
			if delErr.Op != "delete" {
				t.Errorf("CategorizeError(%v) op = %s, want delete", tt.err, delErr.Op)
			}
		})
	}
}

func TestCategorizeErrorNil(t *testing.T) {
	if delErr := CategorizeError("/nil/error/file.txt", "delete", nil); delErr != nil {
		t.Errorf("CategorizeError(nil) should return nil, got %v", delErr)
	}
}

func TestCategorizeErrorKeepsDeletionError(t *testing.T) {
	original := &DeletionError{Path: "/a", Op: "move", Reason: ErrorFileInUse, Original: ErrFileInUse}
	wrapped := fmt.Errorf("outer: %w", original)

	got := CategorizeError("/b", "delete", wrapped)
	if got != original {
		t.Errorf("expected the wrapped DeletionError to be returned, got %v", got)
	}
}

func TestDeletionErrorIsFileInUse(t *testing.T) {
	inUse := &DeletionError{Path: "/x", Op: "delete", Reason: ErrorFileInUse}
	if !errors.Is(inUse, ErrFileInUse) {
		t.Error("in-use DeletionError should match ErrFileInUse")
	}

	denied := &DeletionError{Path: "/x", Op: "delete", Reason: ErrorPermissionDenied, Original: os.ErrPermission}
	if errors.Is(denied, ErrFileInUse) {
		t.Error("permission DeletionError must not match ErrFileInUse")
	}
	if !errors.Is(denied, os.ErrPermission) {
		t.Error("DeletionError should unwrap to its original error")
	}
}

func TestDeletionError_Error(t *testing.T) {
	delErr := &DeletionError{
		Path:     "/test/file.txt",
		Op:       "delete",
		Reason:   ErrorPermissionDenied,
		Original: os.ErrPermission,
	}

	msg := delErr.Error()
	for _, want := range []string{"/test/file.txt", "delete", "Permission denied"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, should contain %q", msg, want)
		}
	}

	bare := &DeletionError{Path: "/p", Op: "move", Reason: ErrorFileInUse}
	if !strings.Contains(bare.Error(), "File is in use") {
		t.Errorf("Error() without original = %q", bare.Error())
	}
}

func TestErrorReasonString(t *testing.T) {
	tests := []struct {
		reason ErrorReason
		want   string
	}{
		{ErrorPermissionDenied, "Permission denied"},
		{ErrorFileInUse, "File is in use"},
		{ErrorFileNotFound, "File not found"},
		{ErrorIsDirectory, "Is a directory"},
		{ErrorInvalidPath, "Invalid path"},
		{ErrorPathUnavailable, "Path unavailable"},
		{ErrorUnexpectedIO, "I/O error"},
		{ErrorReason(99), "Unspecified error"},
	}

	for _, tt := range tests {
		if got := tt.reason.String(); got != tt.want {
			t.Errorf("ErrorReason(%d).String() = %q, want %q", tt.reason, got, tt.want)
		}
	}
}

func TestDeletionError_UserMessage(t *testing.T) {
	tests := []struct {
		name          string
		delErr        *DeletionError
		shouldContain string
	}{
		{
			name:          "permission denied",
			delErr:        &DeletionError{Path: "/test/file.txt", Reason: ErrorPermissionDenied, Original: os.ErrPermission},
			shouldContain: "Permission denied",
		},
		{
			name:          "file in use",
			delErr:        &DeletionError{Path: "/test/open.txt", Reason: ErrorFileInUse, Original: ErrFileInUse},
			shouldContain: "being used",
		},
		{
			name:          "file not found",
			delErr:        &DeletionError{Path: "/test/missing.txt", Reason: ErrorFileNotFound, Original: os.ErrNotExist},
			shouldContain: "Already deleted",
		},
		{
			name:          "unexpected",
			delErr:        &DeletionError{Path: "/test/odd.txt", Reason: ErrorUnexpectedIO, Original: errors.New("boom")},
			shouldContain: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.delErr.UserMessage()
			if !strings.Contains(result, tt.shouldContain) {
				t.Errorf("UserMessage() = %s, should contain %s", result, tt.shouldContain)
			}
		})
	}
}

func TestGroupErrors(t *testing.T) {
	errs := []*DeletionError{
		{Path: "/a", Reason: ErrorFileInUse},
		{Path: "/b", Reason: ErrorFileInUse},
		{Path: "/c", Reason: ErrorPermissionDenied},
	}

	grouped := GroupErrors(errs)
	if len(grouped[ErrorFileInUse]) != 2 {
		t.Errorf("expected 2 in-use errors, got %d", len(grouped[ErrorFileInUse]))
	}
	if len(grouped[ErrorPermissionDenied]) != 1 {
		t.Errorf("expected 1 permission error, got %d", len(grouped[ErrorPermissionDenied]))
	}
	if len(GroupErrors(nil)) != 0 {
		t.Error("grouping no errors should be empty")
	}
}

func TestFormatErrorSummary(t *testing.T) {
	if FormatErrorSummary(nil) != "" {
		t.Error("expected empty summary for no errors")
	}

	summary := FormatErrorSummary([]*DeletionError{
		{Path: "/a", Reason: ErrorFileInUse},
		{Path: "/b", Reason: ErrorFileInUse},
		{Path: "/c", Reason: ErrorUnexpectedIO},
	})

	for _, want := range []string{"File is in use: 2 files", "I/O error: 1 files", "Close applications"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary should contain %q:\n%s", want, summary)
		}
	}
	if !strings.Contains(summary, "└─ I/O error") {
		t.Errorf("last group should use the closing branch:\n%s", summary)
	}
}
