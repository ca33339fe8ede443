//go:build windows

package cleaner

import (
	"errors"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

type handleCloser windows.Handle

func (h handleCloser) Close() error {
	return windows.CloseHandle(windows.Handle(h))
}

// OpenExclusive opens path for read/write with a share mode of zero, so the
// open fails if any other handle to the file exists. A sharing or lock
// violation is reported as ErrFileInUse.
func OpenExclusive(path string) (io.Closer, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}

	h, err := windows.CreateFile(p,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0)
	if err != nil {
		if errors.Is(err, windows.ERROR_SHARING_VIOLATION) || errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
			return nil, ErrFileInUse
		}
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}

	return handleCloser(h), nil
}

// resetAttributes sets the file's attributes to FILE_ATTRIBUTE_NORMAL,
// clearing read-only, hidden and system flags
func resetAttributes(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	return windows.SetFileAttributes(p, windows.FILE_ATTRIBUTE_NORMAL)
}

func resetDirAttributes(path string) error {
	return resetAttributes(path)
}

func isReadOnly(info os.FileInfo) bool {
	return info.Mode().Perm()&0200 == 0
}

func isCrossDevice(err error) bool {
	return errors.Is(err, windows.ERROR_NOT_SAME_DEVICE)
}

func classifyErrno(errno syscall.Errno) (ErrorReason, bool) {
	switch errno {
	case windows.ERROR_ACCESS_DENIED, windows.ERROR_WRITE_PROTECT:
		return ErrorPermissionDenied, true
	case windows.ERROR_SHARING_VIOLATION, windows.ERROR_LOCK_VIOLATION, windows.ERROR_USER_MAPPED_FILE:
		return ErrorFileInUse, true
	case windows.ERROR_FILE_NOT_FOUND:
		return ErrorFileNotFound, true
	case windows.ERROR_PATH_NOT_FOUND, windows.ERROR_NOT_READY:
		return ErrorPathUnavailable, true
	case windows.ERROR_DIR_NOT_EMPTY:
		return ErrorIsDirectory, true
	case windows.ERROR_INVALID_NAME, windows.ERROR_FILENAME_EXCED_RANGE:
		return ErrorInvalidPath, true
	}
	return ErrorUnexpectedIO, false
}
