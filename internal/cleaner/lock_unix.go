//go:build !windows

package cleaner

import (
	"errors"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// OpenExclusive opens path for read/write and takes a non-blocking exclusive
// flock on it. A conflicting lock is reported as ErrFileInUse. Closing the
// returned handle releases the lock. flock is advisory: a process that
// holds the file open without taking a lock is not detected.
func OpenExclusive(path string) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			return nil, ErrFileInUse
		}
		return nil, &os.PathError{Op: "flock", Path: path, Err: err}
	}

	return f, nil
}

// resetAttributes gives the owner read and write access again, the closest
// unix equivalent of setting a file's attributes back to normal
func resetAttributes(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode().Perm()|0600)
}

// resetDirAttributes makes a directory writable so its entries can be removed
func resetDirAttributes(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode().Perm()|0700)
}

func isReadOnly(info os.FileInfo) bool {
	return info.Mode().Perm()&0200 == 0
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

func classifyErrno(errno syscall.Errno) (ErrorReason, bool) {
	switch errno {
	case syscall.EACCES, syscall.EPERM, syscall.EROFS:
		return ErrorPermissionDenied, true
	case syscall.EBUSY, syscall.ETXTBSY, syscall.EWOULDBLOCK:
		return ErrorFileInUse, true
	case syscall.ENOENT:
		return ErrorFileNotFound, true
	case syscall.EISDIR, syscall.ENOTEMPTY:
		return ErrorIsDirectory, true
	case syscall.ENAMETOOLONG, syscall.ELOOP, syscall.EINVAL:
		return ErrorInvalidPath, true
	case syscall.ENOTDIR:
		return ErrorPathUnavailable, true
	}
	return ErrorUnexpectedIO, false
}
