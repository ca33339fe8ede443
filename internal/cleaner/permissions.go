package cleaner

import (
	"fmt"
	"os"
)

// IsSpecialFile checks if a path is a special file (device, socket, pipe)
// or a symlink. Symlinks are never followed.
func IsSpecialFile(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	reason := specialReason(info.Mode())
	return reason != nil, reason
}

func specialReason(mode os.FileMode) error {
	switch {
	case mode&os.ModeSymlink != 0:
		return fmt.Errorf("is a symlink")
	case mode&os.ModeCharDevice != 0:
		return fmt.Errorf("is a character device")
	case mode&os.ModeDevice != 0:
		return fmt.Errorf("is a device file")
	case mode&os.ModeSocket != 0:
		return fmt.Errorf("is a socket")
	case mode&os.ModeNamedPipe != 0:
		return fmt.Errorf("is a named pipe (FIFO)")
	case mode&os.ModeIrregular != 0:
		return fmt.Errorf("is an irregular file")
	}
	return nil
}

// IsSafeToDelete performs safety checks on a file before deletion
func IsSafeToDelete(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("refusing to delete directory as a file: %s", path)
	}
	if reason := specialReason(info.Mode()); reason != nil {
		return fmt.Errorf("refusing to delete special file: %w", reason)
	}
	return nil
}
