//go:build windows

package testutil

import (
	"io"

	"golang.org/x/sys/windows"
)

type handle windows.Handle

func (h handle) Close() error { return windows.CloseHandle(windows.Handle(h)) }

func holdExclusive(path string) (io.Closer, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateFile(p,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0)
	if err != nil {
		return nil, err
	}
	return handle(h), nil
}
