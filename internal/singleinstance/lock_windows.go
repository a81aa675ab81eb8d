//go:build windows

package singleinstance

import (
	"errors"
	"fmt"
	"os"
	"os/user"

	"golang.org/x/sys/windows"
)

// acquire creates the named mutex, owning it. A mutex that already exists
// belongs to another instance in this session.
func acquire(name string) (func() error, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("mutex name %q: %w", name, err)
	}
	h, err := windows.CreateMutex(nil, true, p)
	if err == nil {
		return func() error { return windows.CloseHandle(h) }, nil
	}
	if h != 0 {
		windows.CloseHandle(h)
	}
	if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		return nil, ErrAlreadyRunning
	}
	return nil, fmt.Errorf("create mutex %s: %w", name, err)
}

// DefaultName is a mutex in the session namespace, one per user.
func DefaultName() string {
	name := os.Getenv("USERNAME")
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	return `Local\PathSnap-` + sanitize(name)
}
