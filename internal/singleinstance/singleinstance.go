// Package singleinstance keeps one PathSnap running per user.
package singleinstance

import (
	"errors"
	"strings"
	"sync"
)

// ErrAlreadyRunning is returned by TryLock when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Lock is held by the running instance. The operating system drops it when
// the process exits, so a crash never leaves a stale lock behind.
type Lock struct {
	name string

	mu      sync.Mutex
	release func() error
}

// TryLock takes the per-user lock called name: a lock file on unix, a
// named mutex on Windows. It never blocks.
func TryLock(name string) (*Lock, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("lock name is required")
	}
	release, err := acquire(name)
	if err != nil {
		return nil, err
	}
	return &Lock{name: name, release: release}, nil
}

// Name is the lock file path or mutex name.
func (l *Lock) Name() string {
	return l.name
}

// Release gives the lock up. Safe on a nil receiver and idempotent.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.release == nil {
		return nil
	}
	err := l.release()
	l.release = nil
	return err
}

// sanitize keeps ASCII letters and digits, replacing the rest with '_'.
func sanitize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		if r < 0x80 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
