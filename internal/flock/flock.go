// Package flock provides an exclusive advisory lock on a file, used to
// serialise read-modify-write cycles between processes sharing a store.
package flock

import (
	"errors"
	"fmt"
	"os"
	"time"

	"rehydrator/internal/fsutil"
)

// ErrTimeout is returned when the lock is still held by someone else after
// the acquisition timeout.
var ErrTimeout = errors.New("timed out waiting for file lock")

var pollInterval = 10 * time.Millisecond

// Lock is a held exclusive lock.
type Lock struct {
	f *os.File
}

// Acquire creates path if needed and blocks until an exclusive lock on it is
// held. A zero timeout waits forever.
func Acquire(path string, timeout time.Duration) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, fsutil.FilePerm)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		ok, err := tryLock(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("locking %s: %w", path, err)
		}
		if ok {
			return &Lock{f: f}, nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("%s: %w", path, ErrTimeout)
		}
		time.Sleep(pollInterval)
	}
}

// Release drops the lock. The lock file itself is left in place: removing it
// would let a waiter lock an unlinked inode while a newcomer locks a fresh one.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlock(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
