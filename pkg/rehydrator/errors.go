package rehydrator

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrNotFound is returned by Load when the store or the key does not exist.
	ErrNotFound = errors.New("rehydrator: not found")

	// ErrStoreNotFound is returned when the backing file does not exist.
	ErrStoreNotFound = fmt.Errorf("%w: store does not exist", ErrNotFound)

	// ErrKeyNotFound is returned when the store exists but lacks the key.
	ErrKeyNotFound = fmt.Errorf("%w: key does not exist", ErrNotFound)

	// ErrSerialization is returned when a value cannot be encoded or decoded.
	ErrSerialization = errors.New("rehydrator: serialization failed")

	// ErrCorrupt is returned when the store file exists but cannot be decoded.
	ErrCorrupt = fmt.Errorf("%w: store file is corrupt", ErrSerialization)

	// ErrInvalidName is returned by Open for names unusable as a file name token.
	ErrInvalidName = errors.New("rehydrator: invalid store name")

	// ErrInvalidKey is returned for empty keys and keys that are not valid UTF-8.
	ErrInvalidKey = errors.New("rehydrator: invalid key")

	// ErrLockTimeout is returned when the store lock could not be taken in time.
	ErrLockTimeout = errors.New("rehydrator: timed out waiting for store lock")

	// ErrUnknownFormat is returned by Open for unsupported Options.Format values.
	ErrUnknownFormat = errors.New("rehydrator: unknown store format")
)

// Error describes a failed store operation.
type Error struct {
	Op    string
	Store string
	Key   string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Op + " store " + strconv.Quote(e.Store)
	if e.Key != "" {
		msg += " key " + strconv.Quote(e.Key)
	}
	return msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
