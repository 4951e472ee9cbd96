package rehydrator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"rehydrator/internal/codec"
	"rehydrator/internal/flock"
	"rehydrator/internal/fsutil"
)

const dirPerm = 0o755

// backend owns the physical representation of one store.
type backend interface {
	exists() (bool, error)
	// view calls fn with the stored mapping. present is false and m is nil
	// when the store does not exist.
	view(fn func(m map[string]any, present bool) error) error
	// update calls fn with the stored mapping (empty when absent) and
	// persists it when fn reports a change.
	update(fn func(m map[string]any) (changed bool, err error)) error
	// lookup reads a single key. present reports whether the store exists.
	lookup(key string) (v any, found, present bool, err error)
	// put stores v under key, creating the store when needed.
	put(key string, v any) error
	remove() error
}

func newBackend(name string, opts Options) (backend, string, error) {
	switch opts.Format {
	case codec.JSONName, codec.ProtoName:
		c, err := codec.For(opts.Format)
		if err != nil {
			return nil, "", err
		}
		path := FilePath(opts.Dir, opts.Prefix, name, c.Ext())
		return &fileBackend{
			path:        path,
			codec:       c,
			lock:        opts.Lock,
			lockTimeout: opts.LockTimeout,
		}, path, nil
	case boltFormat:
		path := FilePath(opts.Dir, opts.Prefix, name, "db")
		return &boltBackend{path: path, timeout: opts.LockTimeout}, path, nil
	}
	return nil, "", fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
}

// fileBackend keeps the whole mapping in one codec-encoded file and rewrites
// it atomically on every change.
type fileBackend struct {
	path        string
	codec       codec.Codec
	lock        bool
	lockTimeout time.Duration
}

func (b *fileBackend) exists() (bool, error) {
	return statExists(b.path)
}

// acquire takes the store lock when locking is enabled. With create unset a
// missing directory means there is nothing to guard and no lock is taken.
func (b *fileBackend) acquire(create bool) (*flock.Lock, error) {
	if !b.lock {
		return nil, nil
	}
	dir := filepath.Dir(b.path)
	if create {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
	} else if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	l, err := flock.Acquire(b.path+".lock", b.lockTimeout)
	if errors.Is(err, flock.ErrTimeout) {
		return nil, fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	return l, err
}

func (b *fileBackend) read() (map[string]any, bool, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading store file: %w", err)
	}
	m, err := b.codec.Decode(data)
	if err != nil {
		return nil, false, serializationErr(err)
	}
	return m, true, nil
}

func (b *fileBackend) view(fn func(map[string]any, bool) error) error {
	l, err := b.acquire(false)
	if err != nil {
		return err
	}
	defer func() { _ = l.Release() }()

	m, present, err := b.read()
	if err != nil {
		return err
	}
	return fn(m, present)
}

func (b *fileBackend) update(fn func(map[string]any) (bool, error)) error {
	l, err := b.acquire(true)
	if err != nil {
		return err
	}
	defer func() { _ = l.Release() }()

	m, present, err := b.read()
	if err != nil {
		return err
	}
	if !present {
		m = make(map[string]any)
	}
	changed, err := fn(m)
	if err != nil || !changed {
		return err
	}

	data, err := b.codec.Encode(m)
	if err != nil {
		return serializationErr(err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), dirPerm); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}
	return fsutil.WriteFileAtomic(b.path, data, fsutil.FilePerm)
}

func (b *fileBackend) lookup(key string) (v any, found, present bool, err error) {
	err = b.view(func(m map[string]any, ok bool) error {
		present = ok
		v, found = m[key]
		return nil
	})
	return v, found, present, err
}

func (b *fileBackend) put(key string, v any) error {
	return b.update(func(m map[string]any) (bool, error) {
		m[key] = v
		return true, nil
	})
}

func (b *fileBackend) remove() error {
	l, err := b.acquire(false)
	if err != nil {
		return err
	}
	defer func() { _ = l.Release() }()
	return removeIfExists(b.path)
}

func statExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking store file: %w", err)
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("removing store file: %w", err)
}

func serializationErr(err error) error {
	if errors.Is(err, codec.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return fmt.Errorf("%w: %w", ErrSerialization, err)
}
