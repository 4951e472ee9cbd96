package rehydrator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	berrors "go.etcd.io/bbolt"

	"rehydrator/internal/codec"
	"rehydrator/internal/store"
	boltstore "rehydrator/internal/store/bolt"
)

const boltFormat = "bolt"

var boltBucket = []byte("rehydrator")

// boltBackend stores one record per key in a bbolt file. Every operation
// opens the database for its own duration, so other processes can take
// turns; bbolt's file lock serialises them.
type boltBackend struct {
	path    string
	timeout time.Duration
	values  codec.Proto
}

func (b *boltBackend) exists() (bool, error) {
	return statExists(b.path)
}

func (b *boltBackend) open(readOnly bool) (store.Store, error) {
	st, err := boltstore.Open(b.path, boltstore.Options{Timeout: b.timeout, ReadOnly: readOnly})
	switch {
	case err == nil:
		return st, nil
	case errors.Is(err, berrors.ErrTimeout):
		return nil, fmt.Errorf("%w: %w", ErrLockTimeout, err)
	case errors.Is(err, berrors.ErrInvalid), errors.Is(err, berrors.ErrChecksum),
		errors.Is(err, berrors.ErrVersionMismatch):
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return nil, err
}

func (b *boltBackend) read(st store.Store) (map[string]any, error) {
	raw, err := st.Snapshot(boltBucket)
	if err != nil {
		return nil, fmt.Errorf("reading bolt bucket: %w", err)
	}
	m := make(map[string]any, len(raw))
	for k, data := range raw {
		v, err := b.values.DecodeValue(data)
		if err != nil {
			return nil, serializationErr(fmt.Errorf("key %q: %w", k, err))
		}
		m[k] = v
	}
	return m, nil
}

func (b *boltBackend) view(fn func(map[string]any, bool) error) error {
	ok, err := b.exists()
	if err != nil {
		return err
	}
	if !ok {
		return fn(nil, false)
	}
	st, err := b.open(true)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	m, err := b.read(st)
	if err != nil {
		return err
	}
	return fn(m, true)
}

func (b *boltBackend) update(fn func(map[string]any) (bool, error)) error {
	if err := os.MkdirAll(filepath.Dir(b.path), dirPerm); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}
	st, err := b.open(false)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	m, err := b.read(st)
	if err != nil {
		return err
	}
	changed, err := fn(m)
	if err != nil || !changed {
		return err
	}

	entries := make(map[string][]byte, len(m))
	for k, v := range m {
		data, err := b.values.EncodeValue(v)
		if err != nil {
			return serializationErr(fmt.Errorf("key %q: %w", k, err))
		}
		entries[k] = data
	}
	if err := st.Replace(boltBucket, entries); err != nil {
		return fmt.Errorf("writing bolt bucket: %w", err)
	}
	return nil
}

func (b *boltBackend) lookup(key string) (any, bool, bool, error) {
	ok, err := b.exists()
	if err != nil || !ok {
		return nil, false, false, err
	}
	st, err := b.open(true)
	if err != nil {
		return nil, false, false, err
	}
	defer func() { _ = st.Close() }()

	data, err := st.Get(boltBucket, []byte(key))
	if err != nil {
		return nil, false, true, fmt.Errorf("reading bolt key: %w", err)
	}
	if data == nil {
		return nil, false, true, nil
	}
	v, err := b.values.DecodeValue(data)
	if err != nil {
		return nil, false, true, serializationErr(fmt.Errorf("key %q: %w", key, err))
	}
	return v, true, true, nil
}

// put writes one key in its own transaction; the other keys are not read.
func (b *boltBackend) put(key string, v any) error {
	data, err := b.values.EncodeValue(v)
	if err != nil {
		return serializationErr(fmt.Errorf("key %q: %w", key, err))
	}
	if err := os.MkdirAll(filepath.Dir(b.path), dirPerm); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}
	st, err := b.open(false)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.Set(boltBucket, []byte(key), data); err != nil {
		return fmt.Errorf("writing bolt key: %w", err)
	}
	return nil
}

func (b *boltBackend) remove() error {
	return removeIfExists(b.path)
}
