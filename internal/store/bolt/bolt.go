package bolt

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"rehydrator/internal/fsutil"
	"rehydrator/internal/store"
)

var _ store.Store = (*Store)(nil)

// Options controls how the database file is opened.
type Options struct {
	// Timeout bounds the wait for bbolt's file lock. Zero waits forever.
	Timeout time.Duration
	// ReadOnly takes a shared lock and rejects writes.
	ReadOnly bool
}

// Store implements store.Store on a bbolt file.
type Store struct {
	db *bolt.DB
}

// Open creates or opens a bbolt database at path. The parent directory must
// already exist.
func Open(path string, opts Options) (*Store, error) {
	db, err := bolt.Open(path, fsutil.FilePerm, &bolt.Options{
		Timeout:  opts.Timeout,
		ReadOnly: opts.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(bucket, key []byte) ([]byte, error) {
	var val []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			val = append([]byte{}, v...)
		}
		return nil
	})
	return val, err
}

func (s *Store) Set(bucket, key, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
		return b.Put(key, value)
	})
}

func (s *Store) Snapshot(bucket []byte) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			result[string(k)] = append([]byte{}, v...)
			return nil
		})
	})
	return result, err
}

func (s *Store) Replace(bucket []byte, entries map[string][]byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucket) != nil {
			if err := tx.DeleteBucket(bucket); err != nil {
				return fmt.Errorf("clearing bucket: %w", err)
			}
		}
		b, err := tx.CreateBucket(bucket)
		if err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
		for k, v := range entries {
			if err := b.Put([]byte(k), v); err != nil {
				return fmt.Errorf("writing %q: %w", k, err)
			}
		}
		return nil
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
