package rehydrator

import "fmt"

// Bucket is a handle on a single key of a Store. Buckets for the same key are
// interchangeable; the store file stays the source of truth.
type Bucket struct {
	store *Store
	key   string

	// Value is the last value read or written through this bucket.
	Value any
}

// Bucket returns a handle bound to key.
func (s *Store) Bucket(key string) *Bucket {
	return &Bucket{store: s, key: key}
}

// Key returns the bound key.
func (b *Bucket) Key() string { return b.key }

// Store returns the parent store.
func (b *Bucket) Store() *Store { return b.store }

// Get behaves like Store.Get, seeding def on first use.
func (b *Bucket) Get(def any) (any, error) {
	v, err := b.store.Get(b.key, def)
	if err != nil {
		return nil, err
	}
	b.Value = v
	return v, nil
}

// Set saves v under the bound key.
func (b *Bucket) Set(v any) error {
	norm, err := b.store.save(b.key, v)
	if err != nil {
		return err
	}
	b.Value = norm
	return nil
}

// Load behaves like Store.Load.
func (b *Bucket) Load() (any, error) {
	v, err := b.store.Load(b.key)
	if err != nil {
		return nil, err
	}
	b.Value = v
	return v, nil
}

// LoadInto decodes the stored value into dst.
func (b *Bucket) LoadInto(dst any) error {
	if _, err := b.Load(); err != nil {
		return err
	}
	return b.store.decodeInto(b.key, b.Value, dst)
}

// Exists reports whether the bound key is stored.
func (b *Bucket) Exists() (bool, error) {
	return b.store.KeyExists(b.key)
}

// Unset removes the bound key and clears Value.
func (b *Bucket) Unset() error {
	if err := b.store.Unset(b.key); err != nil {
		return err
	}
	b.Value = nil
	return nil
}

func (b *Bucket) String() string {
	return fmt.Sprintf("bucket %q of store %q: %v", b.key, b.store.name, b.Value)
}
