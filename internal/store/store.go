package store

// Store is a bucketed byte key/value store. Buckets that do not exist read as
// empty; writes create them.
type Store interface {
	Get(bucket, key []byte) ([]byte, error)
	Set(bucket, key, value []byte) error
	// Snapshot copies every entry of bucket.
	Snapshot(bucket []byte) (map[string][]byte, error)
	// Replace swaps the whole content of bucket for entries in one transaction.
	Replace(bucket []byte, entries map[string][]byte) error
	Close() error
}
