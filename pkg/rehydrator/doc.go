// Package rehydrator persists small values between separate runs of test
// automation.
//
// A store is a named file holding one mapping from string keys to JSON-like
// values. Stores are created lazily on the first write and live until
// [Store.Delete] removes them:
//
//	s, err := rehydrator.Open("tc_58731", rehydrator.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	done, err := s.Get("cleaned_up", false)
//
// # Default seeding
//
// [Store.Get] is not a pure read. When the key is missing it writes the
// default into the store first, so the first run establishes a baseline and
// later runs read the same value back. Use [Store.Load] or [Store.KeyExists]
// when no write must happen.
//
// # Formats
//
//   - json: one indented JSON object per store (default)
//   - proto: checksummed google.protobuf.Struct; truncation is detected
//   - bolt: bbolt database with one record per key
//
// None of the formats execute code on load. Values go through encoding/json
// before they are stored, so loaded numbers are float64 and structs come
// back as map[string]any; use [Store.LoadInto] for typed access.
//
// # Durability and locking
//
// Writes go to a temp file that is renamed over the store file, so readers
// never observe a partial write. Stores are not locked across processes by
// default; set [Options.Lock] when several processes share a store. The bolt
// format is always locked by bbolt itself.
//
// # Errors
//
//   - [ErrNotFound] - store or key does not exist ([ErrStoreNotFound], [ErrKeyNotFound])
//   - [ErrSerialization] - value cannot be encoded, or file cannot be decoded
//   - [ErrCorrupt] - store file is damaged (also matches ErrSerialization)
//   - [ErrLockTimeout] - another process kept the store locked too long
//   - [ErrInvalidName], [ErrInvalidKey], [ErrUnknownFormat] - bad arguments
//
// Filesystem failures are wrapped and still match fs.ErrPermission and friends.
package rehydrator
