package rehydrator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"rehydrator/internal/codec"
	"rehydrator/internal/logging"
)

var logger = logging.For("rehydrator")

// Store is a handle on one named store. Opening a handle does not touch the
// filesystem; the backing file appears on the first write. Handles are safe
// for concurrent use within a process.
type Store struct {
	name string
	path string
	opts Options

	mu  sync.Mutex
	be  backend
	log *slog.Logger
}

// Open returns a handle for the store called name. Zero fields in opts take
// their DefaultOptions values.
func Open(name string, opts Options) (*Store, error) {
	if err := ValidateName(name); err != nil {
		return nil, &Error{Op: "open", Store: name, Err: err}
	}
	opts = opts.withDefaults()
	be, path, err := newBackend(name, opts)
	if err != nil {
		return nil, &Error{Op: "open", Store: name, Err: err}
	}
	return &Store{
		name: name,
		path: path,
		opts: opts,
		be:   be,
		log:  logger.With("store", name),
	}, nil
}

// OpenDefault opens name with DefaultOptions.
func OpenDefault(name string) (*Store, error) {
	return Open(name, DefaultOptions())
}

// Name returns the store name.
func (s *Store) Name() string { return s.name }

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Options returns the effective options after defaults were applied.
func (s *Store) Options() Options { return s.opts }

// Exists reports whether the backing file exists. It does not read it.
func (s *Store) Exists() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.be.exists()
	if err != nil {
		return false, s.fail("exists", "", err)
	}
	return ok, nil
}

// Save stores value under key, replacing any previous value. The value is
// normalised through encoding/json; values it cannot marshal fail with
// ErrSerialization and leave the store untouched.
func (s *Store) Save(key string, value any) error {
	_, err := s.save(key, value)
	return err
}

func (s *Store) save(key string, value any) (any, error) {
	if err := validateKey(key); err != nil {
		return nil, s.fail("save", key, err)
	}
	norm, err := codec.Normalize(value)
	if err != nil {
		return nil, s.fail("save", key, fmt.Errorf("%w: %w", ErrSerialization, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.be.put(key, norm); err != nil {
		return nil, s.fail("save", key, err)
	}
	s.log.Debug("saved value", "key", key)
	return norm, nil
}

// Load returns the value stored under key. It fails with ErrStoreNotFound or
// ErrKeyNotFound, both matching ErrNotFound, when there is nothing to load.
func (s *Store) Load(key string) (any, error) {
	if err := validateKey(key); err != nil {
		return nil, s.fail("load", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, found, present, err := s.be.lookup(key)
	switch {
	case err != nil:
		return nil, s.fail("load", key, err)
	case !present:
		return nil, s.fail("load", key, ErrStoreNotFound)
	case !found:
		return nil, s.fail("load", key, ErrKeyNotFound)
	}
	s.log.Debug("loaded value", "key", key)
	return v, nil
}

// LoadInto loads key and decodes it into dst, which must be a non-nil pointer.
func (s *Store) LoadInto(key string, dst any) error {
	v, err := s.Load(key)
	if err != nil {
		return err
	}
	return s.decodeInto(key, v, dst)
}

func (s *Store) decodeInto(key string, v, dst any) error {
	if err := codec.Into(v, dst); err != nil {
		return s.fail("load", key, fmt.Errorf("%w: %w", ErrSerialization, err))
	}
	return nil
}

// Get returns the value stored under key. When the store or the key is
// missing, def is saved under key first and then returned.
//
// Get writes on first use. Repeated calls without an intervening Save return
// the same value, because only the first one seeds the default.
func (s *Store) Get(key string, def any) (any, error) {
	if err := validateKey(key); err != nil {
		return nil, s.fail("get", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		v      any
		seeded bool
	)
	err := s.be.update(func(m map[string]any) (bool, error) {
		if cur, ok := m[key]; ok {
			v = cur
			return false, nil
		}
		norm, err := codec.Normalize(def)
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrSerialization, err)
		}
		m[key] = norm
		v, seeded = norm, true
		return true, nil
	})
	if err != nil {
		return nil, s.fail("get", key, err)
	}
	if seeded {
		s.log.Info("seeded default value", "key", key)
	}
	return v, nil
}

// KeyExists reports whether key is stored. A missing store is not an error.
func (s *Store) KeyExists(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, s.fail("key_exists", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, found, _, err := s.be.lookup(key)
	if err != nil {
		return false, s.fail("key_exists", key, err)
	}
	return found, nil
}

// Keys returns the stored keys in sorted order. A missing store has none.
func (s *Store) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	err := s.be.view(func(m map[string]any, _ bool) error {
		keys = sortedKeys(m)
		return nil
	})
	if err != nil {
		return nil, s.fail("keys", "", err)
	}
	return keys, nil
}

// Unset removes key from the store. The store file stays in place even when
// it ends up empty. Missing stores and keys are a no-op.
func (s *Store) Unset(key string) error {
	if err := validateKey(key); err != nil {
		return s.fail("unset", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	present, err := s.be.exists()
	if err != nil {
		return s.fail("unset", key, err)
	}
	if !present {
		return nil
	}
	var removed bool
	err = s.be.update(func(m map[string]any) (bool, error) {
		if _, ok := m[key]; !ok {
			return false, nil
		}
		delete(m, key)
		removed = true
		return true, nil
	})
	if err != nil {
		return s.fail("unset", key, err)
	}
	if removed {
		s.log.Debug("unset key", "key", key)
	}
	return nil
}

// Delete removes the backing file. Deleting a missing store is a no-op.
func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	present, err := s.be.exists()
	if err != nil {
		return s.fail("delete", "", err)
	}
	if !present {
		return nil
	}
	if err := s.be.remove(); err != nil {
		return s.fail("delete", "", err)
	}
	s.log.Info("deleted store", "path", s.path)
	return nil
}

// Describe returns a human-readable dump of the store for diagnostics.
func (s *Store) Describe() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out string
	err := s.be.view(func(m map[string]any, present bool) error {
		if !present {
			out = fmt.Sprintf("store %q does not exist (%s)", s.name, s.path)
			return nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "store %q (%s, %d keys)", s.name, s.path, len(m))
		for _, k := range sortedKeys(m) {
			data, err := json.Marshal(m[k])
			if err != nil {
				data = []byte(fmt.Sprintf("%v", m[k]))
			}
			fmt.Fprintf(&b, "\n  %-20s = %s", k, data)
		}
		out = b.String()
		return nil
	})
	if err != nil {
		return fmt.Sprintf("store %q (%s) is unreadable: %v", s.name, s.path, err)
	}
	return out
}

func (s *Store) String() string {
	return s.Describe()
}

func (s *Store) fail(op, key string, err error) error {
	return &Error{Op: op, Store: s.name, Key: key, Err: err}
}

// validateKey rejects keys that a format could not store verbatim. JSON
// replaces invalid UTF-8 with U+FFFD, so such a key would not load back.
func validateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	case !utf8.ValidString(key):
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidKey, key)
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
