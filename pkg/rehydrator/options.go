package rehydrator

import (
	"fmt"
	"path/filepath"
	"time"

	"rehydrator/internal/config"
)

const maxNameLen = 200

// Options holds configuration for a Store.
type Options struct {
	// Dir holds the store files. Created with parents on first write.
	// Default: "rehydrator"
	Dir string

	// Prefix starts every store file name: <Dir>/<Prefix>_<name>.<ext>.
	// Default: "rehydrator"
	Prefix string

	// Format is json, proto or bolt.
	// Default: "json"
	Format string

	// Lock holds an exclusive lock on <file>.lock across each operation.
	// Needed only when several processes use the same store at once.
	Lock bool

	// LockTimeout bounds lock acquisition. Zero waits forever.
	// Default: 5s
	LockTimeout time.Duration
}

// DefaultOptions returns the options used by OpenDefault.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Defaults().Store)
}

// OptionsFromConfig maps the [store] section of a config file to Options.
func OptionsFromConfig(c config.StoreConfig) Options {
	return Options{
		Dir:         c.Dir,
		Prefix:      c.Prefix,
		Format:      c.Format,
		Lock:        c.Lock,
		LockTimeout: c.LockTimeout,
	}
}

// withDefaults fills zero values from DefaultOptions.
func (o Options) withDefaults() Options {
	def := config.Defaults().Store
	if o.Dir == "" {
		o.Dir = def.Dir
	}
	if o.Prefix == "" {
		o.Prefix = def.Prefix
	}
	if o.Format == "" {
		o.Format = def.Format
	}
	if o.LockTimeout < 0 {
		o.LockTimeout = 0
	}
	return o
}

// ValidateName reports whether name can be used as a store name: 1 to 200
// characters from [A-Za-z0-9._-], and not "." or "..".
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, maxNameLen)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return fmt.Errorf("%w: character %q not allowed in %q", ErrInvalidName, r, name)
		}
	}
	return nil
}

// FilePath returns the backing file path for a store. ext has no dot.
func FilePath(dir, prefix, name, ext string) string {
	return filepath.Join(dir, prefix+"_"+name+"."+ext)
}
