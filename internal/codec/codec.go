// Package codec converts a store's key/value mapping to and from bytes.
//
// All codecs share the JSON data model: values are normalised with Normalize
// before they are encoded, and decoded mappings only contain map[string]any,
// []any, float64, string, bool and nil.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned when a value cannot be represented.
	ErrUnsupported = errors.New("value is not serializable")

	// ErrCorrupt is returned when stored bytes do not decode to a mapping.
	ErrCorrupt = errors.New("data is corrupt")
)

// Codec encodes a whole mapping into a single file body.
type Codec interface {
	// Name is the format name used in configuration.
	Name() string
	// Ext is the backing file extension, without the dot.
	Ext() string
	Encode(m map[string]any) ([]byte, error)
	Decode(data []byte) (map[string]any, error)
}

// For returns the codec registered under name.
func For(name string) (Codec, error) {
	switch name {
	case "", JSONName:
		return JSON{}, nil
	case ProtoName:
		return Proto{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

// Normalize round-trips v through encoding/json so that the result uses the
// JSON data model. Channels, funcs, cyclic values and NaN fail with
// ErrUnsupported.
func Normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return out, nil
}

// Into decodes a normalised value into dst, which must be a non-nil pointer.
func Into(v any, dst any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding into %T: %w", dst, err)
	}
	return nil
}
