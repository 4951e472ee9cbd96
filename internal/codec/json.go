package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const JSONName = "json"

// JSON stores the mapping as an indented JSON object.
type JSON struct{}

func (JSON) Name() string { return JSONName }
func (JSON) Ext() string  { return "json" }

func (JSON) Encode(m map[string]any) ([]byte, error) {
	if m == nil {
		m = map[string]any{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return append(data, '\n'), nil
}

func (JSON) Decode(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: top level is not an object", ErrCorrupt)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", ErrCorrupt)
	}
	return m, nil
}
