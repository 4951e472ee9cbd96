package codec

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const ProtoName = "proto"

// frame layout: magic | blake2b-256(payload) | payload
var protoMagic = []byte("RHY1")

const protoHeaderLen = 4 + blake2b.Size256

var marshalOpts = proto.MarshalOptions{Deterministic: true}

// Proto stores the mapping as a google.protobuf.Struct behind a checksummed
// header. Decoding never executes code, so files from other hosts are safe
// to read.
type Proto struct{}

func (Proto) Name() string { return ProtoName }
func (Proto) Ext() string  { return "pb" }

func (Proto) Encode(m map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	payload, err := marshalOpts.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	sum := blake2b.Sum256(payload)

	out := make([]byte, 0, protoHeaderLen+len(payload))
	out = append(out, protoMagic...)
	out = append(out, sum[:]...)
	out = append(out, payload...)
	return out, nil
}

func (Proto) Decode(data []byte) (map[string]any, error) {
	if len(data) < protoHeaderLen {
		return nil, fmt.Errorf("%w: short header (%d bytes)", ErrCorrupt, len(data))
	}
	if !bytes.Equal(data[:4], protoMagic) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[:4])
	}
	payload := data[protoHeaderLen:]
	sum := blake2b.Sum256(payload)
	if !bytes.Equal(sum[:], data[4:protoHeaderLen]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	var s structpb.Struct
	if err := proto.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return s.AsMap(), nil
}

// EncodeValue encodes a single value, for the bolt format that stores one
// record per key.
func (Proto) EncodeValue(v any) ([]byte, error) {
	pv, err := structpb.NewValue(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	data, err := marshalOpts.Marshal(pv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return data, nil
}

func (Proto) DecodeValue(data []byte) (any, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(data, &pv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return pv.AsInterface(), nil
}
