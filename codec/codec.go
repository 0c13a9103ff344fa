// Package codec defines the serialization boundary between the cache and
// its cold tier. The cold tier stores opaque byte slices; a Codec turns
// values into those bytes and back.
//
// The cache treats codec failures as data-path events, not caller errors:
// an encode failure skips the write, a decode failure marks the cold
// record corrupted (it is removed and the lookup resolves as a miss).
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Codec serializes values for cold-tier storage.
// Implementations must be safe for concurrent use.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// EncodeError wraps a failure to serialize a value.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("codec: encode: %v", e.Err) }
func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError wraps a failure to deserialize cold-tier bytes.
// Callers seeing this should treat the record as corrupted.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("codec: decode: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// jsonCodec is the default Codec, backed by encoding/json.
type jsonCodec[V any] struct{}

// JSON returns a Codec that serializes values as JSON. It handles any
// value encoding/json can marshal; callers with tighter formats plug in
// their own Codec instead.
func JSON[V any]() Codec[V] { return jsonCodec[V]{} }

func (jsonCodec[V]) Encode(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &EncodeError{Err: err}
	}
	return data, nil
}

func (jsonCodec[V]) Decode(data []byte) (V, error) {
	var v V
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, &DecodeError{Err: err}
	}
	return v, nil
}

// Raw is a pass-through Codec for []byte values. Encode copies the slice
// so the cold tier never aliases caller memory.
type Raw struct{}

func (Raw) Encode(v []byte) ([]byte, error) {
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (Raw) Decode(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

var _ Codec[[]byte] = Raw{}
