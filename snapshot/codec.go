package snapshot

import "encoding/json"

// Codec serializes payloads for storage. The payload slot is opaque to
// the store, so the caller chooses the representation.
type Codec[T any] interface {
	Marshal(payload T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

// JSONCodec is a ready-made Codec for any JSON-serializable payload type.
type JSONCodec[T any] struct{}

// Marshal implements Codec.
func (JSONCodec[T]) Marshal(payload T) ([]byte, error) {
	return json.Marshal(payload)
}

// Unmarshal implements Codec.
func (JSONCodec[T]) Unmarshal(data []byte) (T, error) {
	var payload T
	err := json.Unmarshal(data, &payload)
	return payload, err
}
