package fusioncache

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
)

// Kind identifies one member of the closed set of cacheable value kinds.
type Kind int

const (
	KindString Kind = iota
	KindRecord
	KindList
	KindBytes
	KindImage
	KindBlob
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindRecord:
		return "record"
	case KindList:
		return "list"
	case KindBytes:
		return "bytes"
	case KindImage:
		return "image"
	case KindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// Value is the variant type accepted by the cache. The set of
// implementations is closed: String, Record, List, Bytes, Image and
// Blob. Each kind knows how to encode itself for the disk tier.
type Value interface {
	Kind() Kind
	encode() ([]byte, error)
}

// String is a plain text value.
type String string

// Record is a JSON object value.
type Record map[string]any

// List is a JSON array value.
type List []any

// Bytes is a raw byte buffer value.
type Bytes []byte

// Image is a decoded image value. It is stored as PNG on disk, so a
// disk round trip preserves pixels but not the original encoding.
type Image struct {
	image.Image
}

// Blob carries an opaque payload serialized with encoding/gob.
// Concrete payload types must be registered with gob.Register before a
// Blob crosses the disk tier.
type Blob struct {
	V any
}

func (String) Kind() Kind { return KindString }
func (Record) Kind() Kind { return KindRecord }
func (List) Kind() Kind   { return KindList }
func (Bytes) Kind() Kind  { return KindBytes }
func (Image) Kind() Kind  { return KindImage }
func (Blob) Kind() Kind   { return KindBlob }

func (v String) encode() ([]byte, error) { return []byte(v), nil }

func (v Record) encode() ([]byte, error) {
	data, err := json.Marshal(map[string]any(v))
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

func (v List) encode() ([]byte, error) {
	data, err := json.Marshal([]any(v))
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return data, nil
}

func (v Bytes) encode() ([]byte, error) { return v, nil }

func (v Image) encode() ([]byte, error) {
	if v.Image == nil {
		return nil, fmt.Errorf("encode image: nil image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, v.Image); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// blobEnvelope wraps the payload so gob records the concrete type of
// the interface field and decoding back into any succeeds.
type blobEnvelope struct {
	V any
}

func (v Blob) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(blobEnvelope{V: v.V}); err != nil {
		return nil, fmt.Errorf("encode blob: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeValue rebuilds a Value of the given kind from its disk encoding.
func decodeValue(kind Kind, data []byte) (Value, error) {
	switch kind {
	case KindString:
		return String(data), nil
	case KindRecord:
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
		}
		return Record(m), nil
	case KindList:
		var l []any
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
		}
		return List(l), nil
	case KindBytes:
		return Bytes(data), nil
	case KindImage:
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
		}
		return Image{Image: img}, nil
	case KindBlob:
		var env blobEnvelope
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
		}
		return Blob{V: env.V}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrCacheCorrupted, kind)
	}
}
