package extract

import (
	"bytes"
	"encoding/json"
)

// Kind reports the top-level shape of a Document.
type Kind int

const (
	// KindAbsent is the zero Document: nothing was recovered.
	KindAbsent Kind = iota
	// KindObject is a JSON object.
	KindObject
	// KindArray is a JSON array.
	KindArray
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "absent"
	}
}

// Document is a JSON object or array recovered from model output. The zero
// value is the absent document. Raw bytes are kept as parsed (compacted), so
// key order and number literals survive a round trip.
type Document struct {
	raw json.RawMessage
}

// NewDocument wraps already-valid JSON. It is intended for callers that hold
// JSON from a trusted source and want to feed it to the same consumers as
// Recover. Invalid input or top-level scalars yield ErrRecoveryFailed.
func NewDocument(data []byte) (Document, error) {
	return parseStrict(string(data))
}

// Raw returns the compact JSON text of the document, or nil when absent.
func (d Document) Raw() json.RawMessage {
	return d.raw
}

// IsAbsent reports whether nothing was recovered.
func (d Document) IsAbsent() bool {
	return len(d.raw) == 0
}

// Kind reports whether the document is an object, an array, or absent.
func (d Document) Kind() Kind {
	if d.IsAbsent() {
		return KindAbsent
	}
	switch d.raw[0] {
	case '{':
		return KindObject
	case '[':
		return KindArray
	default:
		return KindAbsent
	}
}

// Object returns the top-level members with their raw values. The second
// result is false when the document is not an object.
func (d Document) Object() (map[string]json.RawMessage, bool) {
	if d.Kind() != KindObject {
		return nil, false
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(d.raw, &members); err != nil {
		return nil, false
	}
	return members, true
}

// Array returns the top-level elements with their raw values. The second
// result is false when the document is not an array.
func (d Document) Array() ([]json.RawMessage, bool) {
	if d.Kind() != KindArray {
		return nil, false
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(d.raw, &elements); err != nil {
		return nil, false
	}
	return elements, true
}

// Value decodes the document into generic Go values. Numbers are returned as
// json.Number so integers beyond float64 precision are not rounded.
func (d Document) Value() (any, error) {
	if d.IsAbsent() {
		return nil, ErrRecoveryFailed
	}
	dec := json.NewDecoder(bytes.NewReader(d.raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// MarshalJSON emits the raw document; an absent document encodes as null.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.IsAbsent() {
		return []byte("null"), nil
	}
	return d.raw, nil
}
