// Package codec defines payload serialization for cached entities. The
// expander wraps codec output in the versioned envelope; codecs never see the
// envelope themselves.
package codec

// Codec encodes/decodes values V to []byte for storage. Encoding must be
// deterministic: encoding the same value twice must yield identical bytes.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
