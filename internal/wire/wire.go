// Package wire implements the versioned binary envelope wrapped around every
// cached payload.
//
// Layout:
//
//	magic(4) | schema version(u32 le) | payload
//
// The magic and version are validated before the payload is exposed. A schema
// bump makes every existing entry decode to a VersionMismatchError, so stale
// entries get evicted instead of silently mis-decoded.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// SchemaVersion is the compiled schema version. Bump it on any breaking
// change to cached types; old entries are then rejected and recomputed.
const SchemaVersion uint32 = 1

const headerLen = 4 + 4

var (
	magic4 = [...]byte{'C', 'K', 'I', 'T'}

	// ErrInvalidEntry reports an envelope whose magic does not match.
	ErrInvalidEntry = errors.New("cachekit: invalid cache entry")

	// ErrTruncated reports bytes too short to carry an envelope header.
	ErrTruncated = errors.New("cachekit: truncated envelope")
)

// VersionMismatchError reports an envelope written under a different schema
// version. Expected during rolling deployments, not an operational incident.
type VersionMismatchError struct {
	Expected uint32
	Found    uint32
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("cachekit: cache version mismatch: expected %d, found %d", e.Expected, e.Found)
}

// Encode wraps payload in an envelope. Output is deterministic: the same
// payload always yields identical bytes.
func Encode(payload []byte) []byte {
	out := make([]byte, headerLen+len(payload))
	copy(out, magic4[:])
	binary.LittleEndian.PutUint32(out[4:], SchemaVersion)
	copy(out[headerLen:], payload)
	return out
}

// Decode validates the envelope and returns the payload. Validation order:
// header present, magic, version. The payload slice aliases b.
func Decode(b []byte) ([]byte, error) {
	if len(b) < headerLen {
		return nil, ErrTruncated
	}
	if !bytes.Equal(b[:4], magic4[:]) {
		return nil, ErrInvalidEntry
	}
	if v := binary.LittleEndian.Uint32(b[4:]); v != SchemaVersion {
		return nil, &VersionMismatchError{Expected: SchemaVersion, Found: v}
	}
	return b[headerLen:], nil
}
