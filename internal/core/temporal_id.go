package core

import (
	"encoding/binary"
	"encoding/hex"
	"time"
)

// TemporalId is a 12-byte totally ordered identifier carrying creation time
// in its high 4 bytes (seconds since the Unix epoch, UTC). It serves
// simultaneously as a primary key and a version token: comparing two
// TemporalIds byte-for-byte answers both "which is newer" and "which
// happened after".
//
// The layout matches go.mongodb.org/mongo-driver's primitive.ObjectID
// (4-byte timestamp, 5-byte process/random, 3-byte counter) so the
// reference MongoDB store can hand back its native _id unmodified; see
// internal/store/mongo.
type TemporalId [12]byte

// EmptyTemporalId is the all-zero sentinel, strictly less than every other
// TemporalId. It denotes the root dataset.
var EmptyTemporalId = TemporalId{}

// IsEmpty reports whether id is the root-dataset sentinel.
func (id TemporalId) IsEmpty() bool { return id == EmptyTemporalId }

// Compare returns -1, 0 or 1 as id is less than, equal to, or greater than
// other, comparing bytes in order (equivalent to comparing the embedded
// timestamp first, then the remaining disambiguating bytes).
func (id TemporalId) Compare(other TemporalId) int {
	for i := range id {
		if id[i] != other[i] {
			if id[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Less reports whether id sorts strictly before other.
func (id TemporalId) Less(other TemporalId) bool { return id.Compare(other) < 0 }

// LessOrEqual reports whether id sorts at or before other.
func (id TemporalId) LessOrEqual(other TemporalId) bool { return id.Compare(other) <= 0 }

// Seconds returns the embedded creation-time field: seconds since the Unix
// epoch, UTC.
func (id TemporalId) Seconds() uint32 {
	return binary.BigEndian.Uint32(id[0:4])
}

// Time returns the embedded creation time truncated to one-second
// resolution, the spec's documented cross-process ordering guarantee.
func (id TemporalId) Time() time.Time {
	return time.Unix(int64(id.Seconds()), 0).UTC()
}

// String renders id as 24 lowercase hex characters, the token form used in
// key strings (§3.1). A serialized document's _id carries the raw 12 bytes
// as a BSON ObjectID instead (see MarshalBSONValue).
func (id TemporalId) String() string {
	return hex.EncodeToString(id[:])
}

// ParseTemporalId parses a 24-character hex string back into a TemporalId.
// It is the inverse of String and is used when parsing a TemporalId key
// token or a hex id supplied by configuration or the CLI.
func ParseTemporalId(s string) (TemporalId, error) {
	if len(s) != 24 {
		return TemporalId{}, NewError(KindValidation, "temporal id %q must be 24 hex characters, got %d", s, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return TemporalId{}, WrapError(KindValidation, err, "temporal id %q is not valid hex", s)
	}
	var id TemporalId
	copy(id[:], b)
	return id, nil
}

// NewTemporalIdFromSeconds builds a TemporalId with the given timestamp and
// the remaining bytes set to low, used by tests that need deterministic,
// orderable ids without depending on a store's native allocator.
func NewTemporalIdFromSeconds(seconds uint32, low []byte) TemporalId {
	var id TemporalId
	binary.BigEndian.PutUint32(id[0:4], seconds)
	copy(id[4:], low)
	return id
}

// Generator produces a fresh, store-native TemporalId on each call. It is
// the seam between core (which only knows the 12-byte shape) and a
// concrete store backend (which knows how to mint one, e.g. by wrapping
// primitive.NewObjectID()). See internal/alloc for the monotonic allocator
// built on top of a Generator.
type Generator func() TemporalId
