package core

import (
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// MarshalBSONValue renders id as a BSON ObjectID, the concrete wire
// encoding its 12-byte layout was chosen to match (see the TemporalId doc
// comment). This is what lets internal/store/mongo hand a TemporalId
// straight to the driver as a document's _id without a conversion step.
func (id TemporalId) MarshalBSONValue() (bsontype.Type, []byte, error) {
	b := make([]byte, 12)
	copy(b, id[:])
	return bsontype.ObjectID, b, nil
}

// UnmarshalBSONValue is the inverse of MarshalBSONValue.
func (id *TemporalId) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t != bsontype.ObjectID {
		return NewError(KindTypeMismatch, "expected BSON ObjectID for TemporalId, got %s", t)
	}
	if len(data) != 12 {
		return NewError(KindValidation, "BSON ObjectID payload must be 12 bytes, got %d", len(data))
	}
	copy(id[:], data)
	return nil
}
