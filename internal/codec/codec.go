// Package codec implements the serializer contract (spec.md §6.1): every
// stored document carries `_t`/`_id`/`_dataset`/`_key` alongside the
// record's own Pascal-cased fields, encoded via
// go.mongodb.org/mongo-driver/bson. Concrete record types embed
// core.BaseRecord with a `bson:"-"` tag (so RecordMeta is never itself
// marshaled) and tag their own fields with their own Pascal-cased name,
// matching the spec's encoding table directly rather than relying on any
// particular driver-default casing convention. Field values themselves are
// encoded with the bson driver's defaults: the LocalDate/LocalTime/
// LocalMinute/LocalDateTime integer encodings are not applied here.
package codec

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tempstore/internal/core"
	"tempstore/internal/registry"
)

const (
	fieldType    = "_t"
	fieldID      = "_id"
	fieldDataset = "_dataset"
	fieldKey     = "_key"

	deletedRecordTypeName = "DeletedRecord"
)

// Encode renders rec as a storage document carrying the four envelope
// fields plus every field the concrete type declares.
func Encode(rec core.Record) (bson.M, error) {
	doc := bson.M{}
	if rec.TypeName() != deletedRecordTypeName {
		data, err := bson.Marshal(rec)
		if err != nil {
			return nil, core.WrapError(core.KindStoreError, err, "encode %s", rec.TypeName())
		}
		if err := bson.Unmarshal(data, &doc); err != nil {
			return nil, core.WrapError(core.KindStoreError, err, "encode %s", rec.TypeName())
		}
	}
	doc[fieldType] = rec.TypeName()
	doc[fieldID] = rec.Meta().ID
	doc[fieldDataset] = rec.Meta().Dataset
	doc[fieldKey] = rec.KeyValue()
	return doc, nil
}

// Decode reconstructs a core.Record from a stored document, using the
// `_t` field to resolve the concrete type through the registry.
func Decode(doc bson.M) (core.Record, error) {
	typeName, ok := doc[fieldType].(string)
	if !ok || typeName == "" {
		return nil, core.NewError(core.KindStoreError, "stored document is missing %s", fieldType)
	}

	var rec core.Record
	if typeName == deletedRecordTypeName {
		key, _ := doc[fieldKey].(string)
		rec = &core.DeletedRecord{Key: key}
	} else {
		r, err := registry.NewRecord(typeName)
		if err != nil {
			return nil, err
		}
		data, err := bson.Marshal(doc)
		if err != nil {
			return nil, core.WrapError(core.KindStoreError, err, "decode %s", typeName)
		}
		if err := bson.Unmarshal(data, r); err != nil {
			return nil, core.WrapError(core.KindStoreError, err, "decode %s", typeName)
		}
		rec = r
	}

	id, ok := asTemporalId(doc[fieldID])
	if !ok {
		return nil, core.NewError(core.KindStoreError, "stored document is missing %s", fieldID)
	}
	dataset, _ := asTemporalId(doc[fieldDataset])
	rec.Meta().ID = id
	rec.Meta().Dataset = dataset
	return rec, nil
}

// DecodeKeyProjection extracts just the id and key string from a Phase 1
// (key discovery) projection document, without resolving a concrete
// record type. Used by internal/query's batched iterator.
func DecodeKeyProjection(doc bson.M) (id core.TemporalId, key string, err error) {
	id, ok := asTemporalId(doc[fieldID])
	if !ok {
		return core.TemporalId{}, "", core.NewError(core.KindStoreError, "projection is missing %s", fieldID)
	}
	key, _ = doc[fieldKey].(string)
	return id, key, nil
}

// DecodeDatasetKeyProjection extracts id, dataset and key from a Phase 2
// (latest resolution) projection document.
func DecodeDatasetKeyProjection(doc bson.M) (id, dataset core.TemporalId, key string, err error) {
	id, ok := asTemporalId(doc[fieldID])
	if !ok {
		return core.TemporalId{}, core.TemporalId{}, "", core.NewError(core.KindStoreError, "projection is missing %s", fieldID)
	}
	dataset, _ = asTemporalId(doc[fieldDataset])
	key, _ = doc[fieldKey].(string)
	return id, dataset, key, nil
}

// asTemporalId reads an envelope id field either as Encode wrote it or as
// the primitive.ObjectID a store's BSON round trip decodes it into.
func asTemporalId(v any) (core.TemporalId, bool) {
	if oid, ok := v.(primitive.ObjectID); ok {
		return core.TemporalId(oid), true
	}
	id, ok := v.(core.TemporalId)
	return id, ok
}

// FieldKey, FieldID, FieldDataset, FieldType expose the envelope field
// names to callers (internal/query, internal/datasource) that need to
// build $match/$project/$sort stages referencing them.
const (
	FieldKey     = fieldKey
	FieldID      = fieldID
	FieldDataset = fieldDataset
	FieldType    = fieldType
)
