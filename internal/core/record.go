package core

// RecordMeta carries the fields every Record has regardless of its payload:
// the identifier assigned on save and the dataset that owns it (§3.1).
type RecordMeta struct {
	ID      TemporalId
	Dataset TemporalId
}

// BaseRecord is embedded by concrete record types to get RecordMeta storage,
// a Meta accessor and a no-op Init hook for free. A concrete type still
// implements TypeName, KeyValue and (if it participates in typed lookups)
// ToKey itself — Go has no inheritance, so there is nothing else to
// default.
type BaseRecord struct {
	RecordMeta
}

// Meta returns a pointer to the record's identity/ownership fields so
// SaveMany can assign ID and Dataset in place.
func (b *BaseRecord) Meta() *RecordMeta { return &b.RecordMeta }

// Init is the default no-op Record lifecycle hook; concrete record types
// override it when they need to capture a back-reference to the Session
// they were loaded through.
func (b *BaseRecord) Init(*Session) error { return nil }

// Record is a Data that is a key-bearing, dataset-owned storage citizen.
// Concrete types embed BaseRecord and add TypeName/KeyValue (and ToKey, if
// they want typed lookups through TypedRecord).
type Record interface {
	Data
	Meta() *RecordMeta
	// KeyValue returns this record's external key string, computed from
	// the same fields the record's associated Key type carries.
	KeyValue() string
}

// Initializable is implemented by any Record (or BaseRecord, by default)
// exposing the save/load lifecycle hook described in §4.4/§4.6.
type Initializable interface {
	Init(s *Session) error
}

// TypedRecord pairs a Record with the concrete Key type it is looked up by,
// the Go-native substitute for the reference's parametric record<->key
// binding (spec.md §9).
type TypedRecord[K Key] interface {
	Record
	ToKey() K
}

// DeletedRecord is a Record whose only state is its key: a tombstone. A
// DeletedRecord returned by a lookup is equivalent to "not found" in the
// dataset it was read from, but it hides any earlier record with the same
// key visible through imported datasets (§4.4).
type DeletedRecord struct {
	BaseRecord `bson:"-"`
	Key        string `bson:"Key"`
}

// TypeName identifies DeletedRecord's serialized type. It shares its root
// type with whatever record type it tombstones (resolved by the registry
// from the record type the delete was issued against), so it always lands
// in the same collection as the record it shadows.
func (d *DeletedRecord) TypeName() string { return "DeletedRecord" }

// KeyValue returns the tombstoned record's key string.
func (d *DeletedRecord) KeyValue() string { return d.Key }
