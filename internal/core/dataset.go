package core

// DataSet is a Record with a name and an ordered list of imports (§3.1). Its
// TemporalId doubles as its identity and as an upper bound on the
// visibility of records it contains: datasets saved after a caller's
// cutoff are elided from the lookup list entirely (§4.2/§4.3). A DataSet is
// stored in its *parent* dataset.
type DataSet struct {
	BaseRecord  `bson:"-"`
	Name        string       `bson:"Name"`
	Imports     []TemporalId `bson:"Imports"`
	NonTemporal bool         `bson:"NonTemporal"`
}

// TypeName identifies DataSet's serialized type and its storage collection
// (root type "DataSet", shared by every dataset regardless of parent).
func (d *DataSet) TypeName() string { return "DataSet" }

// KeyValue returns the dataset's name, its natural key: DataSetOf resolves
// a name to a TemporalId by looking up this key within a parent dataset.
func (d *DataSet) KeyValue() string { return d.Name }

// ToKey returns the DataSetKey this record is looked up by.
func (d *DataSet) ToKey() DataSetKey { return DataSetKey{Name: d.Name} }

// DataSetKey is the Key type bound to DataSet.
type DataSetKey struct {
	Name string
}

func (DataSetKey) TypeName() string { return "DataSetKey" }

func (k DataSetKey) KeyTokens() []string { return []string{k.Name} }

func (k *DataSetKey) ParseTokens(tokens []string) error {
	if len(tokens) != 1 {
		return NewError(KindValidation, "DataSetKey expects 1 token, got %d", len(tokens))
	}
	k.Name = tokens[0]
	return nil
}

// DataSetDetail carries per-dataset overrides that would otherwise require
// mutating an immutable DataSet: read-only and cutoff overrides (§3.1). It
// is keyed by the TemporalId of the dataset it describes and is stored in
// that dataset's parent.
type DataSetDetail struct {
	BaseRecord        `bson:"-"`
	DatasetId         TemporalId   `bson:"DatasetId"`
	ReadOnly          bool         `bson:"ReadOnly"`
	CutoffTime        *TemporalId  `bson:"CutoffTime,omitempty"`
	ImportsCutoffTime *TemporalId  `bson:"ImportsCutoffTime,omitempty"`
}

func (d *DataSetDetail) TypeName() string { return "DataSetDetail" }

func (d *DataSetDetail) KeyValue() string { return d.DatasetId.String() }

func (d *DataSetDetail) ToKey() DataSetDetailKey { return DataSetDetailKey{DatasetId: d.DatasetId} }

// DataSetDetailKey is the Key type bound to DataSetDetail.
type DataSetDetailKey struct {
	DatasetId TemporalId
}

func (DataSetDetailKey) TypeName() string { return "DataSetDetailKey" }

func (k DataSetDetailKey) KeyTokens() []string { return []string{k.DatasetId.String()} }

func (k *DataSetDetailKey) ParseTokens(tokens []string) error {
	if len(tokens) != 1 {
		return NewError(KindValidation, "DataSetDetailKey expects 1 token, got %d", len(tokens))
	}
	id, err := ParseTemporalId(tokens[0])
	if err != nil {
		return err
	}
	k.DatasetId = id
	return nil
}
