package core

import "context"

// DataSource is the public contract every concrete store (internal/datasource
// carries the sole implementation, TemporalDataSource) must satisfy. It is
// the seam Record.Init hooks and Session convenience methods are written
// against, and the seam tests substitute a fake across.
type DataSource interface {
	// LoadOrNull opens the collection for typeName's root type and returns
	// the record stored at id, or nil if there is none, it is a
	// DeletedRecord, or its id is at or past the effective cutoff for its
	// own dataset (§4.4).
	LoadOrNull(ctx context.Context, typeName string, id TemporalId) (Record, error)

	// LoadOrNullByKey returns the latest non-deleted revision of key
	// visible through loadFrom and its transitive imports, or nil if none
	// is visible (including when the nearest match is a tombstone) (§4.4).
	LoadOrNullByKey(ctx context.Context, recordTypeName string, key Key, loadFrom TemporalId) (Record, error)

	// SaveMany allocates a fresh TemporalId for each record in input
	// order, assigns ID and Dataset, and inserts the batch (§4.6).
	SaveMany(ctx context.Context, records []Record, saveTo TemporalId) error

	// Delete writes a tombstone for key into deleteIn, always, even when
	// no live record exists there (§4.6).
	Delete(ctx context.Context, recordTypeName string, key Key, deleteIn TemporalId) error

	// GetQuery opens a query builder over recordTypeName's root type,
	// scoped to loadFrom's lookup list (§4.7).
	GetQuery(recordTypeName string, loadFrom TemporalId) QueryBuilder

	// CreateDataSet saves a new DataSet record (validating self-import)
	// into parent and returns its assigned TemporalId.
	CreateDataSet(ctx context.Context, name string, parent TemporalId, imports []TemporalId, nonTemporal bool) (TemporalId, error)

	// DataSetOf resolves name to a dataset's TemporalId by looking it up
	// in parent, or returns a NotFound error.
	DataSetOf(ctx context.Context, name string, parent TemporalId) (TemporalId, error)

	// IsReadOnly reports whether this data source instance rejects all
	// writes and allocator calls.
	IsReadOnly() bool

	// CutoffTime returns the data source's own cutoff, if any.
	CutoffTime() (id TemporalId, ok bool)
}
