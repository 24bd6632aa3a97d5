package datasource

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"tempstore/internal/alloc"
	"tempstore/internal/codec"
	"tempstore/internal/core"
	"tempstore/internal/graph"
	"tempstore/internal/query"
	"tempstore/internal/registry"
	"tempstore/internal/store"
)

// TemporalDataSource is the concrete core.DataSource (spec.md §4.4–§4.6):
// a store.Store for persistence, an alloc.Allocator for identifiers, a
// graph.Graph for dataset resolution, all bound together behind the one
// contract every Record.Init hook and Session convenience method is
// written against.
type TemporalDataSource struct {
	store    store.Store
	alloc    *alloc.Allocator
	graph    *graph.Graph
	log      core.Log
	readOnly bool
	cutoff   *core.TemporalId

	mu          sync.Mutex
	collections map[string]store.Collection
}

// New builds a TemporalDataSource over st, minting identifiers from gen.
// cutoff is the data source's own cutoff_time (§4.3); nil means unset.
// readOnly rejects every write and allocator call outright (§4.6).
func New(st store.Store, gen core.Generator, log core.Log, readOnly bool, cutoff *core.TemporalId) *TemporalDataSource {
	ds := &TemporalDataSource{
		store:       st,
		alloc:       alloc.New(gen, log),
		log:         log,
		readOnly:    readOnly,
		cutoff:      cutoff,
		collections: make(map[string]store.Collection),
	}
	ds.graph = graph.New(ds, cutoff)
	return ds
}

// collection returns the lazily-created store.Collection for rootType.
func (ds *TemporalDataSource) collection(rootType string) store.Collection {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	c, ok := ds.collections[rootType]
	if !ok {
		c = ds.store.Collection(rootType)
		ds.collections[rootType] = c
	}
	return c
}

// LoadOrNull implements core.DataSource (§4.4): a direct lookup by id,
// elided if the document is a tombstone or if its id is at or past the
// effective cutoff of the dataset it lives in.
func (ds *TemporalDataSource) LoadOrNull(ctx context.Context, typeName string, id core.TemporalId) (core.Record, error) {
	root, err := registry.RootType(typeName)
	if err != nil {
		return nil, err
	}
	coll := ds.collection(root)
	rec, found, err := findOne(ctx, coll, bson.M{codec.FieldID: id})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if rec.TypeName() == "DeletedRecord" {
		return nil, nil
	}

	cutoff, hasCutoff, err := ds.graph.EffectiveCutoff(ctx, rec.Meta().Dataset)
	if err != nil {
		return nil, err
	}
	if hasCutoff && id.Compare(cutoff) >= 0 {
		return nil, nil
	}

	if !registry.IsSubtype(rec.TypeName(), typeName) {
		return nil, core.NewError(core.KindTypeMismatch, "record %s is a %s, not a %s", id, rec.TypeName(), typeName)
	}
	if err := ds.init(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// LoadOrNullByKey implements core.DataSource (§4.4): the single-key analog
// of the batched query engine's latest-resolution phase — find the
// document for key in the nearest dataset of loadFrom's lookup list (the
// largest dataset id), taking the highest id within that dataset, subject
// to the effective cutoff.
func (ds *TemporalDataSource) LoadOrNullByKey(ctx context.Context, recordTypeName string, key core.Key, loadFrom core.TemporalId) (core.Record, error) {
	root, err := registry.RootType(recordTypeName)
	if err != nil {
		return nil, err
	}
	coll := ds.collection(root)

	lookupList, err := ds.graph.LookupList(ctx, loadFrom)
	if err != nil {
		return nil, err
	}
	cutoff, hasCutoff, err := ds.graph.EffectiveCutoff(ctx, loadFrom)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		codec.FieldKey:     core.Value(key),
		codec.FieldDataset: bson.M{"$in": lookupList},
	}
	if hasCutoff {
		filter[codec.FieldID] = bson.M{"$lte": cutoff}
	}

	pipeline := []store.Stage{
		store.Match(filter),
		store.Sort(bson.D{{Key: codec.FieldDataset, Value: -1}, {Key: codec.FieldID, Value: -1}}),
		store.Limit(1),
	}
	rec, found, err := aggregateOne(ctx, coll, pipeline)
	if err != nil {
		return nil, err
	}
	if !found || rec.TypeName() == "DeletedRecord" {
		return nil, nil
	}
	if !registry.IsSubtype(rec.TypeName(), recordTypeName) {
		return nil, core.NewError(core.KindTypeMismatch, "record keyed %q is a %s, not a %s", core.Value(key), rec.TypeName(), recordTypeName)
	}
	if err := ds.init(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SaveMany implements core.DataSource (§4.6): allocate a fresh id per
// record in input order, stamp it and saveTo onto the record, and insert
// the whole batch in one round trip. A non-temporal record type or
// dataset additionally compacts prior versions of each key out of saveTo
// first, as a storage optimization the read path does not depend on (every
// lookup already resolves to the highest id regardless).
func (ds *TemporalDataSource) SaveMany(ctx context.Context, records []core.Record, saveTo core.TemporalId) error {
	if len(records) == 0 {
		return nil
	}
	if err := ds.checkWritable(ctx, saveTo); err != nil {
		return err
	}

	root, err := registry.RootType(records[0].TypeName())
	if err != nil {
		return err
	}
	coll := ds.collection(root)

	nonTemporal, err := ds.isNonTemporalSave(ctx, records[0].TypeName(), saveTo)
	if err != nil {
		return err
	}

	docs := make([]bson.M, 0, len(records))
	for _, rec := range records {
		id := ds.alloc.Allocate()
		if !saveTo.Less(id) {
			return core.NewError(core.KindOrderViolation, "allocated id %s is not greater than dataset %s", id, saveTo)
		}
		rec.Meta().ID = id
		rec.Meta().Dataset = saveTo
		if err := ds.init(rec); err != nil {
			return err
		}

		if nonTemporal {
			if deleter, ok := coll.(store.Deleter); ok {
				if err := deleter.DeleteMany(ctx, bson.M{codec.FieldDataset: saveTo, codec.FieldKey: rec.KeyValue()}); err != nil {
					return err
				}
			}
		}

		doc, err := codec.Encode(rec)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	return coll.InsertMany(ctx, docs)
}

// isNonTemporalSave reports whether typeName's own registration or
// saveTo's dataset declares this save non-temporal (§4.6, §9).
func (ds *TemporalDataSource) isNonTemporalSave(ctx context.Context, typeName string, saveTo core.TemporalId) (bool, error) {
	if registry.IsNonTemporal(typeName) {
		return true, nil
	}
	dataSet, err := ds.graph.DataSet(ctx, saveTo)
	if err != nil {
		return false, err
	}
	return dataSet != nil && dataSet.NonTemporal, nil
}

// Delete implements core.DataSource (§4.6): write a tombstone for key into
// deleteIn, unconditionally — even when nothing currently resolves to key
// there, a delete always happens.
func (ds *TemporalDataSource) Delete(ctx context.Context, recordTypeName string, key core.Key, deleteIn core.TemporalId) error {
	if err := ds.checkWritable(ctx, deleteIn); err != nil {
		return err
	}
	root, err := registry.RootType(recordTypeName)
	if err != nil {
		return err
	}
	coll := ds.collection(root)

	id := ds.alloc.Allocate()
	if !deleteIn.Less(id) {
		return core.NewError(core.KindOrderViolation, "allocated id %s is not greater than dataset %s", id, deleteIn)
	}
	tomb := &core.DeletedRecord{Key: core.Value(key)}
	tomb.Meta().ID = id
	tomb.Meta().Dataset = deleteIn

	doc, err := codec.Encode(tomb)
	if err != nil {
		return err
	}
	return coll.InsertOne(ctx, doc)
}

// GetQuery implements core.DataSource (§4.7). A setup failure (an
// unregistered record type) is deferred into the returned builder, since
// core.QueryBuilder's methods carry no error return of their own.
func (ds *TemporalDataSource) GetQuery(recordTypeName string, loadFrom core.TemporalId) core.QueryBuilder {
	root, err := registry.RootType(recordTypeName)
	if err != nil {
		return query.NewBuilderWithError(err)
	}
	return query.NewBuilder(ds.collection(root), ds.graph, loadFrom)
}

// CreateDataSet implements core.DataSource: validate and save a new
// DataSet record into parent.
func (ds *TemporalDataSource) CreateDataSet(ctx context.Context, name string, parent core.TemporalId, imports []core.TemporalId, nonTemporal bool) (core.TemporalId, error) {
	if err := ds.checkWritable(ctx, parent); err != nil {
		return core.TemporalId{}, err
	}

	dataSet := &core.DataSet{Name: name, Imports: imports, NonTemporal: nonTemporal}
	id := ds.alloc.Allocate()
	if err := core.ValidateDataSet(dataSet, id); err != nil {
		return core.TemporalId{}, err
	}
	if !parent.Less(id) {
		return core.TemporalId{}, core.NewError(core.KindOrderViolation, "allocated id %s is not greater than parent dataset %s", id, parent)
	}
	dataSet.Meta().ID = id
	dataSet.Meta().Dataset = parent

	doc, err := codec.Encode(dataSet)
	if err != nil {
		return core.TemporalId{}, err
	}
	if err := ds.collection("DataSet").InsertOne(ctx, doc); err != nil {
		return core.TemporalId{}, err
	}
	return id, nil
}

// DataSetOf implements core.DataSource: resolve name within parent via the
// dataset graph.
func (ds *TemporalDataSource) DataSetOf(ctx context.Context, name string, parent core.TemporalId) (core.TemporalId, error) {
	id, found, err := ds.graph.DataSetOf(ctx, name, parent)
	if err != nil {
		return core.TemporalId{}, err
	}
	if !found {
		return core.TemporalId{}, core.NewError(core.KindNotFound, "no dataset named %q in %s", name, parent)
	}
	return id, nil
}

// IsReadOnly implements core.DataSource.
func (ds *TemporalDataSource) IsReadOnly() bool { return ds.readOnly }

// CutoffTime implements core.DataSource.
func (ds *TemporalDataSource) CutoffTime() (core.TemporalId, bool) {
	if ds.cutoff == nil {
		return core.TemporalId{}, false
	}
	return *ds.cutoff, true
}

// checkWritable enforces the four ways a write can be rejected (§4.6
// point 1): a globally read-only source, a source-level cutoff, a
// read-only dataset, or a dataset-level cutoff. A root-sentinel target
// skips the two dataset-level checks (the root dataset has no detail
// record), but is still subject to the source-level ones.
func (ds *TemporalDataSource) checkWritable(ctx context.Context, target core.TemporalId) error {
	if ds.readOnly {
		return core.NewError(core.KindReadOnly, "data source is read-only")
	}
	if ds.cutoff != nil {
		return core.NewError(core.KindReadOnly, "data source has an active cutoff")
	}
	if target.IsEmpty() {
		return nil
	}
	detail, err := ds.graph.Detail(ctx, target)
	if err != nil {
		return err
	}
	if detail == nil {
		return nil
	}
	if detail.ReadOnly {
		return core.NewError(core.KindReadOnly, "dataset %s is read-only", target)
	}
	if detail.CutoffTime != nil {
		return core.NewError(core.KindReadOnly, "dataset %s has an active cutoff", target)
	}
	return nil
}

// init runs a record's Init lifecycle hook, attaching a Session bound back
// to this data source, the dataset it was loaded from as its default, and
// its own log.
func (ds *TemporalDataSource) init(rec core.Record) error {
	initable, ok := rec.(core.Initializable)
	if !ok {
		return nil
	}
	return initable.Init(&core.Session{Source: ds, Dataset: rec.Meta().Dataset, Log: ds.log})
}
