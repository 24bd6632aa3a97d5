// Package datasource provides the sole concrete implementation of
// core.DataSource (spec.md §4.4/§4.5/§4.6): TemporalDataSource, which wires
// together internal/store, internal/graph, internal/alloc,
// internal/codec and internal/registry into the load/final-constraints/
// write paths. datasource.go adapts TemporalDataSource to
// internal/graph.Loader; temporal.go holds the DataSource methods proper.
package datasource

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"tempstore/internal/codec"
	"tempstore/internal/core"
	"tempstore/internal/store"
)

// LoadDataSet implements graph.Loader: fetch the DataSet record at id from
// its own collection. id is never the root sentinel; Graph handles that
// case itself before ever calling a Loader method.
func (ds *TemporalDataSource) LoadDataSet(ctx context.Context, id core.TemporalId) (*core.DataSet, error) {
	coll := ds.collection("DataSet")
	rec, found, err := findOne(ctx, coll, bson.M{codec.FieldID: id})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, core.NewError(core.KindNotFound, "no such dataset %s", id)
	}
	dataSet, ok := rec.(*core.DataSet)
	if !ok {
		return nil, core.NewError(core.KindTypeMismatch, "document %s is not a DataSet", id)
	}
	return dataSet, nil
}

// LoadDataSetDetail implements graph.Loader: fetch the DataSetDetail
// stored in parent for dataset id, keyed by id's string form, or nil if
// none exists.
func (ds *TemporalDataSource) LoadDataSetDetail(ctx context.Context, id, parent core.TemporalId) (*core.DataSetDetail, error) {
	coll := ds.collection("DataSetDetail")
	filter := bson.M{codec.FieldDataset: parent, codec.FieldKey: id.String()}
	rec, found, err := findLatest(ctx, coll, filter)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	detail, ok := rec.(*core.DataSetDetail)
	if !ok {
		return nil, core.NewError(core.KindTypeMismatch, "document keyed %q is not a DataSetDetail", id.String())
	}
	return detail, nil
}

// FindDataSetByName implements graph.Loader: resolve name within parent by
// matching the DataSet collection directly (this is a lookup of a dataset
// stored in parent, not a lookup-list traversal).
func (ds *TemporalDataSource) FindDataSetByName(ctx context.Context, name string, parent core.TemporalId) (core.TemporalId, bool, error) {
	coll := ds.collection("DataSet")
	filter := bson.M{codec.FieldDataset: parent, codec.FieldKey: name}
	rec, found, err := findLatest(ctx, coll, filter)
	if err != nil {
		return core.TemporalId{}, false, err
	}
	if !found {
		return core.TemporalId{}, false, nil
	}
	return rec.Meta().ID, true, nil
}

// findOne runs a {filter, limit 1} pipeline against coll and decodes the
// sole matching document, if any.
func findOne(ctx context.Context, coll store.Collection, filter bson.M) (core.Record, bool, error) {
	return aggregateOne(ctx, coll, []store.Stage{store.Match(filter), store.Limit(1)})
}

// findLatest runs a {filter, sort _id desc, limit 1} pipeline against coll
// and decodes the sole matching document, if any. Used everywhere a
// lookup is keyed by something other than _id and could in principle have
// more than one revision (a dataset or dataset-detail save is append-only
// like everything else in the store).
func findLatest(ctx context.Context, coll store.Collection, filter bson.M) (core.Record, bool, error) {
	pipeline := []store.Stage{
		store.Match(filter),
		store.Sort(bson.D{{Key: codec.FieldID, Value: -1}}),
		store.Limit(1),
	}
	return aggregateOne(ctx, coll, pipeline)
}

func aggregateOne(ctx context.Context, coll store.Collection, pipeline []store.Stage) (core.Record, bool, error) {
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		return nil, false, cur.Err()
	}
	var doc bson.M
	if err := cur.Decode(&doc); err != nil {
		return nil, false, err
	}
	rec, err := codec.Decode(doc)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}
