// Package query implements the batched latest-per-key query engine
// (spec.md §4.7): a QueryBuilder that accumulates where/sort_by stages
// immutably, then a three-phase iterator (key discovery, latest
// resolution, materialization) that merges a dataset's own records with
// whatever its imports contribute, keeping at most BatchSize keys'
// worth of ids in memory at a time.
package query

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"tempstore/internal/codec"
	"tempstore/internal/core"
	"tempstore/internal/graph"
	"tempstore/internal/keytoken"
	"tempstore/internal/store"
)

// BatchSize bounds how many distinct keys the iterator resolves (§4.7).
// The iterator runs a single batch: once Phase 1 has seen BatchSize
// distinct keys it stops reading, and records for any further keys are
// not returned. See DESIGN.md.
const BatchSize = 1000

type sortField struct {
	field string
	desc  bool
}

// Builder implements core.QueryBuilder. It is an immutable value: every
// Where/SortBy/SortByDesc call returns a new Builder, never mutating the
// receiver, so a caller can branch a query into several variants from a
// shared prefix.
type Builder struct {
	collection store.Collection
	graph      *graph.Graph
	loadFrom   core.TemporalId

	wheres     []core.Predicate
	sortFields []sortField
	sorted     bool
	err        error
}

// NewBuilder opens a query builder over collection, scoped to loadFrom's
// dataset lookup list and effective cutoff. internal/datasource constructs
// one of these per GetQuery call.
func NewBuilder(collection store.Collection, g *graph.Graph, loadFrom core.TemporalId) *Builder {
	return &Builder{collection: collection, graph: g, loadFrom: loadFrom}
}

// NewBuilderWithError returns a Builder whose AsIterable always fails with
// err, for a DataSource.GetQuery call that hit a setup error (e.g. an
// unregistered record type) but whose interface signature has no error
// return of its own.
func NewBuilderWithError(err error) *Builder {
	return &Builder{err: err}
}

func (b *Builder) clone() *Builder {
	cp := *b
	cp.wheres = append([]core.Predicate(nil), b.wheres...)
	cp.sortFields = append([]sortField(nil), b.sortFields...)
	return &cp
}

// Where appends an equality/ordering predicate. A Where after a SortBy*
// call is an OrderingError, surfaced lazily from AsIterable so the
// builder's methods never need an error return of their own.
func (b *Builder) Where(p core.Predicate) core.QueryBuilder {
	cp := b.clone()
	if cp.err != nil {
		return cp
	}
	if cp.sorted {
		cp.err = core.NewError(core.KindOrderingError, "where cannot be appended after sort_by")
		return cp
	}
	p.Field = pascalCase(p.Field)
	p.Value = normalizeValue(p.Value)
	cp.wheres = append(cp.wheres, p)
	return cp
}

// SortBy appends ascending sort fields, secondary to any already present.
func (b *Builder) SortBy(fields ...string) core.QueryBuilder { return b.appendSort(fields, false) }

// SortByDesc appends descending sort fields, secondary to any already
// present.
func (b *Builder) SortByDesc(fields ...string) core.QueryBuilder { return b.appendSort(fields, true) }

func (b *Builder) appendSort(fields []string, desc bool) core.QueryBuilder {
	cp := b.clone()
	if cp.err != nil {
		return cp
	}
	for _, f := range fields {
		cp.sortFields = append(cp.sortFields, sortField{field: pascalCase(f), desc: desc})
	}
	cp.sorted = true
	return cp
}

// AsIterable resolves the builder's final constraints against the dataset
// graph and opens the Phase 1 cursor. The heavy lifting (Phase 2/3) runs
// lazily, the first time the returned iterator's Next is called.
func (b *Builder) AsIterable(ctx context.Context) (core.RecordIterator, error) {
	if b.err != nil {
		return nil, b.err
	}

	lookupList, err := b.graph.LookupList(ctx, b.loadFrom)
	if err != nil {
		return nil, err
	}
	cutoff, hasCutoff, err := b.graph.EffectiveCutoff(ctx, b.loadFrom)
	if err != nil {
		return nil, err
	}
	finalFilter := finalConstraintsFilter(lookupList, cutoff, hasCutoff)

	userFilter := bson.M{}
	for _, p := range b.wheres {
		applyPredicate(userFilter, p)
	}

	pipeline := []store.Stage{store.Match(mergeFilters(userFilter, finalFilter))}
	if b.sorted {
		pipeline = append(pipeline, store.Sort(sortSpec(b.sortFields)))
	}
	pipeline = append(pipeline, store.Project(bson.M{codec.FieldID: 1, codec.FieldKey: 1}))

	cur, err := b.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	return &iterator{collection: b.collection, phase1: cur, finalFilter: finalFilter}, nil
}

// finalConstraintsFilter builds the {_dataset ∈ lookup_list, _id <=
// cutoff?} filter every phase of the engine applies (§4.5).
func finalConstraintsFilter(lookupList []core.TemporalId, cutoff core.TemporalId, hasCutoff bool) bson.M {
	filter := bson.M{codec.FieldDataset: bson.M{"$in": lookupList}}
	if hasCutoff {
		filter[codec.FieldID] = bson.M{"$lte": cutoff}
	}
	return filter
}

// mergeFilters combines two $match filters conjunctively. Keys present in
// both are taken from b (finalFilter always wins over a user predicate
// naming the same field, which cannot legitimately happen since _id/_dataset/_key
// are not user-addressable fields).
func mergeFilters(a, b bson.M) bson.M {
	out := bson.M{}
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func applyPredicate(filter bson.M, p core.Predicate) {
	switch p.Op {
	case core.OpEq:
		filter[p.Field] = bson.M{"$eq": p.Value}
	case core.OpLt:
		filter[p.Field] = bson.M{"$lt": p.Value}
	case core.OpLte:
		filter[p.Field] = bson.M{"$lte": p.Value}
	case core.OpGt:
		filter[p.Field] = bson.M{"$gt": p.Value}
	case core.OpGte:
		filter[p.Field] = bson.M{"$gte": p.Value}
	case core.OpIn:
		values, _ := p.Value.([]any)
		filter[p.Field] = bson.M{"$in": values}
	}
}

func sortSpec(fields []sortField) bson.D {
	spec := make(bson.D, 0, len(fields))
	for _, f := range fields {
		dir := 1
		if f.desc {
			dir = -1
		}
		spec = append(spec, bson.E{Key: f.field, Value: dir})
	}
	return spec
}

// pascalCase upper-cases the field's leading rune, matching the storage
// naming every record field is encoded under (§6.1), so a caller can pass
// either casing and still hit the right document field.
func pascalCase(field string) string {
	if field == "" {
		return field
	}
	r := []rune(field)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] = r[0] - ('a' - 'A')
	}
	return string(r)
}

// normalizeValue maps a predicate literal to its integer encoding (§4.7):
// keytoken.LocalDate, LocalTime and LocalMinute values become their
// YYYYMMDD, HHMMSSMMM and HHMM integers, element-wise inside an $in list;
// everything else, LocalDateTime included, passes through unchanged.
// internal/codec does not write stored fields in this integer form.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case keytoken.LocalDate:
		return val.Year*10000 + val.Month*100 + val.Day
	case keytoken.LocalTime:
		return val.Hour*10000000 + val.Minute*100000 + val.Second*1000 + val.Millis
	case keytoken.LocalMinute:
		return val.Hour*100 + val.Minute
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
