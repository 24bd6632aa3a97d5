// Package store is the storage abstraction underneath internal/datasource
// (spec.md §6.1/§9): a thin aggregation-pipeline contract any persistent or
// in-memory backend can satisfy, the same role the teacher's internal/dialect
// package plays for SQL backends (one Generator/Parser pair per engine,
// picked up through an init()-time registry). Here there is one shape of
// backend instead of several SQL dialects, so the registry collapses to a
// single Backend type selector, but the Store/Collection/Cursor split keeps
// the same separation: a connection-level type, a per-collection handle, and
// a streaming result.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tempstore/internal/core"
)

// Stage is one step of an aggregation pipeline, expressed the way
// go.mongodb.org/mongo-driver represents it. A real backend hands Stage
// values straight to collection.Aggregate; the in-memory backend in
// internal/store/mem interprets the same shapes without a wire round trip.
type Stage = bson.D

// Match builds a $match stage from an equality/operator filter.
func Match(filter bson.M) Stage { return bson.D{{Key: "$match", Value: filter}} }

// Sort builds a $sort stage. fields is ordered field-name -> 1 (ascending)
// or -1 (descending) pairs; ordering matters for multi-field sorts so this
// takes a bson.D rather than a map.
func Sort(fields bson.D) Stage { return bson.D{{Key: "$sort", Value: fields}} }

// Limit builds a $limit stage.
func Limit(n int64) Stage { return bson.D{{Key: "$limit", Value: n}} }

// Skip builds a $skip stage.
func Skip(n int64) Stage { return bson.D{{Key: "$skip", Value: n}} }

// Project builds a $project stage. fields maps a document field name to an
// inclusion flag; internal/query uses this to pull only {_id, _key} (Phase
// 1) or {_id, _dataset, _key} (Phase 2) off the wire instead of whole
// documents (§4.7).
func Project(fields bson.M) Stage { return bson.D{{Key: "$project", Value: fields}} }

// Store is a handle to one logical database: a named group of collections
// plus the ability to drop the whole database (used by the CLI's
// drop-database operation and by test teardown). Identifiers are minted
// separately, by NewGenerator. Concrete backends: internal/store/mongo.Store (real MongoDB)
// and internal/store/mem.Store (deterministic in-process fake).
type Store interface {
	// Collection returns a handle to the named collection, creating it
	// lazily on first write if it does not yet exist.
	Collection(name string) Collection

	// DropDatabase deletes every collection in this database. Used by
	// `tstore db drop` and by integration test teardown; never called
	// from the request path.
	DropDatabase(ctx context.Context) error

	// Close releases any underlying connection. A no-op for the
	// in-memory backend.
	Close(ctx context.Context) error
}

// Collection is a handle to one named collection within a Store.
type Collection interface {
	// InsertOne inserts a single document.
	InsertOne(ctx context.Context, doc bson.M) error

	// InsertMany inserts a batch of documents in one round trip, used by
	// the write path's SaveMany (spec.md §4.6) so a multi-record save is
	// one network call instead of N.
	InsertMany(ctx context.Context, docs []bson.M) error

	// Aggregate runs pipeline and returns a streaming cursor over the
	// results. Every read path in internal/query and internal/datasource
	// goes through this one method; there is deliberately no separate Find,
	// so the in-memory backend only has to interpret one code path.
	Aggregate(ctx context.Context, pipeline []Stage) (Cursor, error)
}

// Cursor streams decoded documents one at a time. Callers must call Close
// once done, even after an error or early exit, to release backend
// resources (mirrors go.mongodb.org/mongo-driver/mongo.Cursor's contract).
type Cursor interface {
	// Next advances the cursor and reports whether a document is
	// available. It returns false at end of stream or on error; callers
	// must check Err to tell the two apart.
	Next(ctx context.Context) bool

	// Decode unmarshals the current document into v.
	Decode(v any) error

	// Err returns the first error encountered during iteration, or nil.
	Err() error

	// Close releases cursor resources.
	Close(ctx context.Context) error
}

// Deleter is an optional capability a Collection implementation may
// provide: physical removal of documents matching filter. Only
// non-temporal saves (spec.md §4.6/§9) need this — the rest of the store
// is append-only by design — so it is a separate, type-asserted interface
// rather than a required Collection method.
type Deleter interface {
	DeleteMany(ctx context.Context, filter bson.M) error
}

// Backend names one of the registered store implementations, selected by
// internal/config the way the teacher's dialect.Type selects a SQL engine.
type Backend string

const (
	BackendMongo Backend = "mongo"
	BackendMem   Backend = "mem"
)

// NewGenerator returns a core.Generator minting store-native ids by
// wrapping the driver's own primitive.NewObjectID(), the construction
// TemporalId's 12-byte layout was chosen to match (see the TemporalId doc
// comment in internal/core). It needs no live connection, so it is
// backend-neutral: internal/config wires it in ahead of either Store
// implementation. Tests that need deterministic ids supply their own
// core.Generator instead.
func NewGenerator() core.Generator {
	return func() core.TemporalId {
		oid := primitive.NewObjectID()
		var id core.TemporalId
		copy(id[:], oid[:])
		return id
	}
}

// NotFoundError builds the core.Error a Collection implementation should
// return when an operation's backend-level error really means "no such
// document", so callers never have to sniff backend-specific error types.
func NotFoundError(format string, args ...any) error {
	return core.NewError(core.KindNotFound, format, args...)
}
