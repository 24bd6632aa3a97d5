package query

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson"

	"tempstore/internal/codec"
	"tempstore/internal/core"
	"tempstore/internal/store"
)

// iterator implements core.RecordIterator. It drives the Phase 1 cursor
// lazily: the first Next call reads Phase 1 until the cursor ends or
// BatchSize distinct keys have been seen, resolves those keys into an
// in-memory buffer of materialized records (Phase 2 + 3), then streams
// from that buffer. Only that one batch is resolved; keys beyond the first
// BatchSize are not returned.
type iterator struct {
	collection  store.Collection
	phase1      store.Cursor
	finalFilter bson.M

	buffer []core.Record
	pos    int
	filled bool
	closed bool
}

// Next returns the next record in emission order, or io.EOF once
// exhausted.
func (it *iterator) Next(ctx context.Context) (core.Record, error) {
	if !it.filled {
		if err := it.fill(ctx); err != nil {
			return nil, err
		}
	}
	if it.pos >= len(it.buffer) {
		return nil, io.EOF
	}
	rec := it.buffer[it.pos]
	it.pos++
	return rec, nil
}

// Close releases the Phase 1 cursor. Safe to call more than once.
func (it *iterator) Close() error {
	return it.closePhase1(context.Background())
}

func (it *iterator) closePhase1(ctx context.Context) error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.phase1.Close(ctx)
}

// fill runs Phase 1 (key discovery) to completion, then Phase 2 (latest
// resolution) and Phase 3 (materialization), populating it.buffer.
func (it *iterator) fill(ctx context.Context) error {
	it.filled = true
	defer it.closePhase1(ctx)

	batchIds := map[core.TemporalId]bool{}
	var batchIdsOrdered []core.TemporalId
	seenKeys := map[string]bool{}
	var batchKeys []string

	for it.phase1.Next(ctx) {
		var doc bson.M
		if err := it.phase1.Decode(&doc); err != nil {
			return err
		}
		id, key, err := codec.DecodeKeyProjection(doc)
		if err != nil {
			return err
		}
		if !seenKeys[key] {
			if len(seenKeys) >= BatchSize {
				break
			}
			seenKeys[key] = true
			batchKeys = append(batchKeys, key)
		}
		batchIds[id] = true
		batchIdsOrdered = append(batchIdsOrdered, id)
	}
	if err := it.phase1.Err(); err != nil {
		return err
	}
	if len(batchKeys) == 0 {
		return nil
	}

	winners, err := it.resolveLatest(ctx, batchKeys, batchIds)
	if err != nil {
		return err
	}
	if len(winners) == 0 {
		return nil
	}

	records, err := it.materialize(ctx, winners)
	if err != nil {
		return err
	}

	// Emit in batchIdsOrdered order, skipping ids that did not win their
	// key and ids whose record is a tombstone (§4.7).
	seen := map[core.TemporalId]bool{}
	for _, id := range batchIdsOrdered {
		if seen[id] || !winners[id] {
			continue
		}
		seen[id] = true
		rec, ok := records[id]
		if !ok {
			continue
		}
		if rec.TypeName() == "DeletedRecord" {
			continue
		}
		it.buffer = append(it.buffer, rec)
	}
	return nil
}

// resolveLatest implements Phase 2: among every stored version of each key
// in batchKeys, visible through final-constraints, pick the one in the
// nearest dataset (and, within that dataset, the highest id) — then keep
// it only if Phase 1 actually observed that exact id (so the emitted
// record also satisfies the caller's where clause, not just some other
// version of the same key).
func (it *iterator) resolveLatest(ctx context.Context, batchKeys []string, batchIds map[core.TemporalId]bool) (map[core.TemporalId]bool, error) {
	keyValues := make([]any, len(batchKeys))
	for i, k := range batchKeys {
		keyValues[i] = k
	}
	filter := mergeFilters(bson.M{codec.FieldKey: bson.M{"$in": keyValues}}, it.finalFilter)
	pipeline := []store.Stage{
		store.Match(filter),
		store.Sort(bson.D{
			{Key: codec.FieldKey, Value: 1},
			{Key: codec.FieldDataset, Value: -1},
			{Key: codec.FieldID, Value: -1},
		}),
		store.Project(bson.M{codec.FieldID: 1, codec.FieldDataset: 1, codec.FieldKey: 1}),
	}

	cur, err := it.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	winners := map[core.TemporalId]bool{}
	lastKey := ""
	haveWinner := false
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		id, _, key, err := codec.DecodeDatasetKeyProjection(doc)
		if err != nil {
			return nil, err
		}
		if key != lastKey {
			lastKey = key
			haveWinner = false
		}
		if haveWinner {
			continue
		}
		haveWinner = true
		if batchIds[id] {
			winners[id] = true
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return winners, nil
}

// materialize implements Phase 3: fetch the full documents for every
// winning id and decode them, indexed by id.
func (it *iterator) materialize(ctx context.Context, winners map[core.TemporalId]bool) (map[core.TemporalId]core.Record, error) {
	ids := make([]any, 0, len(winners))
	for id := range winners {
		ids = append(ids, id)
	}
	pipeline := []store.Stage{store.Match(bson.M{codec.FieldID: bson.M{"$in": ids}})}
	cur, err := it.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[core.TemporalId]core.Record{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		rec, err := codec.Decode(doc)
		if err != nil {
			return nil, err
		}
		out[rec.Meta().ID] = rec
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
