// Package mem is a deterministic in-process Store (spec.md §6.1), used by
// the datasource/query/graph test suites so they can exercise real
// aggregation-shaped pipelines without a MongoDB instance. It interprets the
// same store.Stage values the mongo backend hands to the driver, covering
// the $match/$sort/$limit/$skip/$project operators this module's query engine and
// dataset-graph resolver actually emit.
package mem

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"tempstore/internal/core"
	"tempstore/internal/store"
)

// Store is an in-memory store.Store backed by a map of named collections.
// The zero value is not usable; construct with NewStore.
type Store struct {
	mu          sync.Mutex
	collections map[string]*Collection
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*Collection)}
}

// Collection returns the named collection, creating it on first access.
func (s *Store) Collection(name string) store.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		c = &Collection{}
		s.collections[name] = c
	}
	return c
}

// DropDatabase discards every collection's contents.
func (s *Store) DropDatabase(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = make(map[string]*Collection)
	return nil
}

// Close is a no-op; the in-memory store owns no external resource.
func (s *Store) Close(ctx context.Context) error { return nil }

// Collection is an in-memory store.Collection: an insertion-ordered slice
// of documents, queried by replaying a pipeline against a snapshot copy.
type Collection struct {
	mu   sync.Mutex
	docs []bson.M
}

// InsertOne appends doc, canonicalized through a BSON marshal/unmarshal
// round trip so values compare and sort the same way they would after a
// real mongo.Collection write (e.g. a core.TemporalId becomes the
// primitive.ObjectID it encodes as).
func (c *Collection) InsertOne(ctx context.Context, doc bson.M) error {
	canon, err := canonicalize(doc)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, canon)
	return nil
}

// InsertMany appends docs in order, matching the single-round-trip
// semantics real SaveMany callers depend on for all-or-nothing batches:
// the snapshot is only mutated once every document has been canonicalized.
func (c *Collection) InsertMany(ctx context.Context, docs []bson.M) error {
	canon := make([]bson.M, len(docs))
	for i, d := range docs {
		cd, err := canonicalize(d)
		if err != nil {
			return err
		}
		canon[i] = cd
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, canon...)
	return nil
}

// DeleteMany removes every document matching filter, implementing the
// optional store.Deleter capability used by non-temporal saves.
func (c *Collection) DeleteMany(ctx context.Context, filter bson.M) error {
	canon, err := canonicalize(filter)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.docs[:0:0]
	for _, d := range c.docs {
		if !matches(d, canon) {
			kept = append(kept, d)
		}
	}
	c.docs = kept
	return nil
}

func canonicalize(doc bson.M) (bson.M, error) {
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out bson.M
	if err := bson.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// canonicalizeFilter round-trips a $match stage's filter through the same
// marshal/unmarshal pass canonicalize applies to inserted documents, so a
// caller-built filter value (e.g. a bare core.TemporalId, or a Go slice of
// them behind $in) compares against stored documents in the same
// representation those documents were canonicalized into (e.g.
// primitive.ObjectID), instead of failing every comparison silently.
func canonicalizeFilter(body any) (bson.M, error) {
	filter, ok := body.(bson.M)
	if !ok {
		return nil, core.NewError(core.KindStoreError, "mem: $match stage must be a filter document")
	}
	return canonicalize(filter)
}

// Aggregate interprets pipeline against a snapshot of the collection's
// current documents and returns a cursor over the result.
func (c *Collection) Aggregate(ctx context.Context, pipeline []store.Stage) (store.Cursor, error) {
	c.mu.Lock()
	working := make([]bson.M, len(c.docs))
	copy(working, c.docs)
	c.mu.Unlock()

	for _, stage := range pipeline {
		if len(stage) != 1 {
			return nil, core.NewError(core.KindStoreError, "mem: malformed pipeline stage %v", stage)
		}
		op, body := stage[0].Key, stage[0].Value
		var err error
		switch op {
		case "$match":
			var filter bson.M
			filter, err = canonicalizeFilter(body)
			if err == nil {
				working = applyMatch(working, filter)
			}
		case "$sort":
			working, err = applySort(working, body)
		case "$limit":
			working = applyLimit(working, body)
		case "$skip":
			working = applySkip(working, body)
		case "$project":
			working = applyProject(working, body)
		default:
			return nil, core.NewError(core.KindStoreError, "mem: unsupported pipeline stage %q", op)
		}
		if err != nil {
			return nil, err
		}
	}
	return &cursor{docs: working, pos: -1}, nil
}

func applyLimit(docs []bson.M, body any) []bson.M {
	n := toInt64(body)
	if n < 0 || int(n) >= len(docs) {
		return docs
	}
	return docs[:n]
}

func applySkip(docs []bson.M, body any) []bson.M {
	n := toInt64(body)
	if n <= 0 {
		return docs
	}
	if int(n) >= len(docs) {
		return nil
	}
	return docs[n:]
}

func applyMatch(docs []bson.M, body any) []bson.M {
	filter, ok := body.(bson.M)
	if !ok {
		return nil
	}
	out := docs[:0:0]
	for _, d := range docs {
		if matches(d, filter) {
			out = append(out, d)
		}
	}
	return out
}

func applySort(docs []bson.M, body any) ([]bson.M, error) {
	spec, ok := body.(bson.D)
	if !ok {
		return nil, core.NewError(core.KindStoreError, "mem: $sort stage must be an ordered field list")
	}
	out := make([]bson.M, len(docs))
	copy(out, docs)
	sort.SliceStable(out, func(i, j int) bool {
		for _, f := range spec {
			dir, _ := toInt64AsInt(f.Value)
			c := compareValues(out[i][f.Key], out[j][f.Key])
			if c == 0 {
				continue
			}
			if dir < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out, nil
}

func applyProject(docs []bson.M, body any) []bson.M {
	spec, ok := body.(bson.M)
	if !ok {
		return docs
	}
	out := make([]bson.M, len(docs))
	for i, d := range docs {
		proj := bson.M{}
		for field, include := range spec {
			if truthy(include) {
				if v, present := d[field]; present {
					proj[field] = v
				}
			}
		}
		out[i] = proj
	}
	return out
}

func truthy(v any) bool {
	switch n := v.(type) {
	case int:
		return n != 0
	case int32:
		return n != 0
	case int64:
		return n != 0
	case bool:
		return n
	default:
		return false
	}
}

func toInt64(v any) int64 {
	n, _ := toInt64AsInt(v)
	return int64(n)
}

func toInt64AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

type cursor struct {
	docs []bson.M
	pos  int
}

func (c *cursor) Next(ctx context.Context) bool {
	if c.pos+1 >= len(c.docs) {
		return false
	}
	c.pos++
	return true
}

func (c *cursor) Decode(v any) error {
	data, err := bson.Marshal(c.docs[c.pos])
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, v)
}

func (c *cursor) Err() error { return nil }

func (c *cursor) Close(ctx context.Context) error { return nil }
