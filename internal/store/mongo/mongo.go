// Package mongo is the real store.Store backend (spec.md §6.1), a thin
// adapter over go.mongodb.org/mongo-driver. It is the production
// counterpart to internal/store/mem: same store.Collection/store.Cursor
// contract, backed by an actual *mongo.Database connection.
package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tempstore/internal/store"
)

// Store wraps a *mongo.Database as a store.Store.
type Store struct {
	db *mongo.Database
}

// NewStore wraps an already-connected database handle.
func NewStore(db *mongo.Database) *Store { return &Store{db: db} }

// Connect dials uri and returns a Store bound to dbName, along with a
// close function the caller must defer. This is the one place in the
// module that talks to the driver's top-level Client; everything else
// goes through the store.Store/Collection contract.
func Connect(ctx context.Context, uri, dbName string) (*Store, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return &Store{db: client.Database(dbName)}, client.Disconnect, nil
}

// Collection returns a handle to the named collection.
func (s *Store) Collection(name string) store.Collection {
	return &Collection{coll: s.db.Collection(name)}
}

// DropDatabase drops every collection in the underlying database.
func (s *Store) DropDatabase(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

// Collection wraps a *mongo.Collection as a store.Collection.
type Collection struct {
	coll *mongo.Collection
}

// InsertOne inserts doc.
func (c *Collection) InsertOne(ctx context.Context, doc bson.M) error {
	_, err := c.coll.InsertOne(ctx, doc)
	return err
}

// InsertMany inserts docs in one round trip. It is a no-op for an empty
// slice since the driver itself rejects a zero-length InsertMany call.
func (c *Collection) InsertMany(ctx context.Context, docs []bson.M) error {
	if len(docs) == 0 {
		return nil
	}
	toInsert := make([]any, len(docs))
	for i, d := range docs {
		toInsert[i] = d
	}
	_, err := c.coll.InsertMany(ctx, toInsert)
	return err
}

// DeleteMany removes every document matching filter, implementing the
// optional store.Deleter capability used by non-temporal saves.
func (c *Collection) DeleteMany(ctx context.Context, filter bson.M) error {
	_, err := c.coll.DeleteMany(ctx, filter)
	return err
}

// Aggregate runs pipeline through the driver's Aggregate and wraps the
// resulting *mongo.Cursor as a store.Cursor.
func (c *Collection) Aggregate(ctx context.Context, pipeline []store.Stage) (store.Cursor, error) {
	cur, err := c.coll.Aggregate(ctx, mongo.Pipeline(pipeline))
	if err != nil {
		return nil, err
	}
	return &cursor{cur: cur}, nil
}

// cursor adapts *mongo.Cursor to store.Cursor.
type cursor struct {
	cur *mongo.Cursor
}

func (c *cursor) Next(ctx context.Context) bool { return c.cur.Next(ctx) }

func (c *cursor) Decode(v any) error { return c.cur.Decode(v) }

func (c *cursor) Err() error { return c.cur.Err() }

func (c *cursor) Close(ctx context.Context) error { return c.cur.Close(ctx) }
