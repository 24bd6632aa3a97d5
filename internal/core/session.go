package core

import "context"

// Session is the per-caller triple the glossary calls "Context": a data
// source, a default dataset and a log sink. It is named Session here,
// rather than Context, so it doesn't collide with the ubiquitous
// context.Context used for cancellation throughout this package's method
// signatures.
type Session struct {
	Source  DataSource
	Dataset TemporalId
	Log     Log
}

// Load is a convenience wrapper over Source.LoadOrNull using the Session's
// default dataset semantics: the dataset a record was saved to does not
// matter for a point load by id, only for its own cutoff, so this simply
// forwards to the source.
func (s *Session) Load(ctx context.Context, typeName string, id TemporalId) (Record, error) {
	return s.Source.LoadOrNull(ctx, typeName, id)
}

// LoadByKey loads the latest non-deleted revision of key visible through
// the Session's default dataset and its imports.
func (s *Session) LoadByKey(ctx context.Context, recordTypeName string, key Key) (Record, error) {
	return s.Source.LoadOrNullByKey(ctx, recordTypeName, key, s.Dataset)
}

// Save saves records into the Session's default dataset.
func (s *Session) Save(ctx context.Context, records []Record) error {
	return s.Source.SaveMany(ctx, records, s.Dataset)
}

// Delete writes a tombstone for key into the Session's default dataset.
func (s *Session) Delete(ctx context.Context, recordTypeName string, key Key) error {
	return s.Source.Delete(ctx, recordTypeName, key, s.Dataset)
}

// Query opens a query builder scoped to the Session's default dataset.
func (s *Session) Query(recordTypeName string) QueryBuilder {
	return s.Source.GetQuery(recordTypeName, s.Dataset)
}
