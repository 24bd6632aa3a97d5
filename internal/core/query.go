package core

import "context"

// PredOp is an equality/ordering operator a Predicate applies to one field.
// Per the Non-goals in spec.md §1, this is deliberately limited to
// equality/ordering on scalar fields; richer predicate languages are out of
// scope.
type PredOp string

const (
	OpEq  PredOp = "eq"
	OpLt  PredOp = "lt"
	OpLte PredOp = "lte"
	OpGt  PredOp = "gt"
	OpGte PredOp = "gte"
	OpIn  PredOp = "in"
)

// Predicate constrains one field of the queried record type. Value is
// whatever Go value the caller supplied (a string, int, TemporalId, an
// enum, ...); the concrete query builder normalizes it through the same
// type mapping the codec uses (§4.7) before it reaches storage.
type Predicate struct {
	Field string
	Op    PredOp
	Value any
}

// Eq builds an equality Predicate. Lt/Lte/Gt/Gte/In are its siblings.
func Eq(field string, value any) Predicate  { return Predicate{Field: field, Op: OpEq, Value: value} }
func Lt(field string, value any) Predicate  { return Predicate{Field: field, Op: OpLt, Value: value} }
func Lte(field string, value any) Predicate { return Predicate{Field: field, Op: OpLte, Value: value} }
func Gt(field string, value any) Predicate  { return Predicate{Field: field, Op: OpGt, Value: value} }
func Gte(field string, value any) Predicate { return Predicate{Field: field, Op: OpGte, Value: value} }
func In(field string, values ...any) Predicate {
	return Predicate{Field: field, Op: OpIn, Value: values}
}

// QueryBuilder is a value: every Where/SortBy/SortByDesc call returns a new
// builder with an appended pipeline stage, never mutating the receiver
// (§4.7). A Where after a SortBy is an OrderingError.
type QueryBuilder interface {
	Where(p Predicate) QueryBuilder
	SortBy(fields ...string) QueryBuilder
	SortByDesc(fields ...string) QueryBuilder
	// AsIterable produces a lazy, restartable stream of records applying
	// final constraints and the batched latest-per-key merge (§4.7).
	AsIterable(ctx context.Context) (RecordIterator, error)
}

// RecordIterator streams records in emission order. Next returns
// io.EOF once exhausted.
type RecordIterator interface {
	Next(ctx context.Context) (Record, error)
	Close() error
}
