package mem

import (
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// matches reports whether doc satisfies every field constraint in filter.
// Each filter value is either a literal (equality) or a bson.M of operator
// -> operand pairs ($eq/$ne/$lt/$lte/$gt/$gte/$in), the subset of mongo's
// query language this module's query builder and dataset-graph resolver
// actually emit.
func matches(doc bson.M, filter bson.M) bool {
	for field, want := range filter {
		got := doc[field]
		if ops, ok := want.(bson.M); ok {
			if !matchesOps(got, ops) {
				return false
			}
			continue
		}
		if compareValues(got, want) != 0 {
			return false
		}
	}
	return true
}

func matchesOps(got any, ops bson.M) bool {
	for op, operand := range ops {
		switch op {
		case "$eq":
			if compareValues(got, operand) != 0 {
				return false
			}
		case "$ne":
			if compareValues(got, operand) == 0 {
				return false
			}
		case "$lt":
			if compareValues(got, operand) >= 0 {
				return false
			}
		case "$lte":
			if compareValues(got, operand) > 0 {
				return false
			}
		case "$gt":
			if compareValues(got, operand) <= 0 {
				return false
			}
		case "$gte":
			if compareValues(got, operand) < 0 {
				return false
			}
		case "$in":
			if !inSet(got, operand) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func inSet(got any, operand any) bool {
	vals, ok := operand.(bson.A)
	if !ok {
		return false
	}
	for _, v := range vals {
		if compareValues(got, v) == 0 {
			return true
		}
	}
	return false
}

// compareValues orders two canonicalized BSON values, returning -1, 0 or 1.
// It handles the field types this module's keys and records actually use
// (ObjectID, string, bool, the numeric kinds the driver decodes integers
// into, and nested documents by deep equality) and falls back to treating
// incomparable values as equal, which only affects sort stability.
func compareValues(a, b any) int {
	switch av := a.(type) {
	case primitive.ObjectID:
		bv, ok := b.(primitive.ObjectID)
		if !ok {
			return 0
		}
		switch {
		case av.Hex() < bv.Hex():
			return -1
		case av.Hex() > bv.Hex():
			return 1
		default:
			return 0
		}
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0
		}
		if av == bv {
			return 0
		}
		if !av && bv {
			return -1
		}
		return 1
	default:
		an, aok := asInt64(a)
		bn, bok := asInt64(b)
		if aok && bok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
		if reflect.DeepEqual(a, b) {
			return 0
		}
		return 0
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
