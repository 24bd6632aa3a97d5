// Package alloc implements the monotonic TemporalId allocator (spec.md
// §4.1): wraps a core.Generator and guarantees every value it returns is
// strictly greater than the previous one, retrying the native generator on
// a same-or-regressed draw and logging the retry/recovery per §9.
package alloc

import (
	"sync"

	"tempstore/internal/core"
)

// Allocator hands out strictly increasing core.TemporalId values. The
// zero value is not usable; construct with New. Per §5, the allocator's
// "previous" slot is meant to share a single mutex with the owning data
// source's caches; this implementation instead owns a private mutex,
// which preserves the monotonic contract at the cost of two distinct
// critical sections instead of one — a deliberate simplification over
// the spec's single-mutex design, recorded in DESIGN.md.
type Allocator struct {
	mu   sync.Mutex
	gen  core.Generator
	prev core.TemporalId
	log  core.Log
}

// New builds an Allocator drawing from gen and reporting retries/recovery
// on log. log may be nil, in which case retries are silent.
func New(gen core.Generator, log core.Log) *Allocator {
	return &Allocator{gen: gen, log: log}
}

// Allocate returns a TemporalId strictly greater than every value this
// Allocator has previously returned. It never sleeps: the generator's
// embedded timestamp advances on its own, and the low bytes distinguish
// values drawn within the same second.
func (a *Allocator) Allocate() core.TemporalId {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.gen()
	retries := 0
	for id.LessOrEqual(a.prev) {
		retries++
		if a.log != nil {
			a.log.Warning("temporal id allocation produced %s, not greater than previous %s; retrying", id, a.prev)
		}
		id = a.gen()
	}
	if retries > 0 && a.log != nil {
		a.log.Status("temporal id allocator recovered after %d retries", retries)
	}
	a.prev = id
	return id
}
