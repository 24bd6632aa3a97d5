package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempstore/internal/core"
	"tempstore/internal/logctx"
)

func TestAllocateIsStrictlyIncreasing(t *testing.T) {
	var counter uint32
	gen := func() core.TemporalId {
		counter++
		return core.NewTemporalIdFromSeconds(1000, []byte{byte(counter >> 24), byte(counter >> 16), byte(counter >> 8), byte(counter)})
	}
	a := New(gen, nil)

	var ids []core.TemporalId
	for i := 0; i < 10000; i++ {
		ids = append(ids, a.Allocate())
	}
	for i := 1; i < len(ids); i++ {
		assert.True(t, ids[i-1].Less(ids[i]), "id %d (%s) must be less than id %d (%s)", i-1, ids[i-1], i, ids[i])
	}
}

func TestAllocateRetriesOnNonIncreasingDraw(t *testing.T) {
	draws := []core.TemporalId{
		core.NewTemporalIdFromSeconds(100, []byte{5}),
		core.NewTemporalIdFromSeconds(100, []byte{5}), // same as previous: must retry
		core.NewTemporalIdFromSeconds(100, []byte{4}), // regressed: must retry
		core.NewTemporalIdFromSeconds(100, []byte{9}), // finally greater
	}
	idx := 0
	gen := func() core.TemporalId {
		d := draws[idx]
		idx++
		return d
	}
	l := logctx.NewNop(core.VerbosityWarning)
	a := New(gen, l)

	first := a.Allocate()
	assert.Equal(t, draws[0], first)

	second := a.Allocate()
	require.Equal(t, draws[3], second)
	assert.True(t, first.Less(second))
}

func TestAllocateWithNilLogDoesNotPanic(t *testing.T) {
	calls := 0
	gen := func() core.TemporalId {
		calls++
		return core.NewTemporalIdFromSeconds(uint32(calls), nil)
	}
	a := New(gen, nil)
	assert.NotPanics(t, func() {
		a.Allocate()
		a.Allocate()
	})
}
