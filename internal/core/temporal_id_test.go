package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemporalIdEmptyIsLeastOfAll(t *testing.T) {
	a := NewTemporalIdFromSeconds(0, []byte{0, 0, 0, 0, 0, 0, 0, 0})
	assert.True(t, EmptyTemporalId.IsEmpty())
	assert.True(t, EmptyTemporalId.LessOrEqual(a))
}

func TestTemporalIdCompareOrdersBySeconds(t *testing.T) {
	earlier := NewTemporalIdFromSeconds(1000, []byte{0, 0, 0, 0, 0, 0, 0, 0})
	later := NewTemporalIdFromSeconds(1001, []byte{0, 0, 0, 0, 0, 0, 0, 0})

	assert.True(t, earlier.Less(later))
	assert.False(t, later.Less(earlier))
	assert.Equal(t, 0, earlier.Compare(earlier))
}

func TestTemporalIdCompareFallsBackToLowBytes(t *testing.T) {
	a := NewTemporalIdFromSeconds(1000, []byte{0, 0, 0, 0, 0, 0, 0, 1})
	b := NewTemporalIdFromSeconds(1000, []byte{0, 0, 0, 0, 0, 0, 0, 2})

	assert.True(t, a.Less(b))
}

func TestTemporalIdStringRoundTrip(t *testing.T) {
	id := NewTemporalIdFromSeconds(1700000000, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	parsed, err := ParseTemporalId(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.Len(t, id.String(), 24)
}

func TestParseTemporalIdRejectsMalformed(t *testing.T) {
	_, err := ParseTemporalId("not-hex-and-wrong-length")
	require.Error(t, err)
	assert.True(t, Is(err, KindValidation))

	_, err = ParseTemporalId("zzzzzzzzzzzzzzzzzzzzzzzz")
	require.Error(t, err)
	assert.True(t, Is(err, KindValidation))
}

func TestTemporalIdSecondsAndTime(t *testing.T) {
	id := NewTemporalIdFromSeconds(1700000000, nil)
	assert.EqualValues(t, 1700000000, id.Seconds())
	assert.Equal(t, int64(1700000000), id.Time().Unix())
}
