package datasource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempstore/internal/core"
	"tempstore/internal/keytoken"
	"tempstore/internal/logctx"
	"tempstore/internal/registry"
	"tempstore/internal/store/mem"
)

// baseSample and derivedSample are the scenario fixtures from spec.md
// §8.2's S1/S2: a record keyed by (record_id, record_index), with
// derivedSample registered as a subtype so a base-typed load can return
// either.
type baseSample struct {
	core.BaseRecord `bson:"-"`
	RecordId        string `bson:"RecordId"`
	RecordIndex     int    `bson:"RecordIndex"`
}

func (s *baseSample) TypeName() string { return "BaseSample" }
func (s *baseSample) KeyValue() string { return core.Value(s.ToKey()) }
func (s *baseSample) ToKey() *baseSampleKey {
	return &baseSampleKey{RecordId: s.RecordId, RecordIndex: s.RecordIndex}
}

type derivedSample struct {
	baseSample `bson:",inline"`
}

func (s *derivedSample) TypeName() string { return "DerivedSample" }

type baseSampleKey struct {
	RecordId    string
	RecordIndex int
}

func (baseSampleKey) TypeName() string { return "BaseSampleKey" }
func (k baseSampleKey) KeyTokens() []string {
	return []string{k.RecordId, keytoken.EncodeInt(int64(k.RecordIndex))}
}
func (k *baseSampleKey) ParseTokens(tokens []string) error {
	if len(tokens) != 2 {
		return core.NewError(core.KindValidation, "BaseSampleKey expects 2 tokens, got %d", len(tokens))
	}
	idx, err := keytoken.DecodeInt(tokens[1])
	if err != nil {
		return err
	}
	k.RecordId = tokens[0]
	k.RecordIndex = int(idx)
	return nil
}

func init() {
	registry.Register(registry.Entry{
		TypeName:    "BaseSample",
		NewRecord:   func() core.Record { return &baseSample{} },
		KeyTypeName: "BaseSampleKey",
		NewKey:      func() core.Key { return &baseSampleKey{} },
	})
	registry.Register(registry.Entry{
		TypeName:    "DerivedSample",
		RootType:    "BaseSample",
		SubtypeOf:   "BaseSample",
		NewRecord:   func() core.Record { return &derivedSample{} },
		KeyTypeName: "BaseSampleKey",
		NewKey:      func() core.Key { return &baseSampleKey{} },
	})
}

// sequentialGenerator returns a core.Generator that hands out strictly
// increasing ids one second apart, starting just after start.
func sequentialGenerator(start uint32) core.Generator {
	next := start
	return func() core.TemporalId {
		next++
		return core.NewTemporalIdFromSeconds(next, nil)
	}
}

func newTestSource(t *testing.T) *TemporalDataSource {
	t.Helper()
	return New(mem.NewStore(), sequentialGenerator(1000), logctx.NewNop(core.VerbosityWarning), false, nil)
}

func TestBasicHierarchicalVisibility(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)

	commonID, err := ds.CreateDataSet(ctx, "Common", core.TemporalId{}, nil, false)
	require.NoError(t, err)
	d0, err := ds.CreateDataSet(ctx, "DataSet0", commonID, nil, false)
	require.NoError(t, err)
	d1, err := ds.CreateDataSet(ctx, "DataSet1", commonID, []core.TemporalId{d0}, false)
	require.NoError(t, err)

	require.NoError(t, ds.SaveMany(ctx, []core.Record{&baseSample{RecordId: "A", RecordIndex: 0}}, d0))
	require.NoError(t, ds.SaveMany(ctx, []core.Record{&derivedSample{baseSample{RecordId: "B", RecordIndex: 0}}}, d1))

	keyA := &baseSampleKey{RecordId: "A", RecordIndex: 0}
	keyB := &baseSampleKey{RecordId: "B", RecordIndex: 0}

	rec, err := ds.LoadOrNullByKey(ctx, "BaseSample", keyA, d0)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "BaseSample", rec.TypeName())

	rec, err = ds.LoadOrNullByKey(ctx, "BaseSample", keyA, d1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "BaseSample", rec.TypeName())

	rec, err = ds.LoadOrNullByKey(ctx, "BaseSample", keyB, d0)
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = ds.LoadOrNullByKey(ctx, "BaseSample", keyB, d1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "DerivedSample", rec.TypeName())
}

func TestLatestAcrossImportsPrefersNearestDataset(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)

	commonID, err := ds.CreateDataSet(ctx, "Common", core.TemporalId{}, nil, false)
	require.NoError(t, err)
	d0, err := ds.CreateDataSet(ctx, "D0", commonID, nil, false)
	require.NoError(t, err)
	d1, err := ds.CreateDataSet(ctx, "D1", commonID, []core.TemporalId{d0}, false)
	require.NoError(t, err)

	save := func(dataset core.TemporalId, key string, idx int) {
		require.NoError(t, ds.SaveMany(ctx, []core.Record{&baseSample{RecordId: key, RecordIndex: idx}}, dataset))
	}

	// (B,1) has three versions in d0 and one more in d1, which imports d0.
	// Loading from d1 must return d1's own version even though d0's
	// versions were written more recently in wall-clock terms, since a
	// dataset's own records always shadow what it imports.
	save(d1, "B", 1)
	save(d0, "B", 1)
	save(d0, "B", 1)
	save(d0, "B", 1)

	// (A,2) exists only in d0; loading from d1 must still see it through
	// the import.
	save(d0, "A", 2)

	rec, err := ds.LoadOrNullByKey(ctx, "BaseSample", &baseSampleKey{RecordId: "B", RecordIndex: 1}, d1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	got := rec.(*baseSample)
	assert.Equal(t, d1, got.Meta().Dataset)

	rec, err = ds.LoadOrNullByKey(ctx, "BaseSample", &baseSampleKey{RecordId: "A", RecordIndex: 2}, d1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	got = rec.(*baseSample)
	assert.Equal(t, d0, got.Meta().Dataset)
}

func TestTombstoneHidesImport(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)

	commonID, err := ds.CreateDataSet(ctx, "Common", core.TemporalId{}, nil, false)
	require.NoError(t, err)
	d0, err := ds.CreateDataSet(ctx, "D0", commonID, nil, false)
	require.NoError(t, err)
	d1, err := ds.CreateDataSet(ctx, "D1", commonID, []core.TemporalId{d0}, false)
	require.NoError(t, err)

	key := &baseSampleKey{RecordId: "K", RecordIndex: 0}
	require.NoError(t, ds.SaveMany(ctx, []core.Record{&baseSample{RecordId: "K", RecordIndex: 0}}, d0))
	require.NoError(t, ds.Delete(ctx, "BaseSample", key, d1))

	rec, err := ds.LoadOrNullByKey(ctx, "BaseSample", key, d1)
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = ds.LoadOrNullByKey(ctx, "BaseSample", key, d0)
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestSaveManyRejectsWriteAgainstReadOnlySource(t *testing.T) {
	ctx := context.Background()
	ds := New(mem.NewStore(), sequentialGenerator(1000), logctx.NewNop(core.VerbosityWarning), true, nil)
	err := ds.SaveMany(ctx, []core.Record{&baseSample{RecordId: "A", RecordIndex: 0}}, core.TemporalId{})
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindReadOnly))
}

func TestDataSetOfResolvesNameWithinParent(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)

	commonID, err := ds.CreateDataSet(ctx, "Common", core.TemporalId{}, nil, false)
	require.NoError(t, err)

	resolved, err := ds.DataSetOf(ctx, "Common", core.TemporalId{})
	require.NoError(t, err)
	assert.Equal(t, commonID, resolved)

	_, err = ds.DataSetOf(ctx, "DoesNotExist", core.TemporalId{})
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindNotFound))
}

func TestNonTemporalSaveCompactsPriorVersions(t *testing.T) {
	ctx := context.Background()
	ds := newTestSource(t)

	commonID, err := ds.CreateDataSet(ctx, "Common", core.TemporalId{}, nil, true)
	require.NoError(t, err)

	require.NoError(t, ds.SaveMany(ctx, []core.Record{&baseSample{RecordId: "A", RecordIndex: 0}}, commonID))
	require.NoError(t, ds.SaveMany(ctx, []core.Record{&baseSample{RecordId: "A", RecordIndex: 0}}, commonID))

	coll := ds.collection("BaseSample").(*mem.Collection)
	cur, err := coll.Aggregate(ctx, nil)
	require.NoError(t, err)
	defer cur.Close(ctx)
	count := 0
	for cur.Next(ctx) {
		count++
	}
	assert.Equal(t, 1, count)
}
