package query

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempstore/internal/codec"
	"tempstore/internal/core"
	"tempstore/internal/graph"
	"tempstore/internal/registry"
	"tempstore/internal/store/mem"
)

type widget struct {
	core.BaseRecord `bson:"-"`
	RecordId        string `bson:"RecordId"`
	Value           int    `bson:"Value"`
}

func (w *widget) TypeName() string { return "Widget" }
func (w *widget) KeyValue() string { return w.RecordId }

func init() {
	registry.Register(registry.Entry{
		TypeName:  "Widget",
		NewRecord: func() core.Record { return &widget{} },
	})
}

type fakeLoader struct{}

func (fakeLoader) LoadDataSet(ctx context.Context, id core.TemporalId) (*core.DataSet, error) {
	return &core.DataSet{}, nil
}
func (fakeLoader) LoadDataSetDetail(ctx context.Context, id, parent core.TemporalId) (*core.DataSetDetail, error) {
	return nil, nil
}
func (fakeLoader) FindDataSetByName(ctx context.Context, name string, parent core.TemporalId) (core.TemporalId, bool, error) {
	return core.TemporalId{}, false, nil
}

func idAt(seconds uint32) core.TemporalId {
	return core.NewTemporalIdFromSeconds(seconds, []byte{byte(seconds)})
}

func seed(t *testing.T, ctx context.Context, c *mem.Collection, dataset core.TemporalId) {
	t.Helper()
	versions := []struct {
		seconds uint32
		key     string
		value   int
	}{
		{1, "A", 10},
		{2, "A", 20},
		{3, "A", 30},
		{4, "B", 99},
	}
	for _, v := range versions {
		w := &widget{RecordId: v.key, Value: v.value}
		w.ID = idAt(v.seconds)
		w.Dataset = dataset
		doc, err := codec.Encode(w)
		require.NoError(t, err)
		require.NoError(t, c.InsertOne(ctx, doc))
	}
}

func TestQueryReturnsLatestVersionPerKeyInSortOrder(t *testing.T) {
	ctx := context.Background()
	store := mem.NewStore()
	coll := store.Collection("Widget").(*mem.Collection)
	dataset := idAt(100)
	seed(t, ctx, coll, dataset)

	g := graph.New(fakeLoader{}, nil)
	b := NewBuilder(coll, g, dataset)
	iter, err := b.SortBy("RecordId").AsIterable(ctx)
	require.NoError(t, err)
	defer iter.Close()

	var got []*widget
	for {
		rec, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, rec.(*widget))
	}

	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].RecordId)
	assert.Equal(t, 30, got[0].Value)
	assert.Equal(t, "B", got[1].RecordId)
	assert.Equal(t, 99, got[1].Value)
}

func TestQueryWhereFiltersToMatchingKey(t *testing.T) {
	ctx := context.Background()
	store := mem.NewStore()
	coll := store.Collection("Widget").(*mem.Collection)
	dataset := idAt(100)
	seed(t, ctx, coll, dataset)

	g := graph.New(fakeLoader{}, nil)
	b := NewBuilder(coll, g, dataset)
	iter, err := b.Where(core.Eq("RecordId", "A")).AsIterable(ctx)
	require.NoError(t, err)
	defer iter.Close()

	rec, err := iter.Next(ctx)
	require.NoError(t, err)
	w := rec.(*widget)
	assert.Equal(t, "A", w.RecordId)
	assert.Equal(t, 30, w.Value)

	_, err = iter.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestWhereAfterSortByIsOrderingError(t *testing.T) {
	ctx := context.Background()
	store := mem.NewStore()
	coll := store.Collection("Widget").(*mem.Collection)

	g := graph.New(fakeLoader{}, nil)
	b := NewBuilder(coll, g, idAt(100))
	_, err := b.SortBy("RecordId").Where(core.Eq("RecordId", "A")).AsIterable(ctx)
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindOrderingError))
}

func TestQuerySkipsTombstonedKey(t *testing.T) {
	ctx := context.Background()
	store := mem.NewStore()
	coll := store.Collection("Widget").(*mem.Collection)
	dataset := idAt(100)
	seed(t, ctx, coll, dataset)

	tomb := &core.DeletedRecord{Key: "A"}
	tomb.ID = idAt(5)
	tomb.Dataset = dataset
	doc, err := codec.Encode(tomb)
	require.NoError(t, err)
	require.NoError(t, coll.InsertOne(ctx, doc))

	g := graph.New(fakeLoader{}, nil)
	b := NewBuilder(coll, g, dataset)
	iter, err := b.SortBy("RecordId").AsIterable(ctx)
	require.NoError(t, err)
	defer iter.Close()

	var got []*widget
	for {
		rec, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, rec.(*widget))
	}

	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].RecordId)
}
