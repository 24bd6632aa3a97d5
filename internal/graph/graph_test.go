package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempstore/internal/core"
)

type fakeLoader struct {
	dataSets map[core.TemporalId]*core.DataSet
	details  map[core.TemporalId]*core.DataSetDetail
	names    map[nameKey]core.TemporalId
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		dataSets: make(map[core.TemporalId]*core.DataSet),
		details:  make(map[core.TemporalId]*core.DataSetDetail),
		names:    make(map[nameKey]core.TemporalId),
	}
}

func (f *fakeLoader) addDataSet(id, parent core.TemporalId, name string, imports ...core.TemporalId) {
	ds := &core.DataSet{Name: name, Imports: imports}
	ds.ID = id
	ds.Dataset = parent
	f.dataSets[id] = ds
	f.names[nameKey{name: name, parent: parent}] = id
}

func (f *fakeLoader) LoadDataSet(ctx context.Context, id core.TemporalId) (*core.DataSet, error) {
	ds, ok := f.dataSets[id]
	if !ok {
		return nil, core.NewError(core.KindNotFound, "no such dataset %s", id)
	}
	return ds, nil
}

func (f *fakeLoader) LoadDataSetDetail(ctx context.Context, id, parent core.TemporalId) (*core.DataSetDetail, error) {
	return f.details[id], nil
}

func (f *fakeLoader) FindDataSetByName(ctx context.Context, name string, parent core.TemporalId) (core.TemporalId, bool, error) {
	id, ok := f.names[nameKey{name: name, parent: parent}]
	return id, ok, nil
}

func idAt(seconds uint32) core.TemporalId {
	return core.NewTemporalIdFromSeconds(seconds, []byte{byte(seconds)})
}

func TestDataSetOfResolvesNameWithinParent(t *testing.T) {
	loader := newFakeLoader()
	root := core.EmptyTemporalId
	common := idAt(10)
	loader.addDataSet(common, root, "common")

	g := New(loader, nil)
	id, found, err := g.DataSetOf(context.Background(), "common", root)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, common, id)

	_, found, err = g.DataSetOf(context.Background(), "nope", root)
	require.NoError(t, err)
	assert.False(t, found)
}

// buildDiamond constructs: common (root's child) <- D0 <- D1, D2 <- D3 (imports D0,D1,D2).
func buildDiamond(loader *fakeLoader) (common, d0, d1, d2, d3 core.TemporalId) {
	root := core.EmptyTemporalId
	common = idAt(1)
	d0 = idAt(2)
	d1 = idAt(3)
	d2 = idAt(4)
	d3 = idAt(5)
	loader.addDataSet(common, root, "common")
	loader.addDataSet(d0, common, "D0")
	loader.addDataSet(d1, common, "D1", d0)
	loader.addDataSet(d2, common, "D2", d0)
	loader.addDataSet(d3, common, "D3", d0, d1, d2)
	return
}

func TestLookupListDedupesDiamondImports(t *testing.T) {
	loader := newFakeLoader()
	_, d0, d1, d2, d3 := buildDiamond(loader)

	g := New(loader, nil)
	list, err := g.LookupList(context.Background(), d3)
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.TemporalId{d3, d0, d1, d2}, list)
	assert.Len(t, list, 4)
}

func TestLookupListRejectsSelfImport(t *testing.T) {
	loader := newFakeLoader()
	root := core.EmptyTemporalId
	self := idAt(1)
	loader.addDataSet(self, root, "self", self)

	g := New(loader, nil)
	_, err := g.LookupList(context.Background(), self)
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindOrderViolation))
}

func TestLookupListRejectsMultiHopCycle(t *testing.T) {
	loader := newFakeLoader()
	root := core.EmptyTemporalId
	a := idAt(1)
	b := idAt(2)
	loader.addDataSet(a, root, "a", b)
	loader.addDataSet(b, root, "b", a)

	g := New(loader, nil)
	_, err := g.LookupList(context.Background(), a)
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindOrderViolation))
}

func TestLookupListRootDatasetIsItselfOnly(t *testing.T) {
	loader := newFakeLoader()
	g := New(loader, nil)
	list, err := g.LookupList(context.Background(), core.EmptyTemporalId)
	require.NoError(t, err)
	assert.Equal(t, []core.TemporalId{core.EmptyTemporalId}, list)
}

func TestEffectiveCutoffTakesSmallerOfSourceAndDetail(t *testing.T) {
	loader := newFakeLoader()
	root := core.EmptyTemporalId
	ds := idAt(5)
	loader.addDataSet(ds, root, "ds")
	detailCutoff := idAt(50)
	loader.details[ds] = &core.DataSetDetail{CutoffTime: &detailCutoff}

	sourceCutoff := idAt(30)
	g := New(loader, &sourceCutoff)

	cutoff, ok, err := g.EffectiveCutoff(context.Background(), ds)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sourceCutoff, cutoff)
}

func TestEffectiveCutoffUnsetWhenNeitherSideSet(t *testing.T) {
	loader := newFakeLoader()
	root := core.EmptyTemporalId
	ds := idAt(5)
	loader.addDataSet(ds, root, "ds")

	g := New(loader, nil)
	_, ok, err := g.EffectiveCutoff(context.Background(), ds)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookupListElidesImportBeyondImportsCutoff(t *testing.T) {
	loader := newFakeLoader()
	root := core.EmptyTemporalId
	common := idAt(1)
	d0 := idAt(2)
	d1 := idAt(3) // imported by d2 but added "later" than the cutoff
	d2 := idAt(10)
	loader.addDataSet(common, root, "common")
	loader.addDataSet(d0, common, "D0")
	loader.addDataSet(d1, common, "D1")
	loader.addDataSet(d2, common, "D2", d0, d1)

	cutoff := idAt(3) // equals d1's own id: d1 >= cutoff, so d1 is elided; d0 < cutoff stays visible
	loader.details[d2] = &core.DataSetDetail{ImportsCutoffTime: &cutoff}

	g := New(loader, nil)
	list, err := g.LookupList(context.Background(), d2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.TemporalId{d2, d0}, list)
}
