// Package graph implements dataset graph resolution (spec.md §4.2/§4.3):
// name -> TemporalId lookup, the transitive-import "lookup list" with
// cycle detection and cutoff-based elision, and effective-cutoff
// composition. It knows nothing about storage directly; internal/datasource
// supplies a Loader that fetches DataSet/DataSetDetail records by id.
package graph

import (
	"context"
	"sync"

	"tempstore/internal/core"
)

// Loader is the storage-facing seam Graph is built against. internal/datasource
// implements it on top of a concrete DataSource.
type Loader interface {
	// LoadDataSet fetches the DataSet record identified by id. id must not
	// be the empty (root) sentinel; callers handle that case themselves.
	LoadDataSet(ctx context.Context, id core.TemporalId) (*core.DataSet, error)
	// LoadDataSetDetail fetches the DataSetDetail stored in parent for the
	// dataset identified by id, or nil if none exists.
	LoadDataSetDetail(ctx context.Context, id, parent core.TemporalId) (*core.DataSetDetail, error)
	// FindDataSetByName resolves name within parent, reporting found=false
	// if no such dataset exists.
	FindDataSetByName(ctx context.Context, name string, parent core.TemporalId) (id core.TemporalId, found bool, err error)
}

type nameKey struct {
	name   string
	parent core.TemporalId
}

// Graph is the memoized dataset-graph resolver bound to one data source's
// cutoff configuration. The zero value is not usable; construct with New.
type Graph struct {
	loader       Loader
	sourceCutoff *core.TemporalId

	mu          sync.Mutex
	nameCache   map[nameKey]core.TemporalId
	parentCache map[core.TemporalId]core.TemporalId
	lookupCache map[core.TemporalId][]core.TemporalId
	detailCache map[core.TemporalId]*core.DataSetDetail
	dataSetCache map[core.TemporalId]*core.DataSet
}

// New builds a Graph. sourceCutoff is the data source's own cutoff_time;
// nil means unset (+infinity).
func New(loader Loader, sourceCutoff *core.TemporalId) *Graph {
	return &Graph{
		loader:       loader,
		sourceCutoff: sourceCutoff,
		nameCache:    make(map[nameKey]core.TemporalId),
		parentCache:  make(map[core.TemporalId]core.TemporalId),
		lookupCache:  make(map[core.TemporalId][]core.TemporalId),
		detailCache:  make(map[core.TemporalId]*core.DataSetDetail),
		dataSetCache: make(map[core.TemporalId]*core.DataSet),
	}
}

// DataSetOf resolves name within parent, memoized by (name, parent).
func (g *Graph) DataSetOf(ctx context.Context, name string, parent core.TemporalId) (core.TemporalId, bool, error) {
	key := nameKey{name: name, parent: parent}
	g.mu.Lock()
	if id, ok := g.nameCache[key]; ok {
		g.mu.Unlock()
		return id, true, nil
	}
	g.mu.Unlock()

	id, found, err := g.loader.FindDataSetByName(ctx, name, parent)
	if err != nil {
		return core.TemporalId{}, false, err
	}
	if !found {
		return core.TemporalId{}, false, nil
	}
	g.mu.Lock()
	g.nameCache[key] = id
	g.mu.Unlock()
	return id, true, nil
}

// loadDataSet fetches and caches the DataSet record for id, also
// populating the parent cache from its RecordMeta.Dataset field (the
// dataset a DataSet record was saved into is, by definition, its parent).
func (g *Graph) loadDataSet(ctx context.Context, id core.TemporalId) (*core.DataSet, error) {
	g.mu.Lock()
	if ds, ok := g.dataSetCache[id]; ok {
		g.mu.Unlock()
		return ds, nil
	}
	g.mu.Unlock()

	ds, err := g.loader.LoadDataSet(ctx, id)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.dataSetCache[id] = ds
	g.parentCache[id] = ds.Dataset
	g.mu.Unlock()
	return ds, nil
}

// DataSet fetches and caches the DataSet record for id, or nil for the
// root dataset (which has no DataSet record of its own). Exposed for
// internal/datasource, which needs a dataset's NonTemporal flag on the
// write path without duplicating Graph's memoization.
func (g *Graph) DataSet(ctx context.Context, id core.TemporalId) (*core.DataSet, error) {
	if id.IsEmpty() {
		return nil, nil
	}
	return g.loadDataSet(ctx, id)
}

// Detail fetches and caches the DataSetDetail for id, or nil if none is
// recorded. The root dataset never has a detail record.
func (g *Graph) Detail(ctx context.Context, id core.TemporalId) (*core.DataSetDetail, error) {
	if id.IsEmpty() {
		return nil, nil
	}
	g.mu.Lock()
	if d, ok := g.detailCache[id]; ok {
		g.mu.Unlock()
		return d, nil
	}
	g.mu.Unlock()

	if _, err := g.loadDataSet(ctx, id); err != nil {
		return nil, err
	}
	g.mu.Lock()
	parent := g.parentCache[id]
	g.mu.Unlock()

	detail, err := g.loader.LoadDataSetDetail(ctx, id, parent)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.detailCache[id] = detail
	g.mu.Unlock()
	return detail, nil
}

// EffectiveCutoff computes min(source.cutoff, detail(id).cutoff_time)
// (§4.3), treating either side as unset when absent. ok is false when
// neither side is set (no cutoff applies).
func (g *Graph) EffectiveCutoff(ctx context.Context, id core.TemporalId) (core.TemporalId, bool, error) {
	detail, err := g.Detail(ctx, id)
	if err != nil {
		return core.TemporalId{}, false, err
	}
	dc := detailCutoff(detail)
	return g.minOf(g.sourceCutoff, dc), dc != nil || g.sourceCutoff != nil, nil
}

func detailCutoff(d *core.DataSetDetail) *core.TemporalId {
	if d == nil {
		return nil
	}
	return d.CutoffTime
}

func detailImportsCutoff(d *core.DataSetDetail) *core.TemporalId {
	if d == nil {
		return nil
	}
	return d.ImportsCutoffTime
}

func (g *Graph) minOf(a, b *core.TemporalId) core.TemporalId {
	switch {
	case a == nil && b == nil:
		return core.TemporalId{}
	case a == nil:
		return *b
	case b == nil:
		return *a
	case a.Less(*b):
		return *a
	default:
		return *b
	}
}

// effectiveImportsCutoff computes min(source.cutoff, detail(id).imports_cutoff_time),
// the cutoff that gates which of id's imports are visible (§4.3: "only
// influences records reached via the imports list").
func (g *Graph) effectiveImportsCutoff(ctx context.Context, id core.TemporalId) (core.TemporalId, bool, error) {
	detail, err := g.Detail(ctx, id)
	if err != nil {
		return core.TemporalId{}, false, err
	}
	importsCutoff := detailImportsCutoff(detail)
	if g.sourceCutoff == nil && importsCutoff == nil {
		return core.TemporalId{}, false, nil
	}
	return g.minOf(g.sourceCutoff, importsCutoff), true, nil
}

// LookupList returns the memoized transitive closure of d's imports,
// including d itself, with cycles rejected and cutoff-elided imports
// dropped (§4.2).
func (g *Graph) LookupList(ctx context.Context, d core.TemporalId) ([]core.TemporalId, error) {
	return g.lookupList(ctx, d, nil)
}

func (g *Graph) lookupList(ctx context.Context, d core.TemporalId, path []core.TemporalId) ([]core.TemporalId, error) {
	g.mu.Lock()
	if cached, ok := g.lookupCache[d]; ok {
		g.mu.Unlock()
		return cached, nil
	}
	g.mu.Unlock()

	for _, p := range path {
		if p == d {
			return nil, core.NewError(core.KindOrderViolation, "dataset %s participates in an import cycle", d)
		}
	}

	if d.IsEmpty() {
		result := []core.TemporalId{d}
		g.cacheLookupList(d, result)
		return result, nil
	}

	ds, err := g.loadDataSet(ctx, d)
	if err != nil {
		return nil, err
	}
	for _, imp := range ds.Imports {
		if imp == d {
			return nil, core.NewError(core.KindOrderViolation, "dataset %s imports itself", d)
		}
	}

	importsCutoff, hasImportsCutoff, err := g.effectiveImportsCutoff(ctx, d)
	if err != nil {
		return nil, err
	}

	result := []core.TemporalId{d}
	seen := map[core.TemporalId]bool{d: true}
	nextPath := append(append([]core.TemporalId{}, path...), d)

	for _, imp := range ds.Imports {
		if hasImportsCutoff && imp.Compare(importsCutoff) >= 0 {
			continue
		}
		sub, err := g.lookupList(ctx, imp, nextPath)
		if err != nil {
			return nil, err
		}
		for _, s := range sub {
			if !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}
	g.cacheLookupList(d, result)
	return result, nil
}

func (g *Graph) cacheLookupList(d core.TemporalId, result []core.TemporalId) {
	g.mu.Lock()
	g.lookupCache[d] = result
	g.mu.Unlock()
}
