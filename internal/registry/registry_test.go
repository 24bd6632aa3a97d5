package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempstore/internal/core"
)

type fakeKey struct{ id string }

func (fakeKey) TypeName() string       { return "FakeKey" }
func (k fakeKey) KeyTokens() []string  { return []string{k.id} }
func (k *fakeKey) ParseTokens(t []string) error {
	k.id = t[0]
	return nil
}

type fakeRecord struct {
	core.BaseRecord
	id string
}

func (fakeRecord) TypeName() string     { return "FakeRecord" }
func (r fakeRecord) KeyValue() string   { return r.id }

type fakeDerivedRecord struct {
	fakeRecord
}

func (fakeDerivedRecord) TypeName() string { return "FakeDerivedRecord" }

func newTestRegistry() *Registry {
	r := New()
	r.Register(Entry{
		TypeName:    "FakeRecord",
		RootType:    "FakeRecord",
		NewRecord:   func() core.Record { return &fakeRecord{} },
		KeyTypeName: "FakeKey",
		NewKey:      func() core.Key { return &fakeKey{} },
	})
	r.Register(Entry{
		TypeName:    "FakeDerivedRecord",
		RootType:    "FakeRecord",
		SubtypeOf:   "FakeRecord",
		NewRecord:   func() core.Record { return &fakeDerivedRecord{} },
		KeyTypeName: "FakeKey",
		NewKey:      func() core.Key { return &fakeKey{} },
	})
	return r
}

func TestRegisterAndLookup(t *testing.T) {
	r := newTestRegistry()

	e, ok := r.Lookup("FakeRecord")
	require.True(t, ok)
	assert.Equal(t, "FakeRecord", e.RootType)
}

func TestRootTypeOfSubtypeIsParent(t *testing.T) {
	r := newTestRegistry()

	root, err := r.RootType("FakeDerivedRecord")
	require.NoError(t, err)
	assert.Equal(t, "FakeRecord", root)
}

func TestRootTypeUnregisteredFails(t *testing.T) {
	r := newTestRegistry()
	_, err := r.RootType("Nope")
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindValidation))
}

func TestIsSubtypeTransitive(t *testing.T) {
	r := newTestRegistry()

	assert.True(t, r.IsSubtype("FakeRecord", "FakeRecord"))
	assert.True(t, r.IsSubtype("FakeDerivedRecord", "FakeRecord"))
	assert.False(t, r.IsSubtype("FakeRecord", "FakeDerivedRecord"))
}

func TestNewRecordAndNewKey(t *testing.T) {
	r := newTestRegistry()

	rec, err := r.NewRecord("FakeRecord")
	require.NoError(t, err)
	assert.Equal(t, "FakeRecord", rec.TypeName())

	key, err := r.NewKey("FakeKey")
	require.NoError(t, err)
	assert.Equal(t, "FakeKey", key.TypeName())
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := newTestRegistry()
	assert.Panics(t, func() {
		r.Register(Entry{TypeName: "FakeRecord", NewRecord: func() core.Record { return &fakeRecord{} }})
	})
}
