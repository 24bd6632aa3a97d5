// Package registry is the type registry (spec.md §4.8): a name->type
// lookup built by explicit registration rather than by walking a live
// reflection graph of subclasses, per the design note in spec.md §9. Each
// record/key package calls Register from an init() func, the same
// self-registration idiom the teacher's dialect and introspect packages
// use for their per-dialect implementations. core.DataSet/DataSetDetail
// are the one exception: core cannot import this package without a
// cycle, so their registration lives in builtin.go instead.
package registry

import (
	"sync"

	"tempstore/internal/core"
)

// Entry is everything the registry knows about one registered record type.
type Entry struct {
	TypeName    string
	RootType    string
	SubtypeOf   string // empty if this type is its own root
	NewRecord   func() core.Record
	KeyTypeName string
	NewKey      func() core.Key
	// NonTemporal marks a record type whose saves always collapse to
	// latest-by-key regardless of which dataset they land in (§4.6,
	// §9 "Non-temporal datasets" — the per-type variant of the same rule).
	NonTemporal bool
}

// Registry is a name->Entry lookup. The zero value is not usable;
// construct with New, which tests also use to get an isolated instance
// instead of the package default.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Default is the registry every record/key package registers into via
// init(). Most callers use the package-level Register/Lookup* functions,
// which delegate here.
var Default = New()

// Register binds e.TypeName to its constructors and root type. It panics
// on a duplicate registration, the same fail-fast posture the teacher's
// dialect.RegisterDialect takes on programmer error at init time.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[e.TypeName]; exists {
		panic("registry: duplicate registration for type " + e.TypeName)
	}
	if e.RootType == "" {
		e.RootType = e.TypeName
	}
	r.entries[e.TypeName] = e
}

// Lookup returns the Entry registered for typeName.
func (r *Registry) Lookup(typeName string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[typeName]
	return e, ok
}

// RootType computes root_type(T) (§4.8): the collection name a record of
// type typeName is stored in.
func (r *Registry) RootType(typeName string) (string, error) {
	e, ok := r.Lookup(typeName)
	if !ok {
		return "", core.NewError(core.KindValidation, "type %q is not registered", typeName)
	}
	return e.RootType, nil
}

// KeyTypeName returns the name of the Key type bound to typeName's record
// type.
func (r *Registry) KeyTypeName(typeName string) (string, error) {
	e, ok := r.Lookup(typeName)
	if !ok {
		return "", core.NewError(core.KindValidation, "type %q is not registered", typeName)
	}
	return e.KeyTypeName, nil
}

// NewRecord constructs a zero-valued instance of the record type
// registered as typeName, used by the deserializer to know what to
// unmarshal a stored document's `_t` field into.
func (r *Registry) NewRecord(typeName string) (core.Record, error) {
	e, ok := r.Lookup(typeName)
	if !ok {
		return nil, core.NewError(core.KindValidation, "type %q is not registered", typeName)
	}
	return e.NewRecord(), nil
}

// IsNonTemporal reports whether typeName's registered entry marks it
// non-temporal.
func (r *Registry) IsNonTemporal(typeName string) bool {
	e, ok := r.Lookup(typeName)
	return ok && e.NonTemporal
}

// NewKey constructs a zero-valued instance of the key type registered as
// keyTypeName.
func (r *Registry) NewKey(keyTypeName string) (core.Key, error) {
	for _, e := range r.snapshot() {
		if e.KeyTypeName == keyTypeName {
			return e.NewKey(), nil
		}
	}
	return nil, core.NewError(core.KindValidation, "key type %q is not bound to any registered record type", keyTypeName)
}

// IsSubtype reports whether actualTypeName's runtime type would satisfy a
// load requesting requestedTypeName: equal types always match, and a type
// registered with SubtypeOf naming (transitively) requestedTypeName also
// matches. This is the Go-native substitute for the reference's runtime
// `isinstance` check (§4.4/§7 TypeMismatch).
func (r *Registry) IsSubtype(actualTypeName, requestedTypeName string) bool {
	if actualTypeName == requestedTypeName {
		return true
	}
	seen := map[string]bool{}
	name := actualTypeName
	for {
		e, ok := r.Lookup(name)
		if !ok || e.SubtypeOf == "" || seen[name] {
			return false
		}
		if e.SubtypeOf == requestedTypeName {
			return true
		}
		seen[name] = true
		name = e.SubtypeOf
	}
}

func (r *Registry) snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// Register, Lookup, RootType, KeyTypeName, NewRecord, NewKey and IsSubtype
// below delegate to Default, for the common case of one process-wide
// registry populated by init() funcs.

func Register(e Entry) { Default.Register(e) }

func Lookup(typeName string) (Entry, bool) { return Default.Lookup(typeName) }

func RootType(typeName string) (string, error) { return Default.RootType(typeName) }

func KeyTypeName(typeName string) (string, error) { return Default.KeyTypeName(typeName) }

func NewRecord(typeName string) (core.Record, error) { return Default.NewRecord(typeName) }

func NewKey(keyTypeName string) (core.Key, error) { return Default.NewKey(keyTypeName) }

func IsSubtype(actualTypeName, requestedTypeName string) bool {
	return Default.IsSubtype(actualTypeName, requestedTypeName)
}

func IsNonTemporal(typeName string) bool { return Default.IsNonTemporal(typeName) }
