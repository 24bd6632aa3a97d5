package main

import (
	"sort"
	"strings"

	"tempstore/internal/core"
	"tempstore/internal/registry"
)

// document is the CLI's one concrete record type. Every domain type the
// store carries has to be compiled in and registered ahead of time (§4.8),
// so an operable, type-agnostic CLI needs a record shaped generically
// enough to stand in for any of them: a single string key plus a flat bag
// of string fields, the document-store equivalent of the teacher's raw SQL
// statement blob in cmd/smf's apply command.
type document struct {
	core.BaseRecord `bson:"-"`
	Key             string            `bson:"Key"`
	Fields          map[string]string `bson:"Fields"`
}

func (d *document) TypeName() string    { return "Document" }
func (d *document) KeyValue() string    { return core.Value(d.ToKey()) }
func (d *document) ToKey() *documentKey { return &documentKey{Key: d.Key} }

type documentKey struct {
	Key string
}

func (documentKey) TypeName() string { return "DocumentKey" }

func (k documentKey) KeyTokens() []string { return []string{k.Key} }

func (k *documentKey) ParseTokens(tokens []string) error {
	if len(tokens) != 1 {
		return core.NewError(core.KindValidation, "DocumentKey expects 1 token, got %d", len(tokens))
	}
	k.Key = tokens[0]
	return nil
}

func init() {
	registry.Register(registry.Entry{
		TypeName:    "Document",
		NewRecord:   func() core.Record { return &document{} },
		KeyTypeName: "DocumentKey",
		NewKey:      func() core.Key { return &documentKey{} },
	})
}

// parseFields turns a list of "name=value" flags (as collected by --field)
// into a document.Fields map.
func parseFields(raw []string) (map[string]string, error) {
	fields := make(map[string]string, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, core.NewError(core.KindValidation, "--field %q must be in name=value form", kv)
		}
		fields[name] = value
	}
	return fields, nil
}

// formatFields renders a document's fields sorted by name, for stable CLI
// output.
func formatFields(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+fields[name])
	}
	return strings.Join(parts, " ")
}
