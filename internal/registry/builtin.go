package registry

import "tempstore/internal/core"

// DataSet and DataSetDetail are core's own record types rather than a
// domain package's (§3.1): core cannot import registry itself without a
// cycle, so registry self-registers them here instead of via the usual
// init() in the record's own package.
func init() {
	Register(Entry{
		TypeName:    "DataSet",
		NewRecord:   func() core.Record { return &core.DataSet{} },
		KeyTypeName: "DataSetKey",
		NewKey:      func() core.Key { return &core.DataSetKey{} },
	})
	Register(Entry{
		TypeName:    "DataSetDetail",
		NewRecord:   func() core.Record { return &core.DataSetDetail{} },
		KeyTypeName: "DataSetDetailKey",
		NewKey:      func() core.Key { return &core.DataSetDetailKey{} },
	})
}
