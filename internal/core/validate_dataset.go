package core

// ValidateDataSet checks the invariants a DataSet must satisfy before it is
// ever saved (§3.2): a non-empty name, and no self-import. Cycles across
// the whole import graph (A imports B imports A) are a property of the
// graph, not of a single dataset, and are caught at traversal time by
// internal/graph instead.
func ValidateDataSet(ds *DataSet, id TemporalId) error {
	if ds.Name == "" {
		return NewError(KindValidation, "dataset name is empty")
	}
	for _, imp := range ds.Imports {
		if imp == id {
			return NewError(KindOrderViolation, "dataset %q imports itself", ds.Name)
		}
	}
	return nil
}
