// Package services provides the roll-forward business logic: record
// merging, window allocation and the orchestrating service that sequences
// them against the external store.
package services

import (
	"fmt"

	"pdroll/internal/core"
)

// MergeWarning reports a record excluded from the merge as a data-quality
// issue rather than a fatal error.
type MergeWarning struct {
	ContractNo string
	Reason     string
}

func (w MergeWarning) String() string {
	return fmt.Sprintf("contract %q: %s", w.ContractNo, w.Reason)
}

// MergeRecords combines the records currently held by the older segment,
// the latest segment and the newly extracted records, in that arrival
// order. Within each RecordKey the record appearing last in arrival order
// wins, so new data strictly overrides stored data and latest-segment
// data overrides same-key older-segment data.
//
// Records with a missing month cannot be allocated to any segment; they
// are dropped and reported as warnings.
func MergeRecords(older, latest, incoming []core.Record) ([]core.Record, []MergeWarning) {
	combined := make([]core.Record, 0, len(older)+len(latest)+len(incoming))
	combined = append(combined, older...)
	combined = append(combined, latest...)
	combined = append(combined, incoming...)

	var warnings []MergeWarning
	index := make(map[core.RecordKey]int, len(combined))
	merged := make([]core.Record, 0, len(combined))
	for _, r := range combined {
		if r.Month.IsZero() {
			warnings = append(warnings, MergeWarning{
				ContractNo: r.ContractNo,
				Reason:     "missing or unparseable month, record excluded",
			})
			continue
		}
		key := r.Key()
		if i, ok := index[key]; ok {
			merged[i] = r
			continue
		}
		index[key] = len(merged)
		merged = append(merged, r)
	}
	return merged, warnings
}
