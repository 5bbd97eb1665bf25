package services

import (
	"testing"

	"pdroll/internal/core"
)

func rec(year, month int, contract string, dpd int64) core.Record {
	return core.Record{
		Month:      core.MonthEnd(year, month),
		ContractNo: contract,
		DPD:        dpd,
	}
}

func TestMergeRecords(t *testing.T) {
	t.Run("incoming overrides stored data for the same key", func(t *testing.T) {
		older := []core.Record{rec(2025, 3, "C-1", 10)}
		incoming := []core.Record{rec(2025, 3, "C-1", 15)}

		merged, warnings := MergeRecords(older, nil, incoming)

		if len(warnings) != 0 {
			t.Fatalf("unexpected warnings: %v", warnings)
		}
		if len(merged) != 1 {
			t.Fatalf("expected 1 record, got %d", len(merged))
		}
		if merged[0].DPD != 15 {
			t.Errorf("DPD = %d, want 15 (incoming must win)", merged[0].DPD)
		}
	})

	t.Run("latest overrides older for the same key", func(t *testing.T) {
		older := []core.Record{rec(2025, 3, "C-1", 10)}
		latest := []core.Record{rec(2025, 3, "C-1", 20)}

		merged, _ := MergeRecords(older, latest, nil)

		if len(merged) != 1 || merged[0].DPD != 20 {
			t.Errorf("merged = %v, want single record with DPD 20", merged)
		}
	})

	t.Run("distinct keys all survive", func(t *testing.T) {
		older := []core.Record{rec(2025, 1, "C-1", 1), rec(2025, 2, "C-1", 2)}
		latest := []core.Record{rec(2025, 3, "C-2", 3)}
		incoming := []core.Record{rec(2025, 4, "C-1", 4)}

		merged, warnings := MergeRecords(older, latest, incoming)

		if len(warnings) != 0 {
			t.Fatalf("unexpected warnings: %v", warnings)
		}
		if len(merged) != 4 {
			t.Errorf("expected 4 records, got %d", len(merged))
		}
	})

	t.Run("same contract in different months is not a duplicate", func(t *testing.T) {
		incoming := []core.Record{rec(2025, 3, "C-1", 10), rec(2025, 4, "C-1", 12)}

		merged, _ := MergeRecords(nil, nil, incoming)

		if len(merged) != 2 {
			t.Errorf("expected 2 records, got %d", len(merged))
		}
	})

	t.Run("missing month is warned and excluded", func(t *testing.T) {
		bad := core.Record{ContractNo: "C-9", DPD: 5}
		merged, warnings := MergeRecords([]core.Record{bad}, nil, []core.Record{rec(2025, 3, "C-1", 1)})

		if len(merged) != 1 || merged[0].ContractNo != "C-1" {
			t.Errorf("merged = %v, want only C-1", merged)
		}
		if len(warnings) != 1 {
			t.Fatalf("expected 1 warning, got %d", len(warnings))
		}
		if warnings[0].ContractNo != "C-9" {
			t.Errorf("warning contract = %q, want C-9", warnings[0].ContractNo)
		}
	})

	t.Run("empty inputs produce empty output", func(t *testing.T) {
		merged, warnings := MergeRecords(nil, nil, nil)
		if len(merged) != 0 || len(warnings) != 0 {
			t.Errorf("got %d records, %d warnings, want none", len(merged), len(warnings))
		}
	})

	t.Run("winner keeps its position in arrival order", func(t *testing.T) {
		older := []core.Record{rec(2025, 1, "C-1", 1), rec(2025, 2, "C-2", 2)}
		incoming := []core.Record{rec(2025, 1, "C-1", 99)}

		merged, _ := MergeRecords(older, nil, incoming)

		if len(merged) != 2 {
			t.Fatalf("expected 2 records, got %d", len(merged))
		}
		if merged[0].ContractNo != "C-1" || merged[0].DPD != 99 {
			t.Errorf("first record = %v, want C-1 with DPD 99", merged[0])
		}
	})
}
