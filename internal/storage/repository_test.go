package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"pdroll/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "pdroll.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryAnchor(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	if _, err := repo.ReadAnchor(ctx); !errors.Is(err, core.ErrConfigMissing) {
		t.Fatalf("ReadAnchor on fresh db = %v, want ErrConfigMissing", err)
	}

	if err := repo.WriteAnchor(ctx, core.MonthEnd(2025, 6)); err != nil {
		t.Fatalf("WriteAnchor: %v", err)
	}
	got, err := repo.ReadAnchor(ctx)
	if err != nil {
		t.Fatalf("ReadAnchor: %v", err)
	}
	if !got.SameMonth(core.MonthEnd(2025, 6)) {
		t.Errorf("anchor = %s, want 06/2025", got)
	}

	// Overwrite moves it.
	if err := repo.WriteAnchor(ctx, core.MonthEnd(2025, 7)); err != nil {
		t.Fatalf("WriteAnchor overwrite: %v", err)
	}
	got, _ = repo.ReadAnchor(ctx)
	if !got.SameMonth(core.MonthEnd(2025, 7)) {
		t.Errorf("anchor = %s, want 07/2025", got)
	}
}

func TestSQLiteRepositorySegments(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	records := []core.Record{
		{Month: core.MonthEnd(2025, 6), ContractNo: "C-1", Equipment: "Excavator", Category: "PD2", DPD: 15},
		{Month: core.MonthEnd(2025, 7), ContractNo: "C-2", Equipment: "Loader", Category: "PD1", DPD: 0},
	}
	if err := repo.WriteSegment(ctx, core.SegmentLatest, records); err != nil {
		t.Fatalf("WriteSegment: %v", err)
	}

	got, err := repo.ReadSegment(ctx, core.SegmentLatest)
	if err != nil {
		t.Fatalf("ReadSegment: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d records, want 2", len(got))
	}
	if got[0].ContractNo != "C-1" || got[0].Equipment != "Excavator" ||
		got[0].Category != "PD2" || got[0].DPD != 15 {
		t.Errorf("record 0 = %+v", got[0])
	}
	if !got[0].Month.SameMonth(core.MonthEnd(2025, 6)) {
		t.Errorf("record 0 month = %s, want 06/2025", got[0].Month)
	}

	// A rewrite replaces the previous contents entirely.
	if err := repo.WriteSegment(ctx, core.SegmentLatest, records[:1]); err != nil {
		t.Fatalf("WriteSegment rewrite: %v", err)
	}
	got, _ = repo.ReadSegment(ctx, core.SegmentLatest)
	if len(got) != 1 {
		t.Errorf("after rewrite read %d records, want 1", len(got))
	}

	// Segments are isolated from each other.
	older, err := repo.ReadSegment(ctx, core.SegmentOlder)
	if err != nil {
		t.Fatalf("ReadSegment(older): %v", err)
	}
	if len(older) != 0 {
		t.Errorf("older segment has %d records, want 0", len(older))
	}

	if _, err := repo.ReadSegment(ctx, core.Segment("bogus")); err == nil {
		t.Errorf("expected error for invalid segment")
	}
}

func TestSQLiteRepositoryExtractMonth(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	m := core.MonthEnd(2025, 7)
	if _, err := repo.ExtractMonth(ctx, m); !errors.Is(err, core.ErrSourceDataMissing) {
		t.Fatalf("ExtractMonth unstaged = %v, want ErrSourceDataMissing", err)
	}

	staged := []core.Record{
		{Month: m, ContractNo: "C-1", Equipment: "Crane", Category: "PD3", DPD: 7},
		{Month: m, ContractNo: "C-2", Equipment: "Loader", Category: "PD1", DPD: 0},
	}
	if err := repo.StageSummaryRecords(ctx, m, staged); err != nil {
		t.Fatalf("StageSummaryRecords: %v", err)
	}

	got, err := repo.ExtractMonth(ctx, m)
	if err != nil {
		t.Fatalf("ExtractMonth: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("extracted %d records, want 2", len(got))
	}
	for _, r := range got {
		if !r.Month.SameMonth(m) {
			t.Errorf("record %s month = %s, want %s", r.ContractNo, r.Month, m)
		}
	}

	// Restaging a month replaces its previous rows.
	if err := repo.StageSummaryRecords(ctx, m, staged[:1]); err != nil {
		t.Fatalf("StageSummaryRecords restage: %v", err)
	}
	got, _ = repo.ExtractMonth(ctx, m)
	if len(got) != 1 {
		t.Errorf("after restage extracted %d records, want 1", len(got))
	}

	// Other months stay unaffected.
	if _, err := repo.ExtractMonth(ctx, core.MonthEnd(2025, 8)); !errors.Is(err, core.ErrSourceDataMissing) {
		t.Errorf("ExtractMonth(08/2025) = %v, want ErrSourceDataMissing", err)
	}
}
