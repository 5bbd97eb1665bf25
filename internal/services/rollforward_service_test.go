package services

import (
	"context"
	"errors"
	"testing"

	"pdroll/internal/core"
	"pdroll/internal/portfolio/memory"
)

// seedWindow fills a store with a full thirteen-month window ending at
// (endYear, endMonth): seven months in the older segment, six in the
// latest, one contract per month, and sets the anchor to the window end.
func seedWindow(t *testing.T, store *memory.Store, endYear, endMonth int) {
	t.Helper()
	ctx := context.Background()
	end := core.MonthEnd(endYear, endMonth)

	var older, latest []core.Record
	for i := core.WindowCapacity - 1; i >= 0; i-- {
		m := end.AddMonths(-i)
		r := core.Record{Month: m, ContractNo: "C-1", Equipment: "Loader", Category: "PD1", DPD: 0}
		if i >= core.LatestCapacity {
			older = append(older, r)
		} else {
			latest = append(latest, r)
		}
	}
	if err := store.WriteSegment(ctx, core.SegmentOlder, older); err != nil {
		t.Fatalf("seed older segment: %v", err)
	}
	if err := store.WriteSegment(ctx, core.SegmentLatest, latest); err != nil {
		t.Fatalf("seed latest segment: %v", err)
	}
	if err := store.WriteAnchor(ctx, end); err != nil {
		t.Fatalf("seed anchor: %v", err)
	}
}

func TestRollForwardService_Advance(t *testing.T) {
	ctx := context.Background()

	t.Run("single month advance", func(t *testing.T) {
		store := memory.New()
		seedWindow(t, store, 2025, 6) // window 06/2024..06/2025, anchor 06/30/2025
		store.SeedSource(core.MonthEnd(2025, 7), []core.Record{
			{Month: core.MonthEnd(2025, 7), ContractNo: "C-1", DPD: 3},
		})

		svc := NewRollForwardService(store, store, store, store)
		result, err := svc.Advance(ctx, core.MonthEnd(2025, 7))
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}

		if result.MonthsIngested != 1 || result.Clamped {
			t.Errorf("result = %+v, want 1 month ingested without clamping", result)
		}
		if !result.Anchor.SameMonth(core.MonthEnd(2025, 7)) {
			t.Errorf("anchor = %s, want 07/2025", result.Anchor)
		}

		anchor, err := store.ReadAnchor(ctx)
		if err != nil {
			t.Fatalf("ReadAnchor: %v", err)
		}
		if !anchor.SameMonth(core.MonthEnd(2025, 7)) {
			t.Errorf("persisted anchor = %s, want 07/2025", anchor)
		}

		// Window is still thirteen months: 07/2024..07/2025. The oldest
		// month 06/2024 rolled off, 07/2024 moved into older and 02/2025
		// is now the oldest latest month.
		older, _ := store.ReadSegment(ctx, core.SegmentOlder)
		latest, _ := store.ReadSegment(ctx, core.SegmentLatest)
		if len(older) != core.OlderCapacity {
			t.Fatalf("older has %d rows, want %d", len(older), core.OlderCapacity)
		}
		if len(latest) != core.LatestCapacity {
			t.Fatalf("latest has %d rows, want %d", len(latest), core.LatestCapacity)
		}
		if !older[0].Month.SameMonth(core.MonthEnd(2024, 7)) {
			t.Errorf("older starts at %s, want 07/2024", older[0].Month)
		}
		if !latest[0].Month.SameMonth(core.MonthEnd(2025, 2)) {
			t.Errorf("latest starts at %s, want 02/2025", latest[0].Month)
		}
		if !latest[len(latest)-1].Month.SameMonth(core.MonthEnd(2025, 7)) {
			t.Errorf("latest ends at %s, want 07/2025", latest[len(latest)-1].Month)
		}
	})

	t.Run("repeat of the same month is a clean no-op", func(t *testing.T) {
		store := memory.New()
		seedWindow(t, store, 2025, 7)

		svc := NewRollForwardService(store, store, store, store)
		_, err := svc.Advance(ctx, core.MonthEnd(2025, 7))
		if !errors.Is(err, core.ErrNoForwardProgress) {
			t.Fatalf("err = %v, want ErrNoForwardProgress", err)
		}

		anchor, _ := store.ReadAnchor(ctx)
		if !anchor.SameMonth(core.MonthEnd(2025, 7)) {
			t.Errorf("anchor moved to %s on a no-op", anchor)
		}
	})

	t.Run("backwards request is rejected", func(t *testing.T) {
		store := memory.New()
		seedWindow(t, store, 2025, 7)

		svc := NewRollForwardService(store, store, store, store)
		_, err := svc.Advance(ctx, core.MonthEnd(2025, 3))
		if !errors.Is(err, core.ErrNoForwardProgress) {
			t.Fatalf("err = %v, want ErrNoForwardProgress", err)
		}
	})

	t.Run("multi-month advance ingests each month in order", func(t *testing.T) {
		store := memory.New()
		seedWindow(t, store, 2025, 4)
		for _, m := range []core.Month{core.MonthEnd(2025, 5), core.MonthEnd(2025, 6), core.MonthEnd(2025, 7)} {
			store.SeedSource(m, []core.Record{{Month: m, ContractNo: "C-1", DPD: 1}})
		}

		svc := NewRollForwardService(store, store, store, store)
		result, err := svc.Advance(ctx, core.MonthEnd(2025, 7))
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
		if result.MonthsIngested != 3 {
			t.Errorf("months ingested = %d, want 3", result.MonthsIngested)
		}
		if !result.Window[len(result.Window)-1].SameMonth(core.MonthEnd(2025, 7)) {
			t.Errorf("window ends at %s, want 07/2025", result.Window[len(result.Window)-1])
		}
	})

	t.Run("requests beyond capacity are clamped", func(t *testing.T) {
		store := memory.New()
		seedWindow(t, store, 2024, 12)
		for i := 1; i <= core.LatestCapacity; i++ {
			m := core.MonthEnd(2024, 12).AddMonths(i)
			store.SeedSource(m, []core.Record{{Month: m, ContractNo: "C-1", DPD: 1}})
		}

		svc := NewRollForwardService(store, store, store, store)
		result, err := svc.Advance(ctx, core.MonthEnd(2025, 12)) // 12 months ahead
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
		if !result.Clamped {
			t.Errorf("expected the request to be clamped")
		}
		if result.MonthsRequested != 12 || result.MonthsIngested != core.LatestCapacity {
			t.Errorf("requested/ingested = %d/%d, want 12/%d",
				result.MonthsRequested, result.MonthsIngested, core.LatestCapacity)
		}
		if !result.Anchor.SameMonth(core.MonthEnd(2025, 6)) {
			t.Errorf("anchor = %s, want 06/2025 (last month actually ingested)", result.Anchor)
		}
	})

	t.Run("missing source month aborts with nothing written", func(t *testing.T) {
		store := memory.New()
		seedWindow(t, store, 2025, 6)
		// 07/2025 never seeded.

		svc := NewRollForwardService(store, store, store, store)
		_, err := svc.Advance(ctx, core.MonthEnd(2025, 7))
		if !errors.Is(err, core.ErrSourceDataMissing) {
			t.Fatalf("err = %v, want ErrSourceDataMissing", err)
		}

		anchor, _ := store.ReadAnchor(ctx)
		if !anchor.SameMonth(core.MonthEnd(2025, 6)) {
			t.Errorf("anchor moved to %s after a failed extract", anchor)
		}
		latest, _ := store.ReadSegment(ctx, core.SegmentLatest)
		if len(latest) != core.LatestCapacity {
			t.Errorf("latest segment changed after a failed extract")
		}
	})

	t.Run("persistence failure leaves the anchor untouched", func(t *testing.T) {
		store := memory.New()
		seedWindow(t, store, 2025, 6)
		store.SeedSource(core.MonthEnd(2025, 7), []core.Record{
			{Month: core.MonthEnd(2025, 7), ContractNo: "C-1", DPD: 1},
		})

		writer := &failingWriter{Store: store}
		svc := NewRollForwardService(store, store, writer, store)
		_, err := svc.Advance(ctx, core.MonthEnd(2025, 7))
		if !errors.Is(err, core.ErrPersistenceFailure) {
			t.Fatalf("err = %v, want ErrPersistenceFailure", err)
		}

		anchor, _ := store.ReadAnchor(ctx)
		if !anchor.SameMonth(core.MonthEnd(2025, 6)) {
			t.Errorf("anchor moved to %s after a failed write", anchor)
		}

		// Same run retried against a healthy writer succeeds.
		svc = NewRollForwardService(store, store, store, store)
		result, err := svc.Advance(ctx, core.MonthEnd(2025, 7))
		if err != nil {
			t.Fatalf("retry after persistence failure: %v", err)
		}
		if !result.Anchor.SameMonth(core.MonthEnd(2025, 7)) {
			t.Errorf("retry anchor = %s, want 07/2025", result.Anchor)
		}
	})

	t.Run("incoming duplicate overrides stored record", func(t *testing.T) {
		store := memory.New()
		seedWindow(t, store, 2025, 6)
		store.SeedSource(core.MonthEnd(2025, 7), []core.Record{
			{Month: core.MonthEnd(2025, 7), ContractNo: "C-1", DPD: 5},
			{Month: core.MonthEnd(2025, 6), ContractNo: "C-1", DPD: 42}, // restated
		})

		svc := NewRollForwardService(store, store, store, store)
		if _, err := svc.Advance(ctx, core.MonthEnd(2025, 7)); err != nil {
			t.Fatalf("Advance: %v", err)
		}

		latest, _ := store.ReadSegment(ctx, core.SegmentLatest)
		var found bool
		for _, r := range latest {
			if r.Month.SameMonth(core.MonthEnd(2025, 6)) && r.ContractNo == "C-1" {
				found = true
				if r.DPD != 42 {
					t.Errorf("restated record DPD = %d, want 42", r.DPD)
				}
			}
		}
		if !found {
			t.Errorf("restated 06/2025 record not found in latest segment")
		}
	})

	t.Run("missing anchor surfaces the config error", func(t *testing.T) {
		store := memory.New()
		svc := NewRollForwardService(store, store, store, store)
		_, err := svc.Advance(ctx, core.MonthEnd(2025, 7))
		if !errors.Is(err, core.ErrConfigMissing) {
			t.Fatalf("err = %v, want ErrConfigMissing", err)
		}
	})
}

// failingWriter wraps the memory store and fails every segment write.
type failingWriter struct {
	*memory.Store
}

func (w *failingWriter) WriteSegment(context.Context, core.Segment, []core.Record) error {
	return errors.New("write rejected")
}
