package services

import (
	"context"
	"fmt"
	"log/slog"

	"pdroll/internal/core"
	applog "pdroll/internal/log"
	"pdroll/internal/portfolio"
)

// RollResult summarizes a completed roll-forward run.
type RollResult struct {
	Anchor          core.Month // new anchor after the advance
	MonthsRequested int
	MonthsIngested  int
	Clamped         bool
	Window          []core.Month
	OlderRows       int
	LatestRows      int
	Warnings        []MergeWarning
}

// RollForwardService sequences one roll-forward run: read the anchor,
// extract the new months, merge, allocate, persist both segments and only
// then advance the anchor. A failed persist leaves the anchor untouched
// so the same run can be retried.
type RollForwardService struct {
	anchors   portfolio.AnchorStore
	reader    portfolio.SegmentReader
	writer    portfolio.SegmentWriter
	extractor portfolio.MonthExtractor
}

func NewRollForwardService(
	anchors portfolio.AnchorStore,
	reader portfolio.SegmentReader,
	writer portfolio.SegmentWriter,
	extractor portfolio.MonthExtractor,
) *RollForwardService {
	return &RollForwardService{
		anchors:   anchors,
		reader:    reader,
		writer:    writer,
		extractor: extractor,
	}
}

// Advance rolls the window forward to endMonth. It returns
// core.ErrNoForwardProgress when endMonth is not after the current anchor;
// that is a clean no-op, not a failure. Requests spanning more than the
// latest segment's capacity are clamped with a warning and the anchor
// advances only to the month actually ingested.
func (s *RollForwardService) Advance(ctx context.Context, endMonth core.Month) (*RollResult, error) {
	anchor, err := s.anchors.ReadAnchor(ctx)
	if err != nil {
		return nil, fmt.Errorf("read anchor: %w", err)
	}

	requested := core.MonthsBetween(anchor, endMonth)
	if requested <= 0 {
		return nil, fmt.Errorf("anchor %s, requested %s: %w", anchor, endMonth, core.ErrNoForwardProgress)
	}

	delta := requested
	clamped := false
	if delta > core.LatestCapacity {
		slog.WarnContext(ctx, "Requested months exceed latest segment capacity, clamping",
			applog.FieldComponent, applog.ComponentRoll,
			applog.FieldOperation, applog.OpAdvance,
			"requested", requested,
			"capacity", core.LatestCapacity)
		delta = core.LatestCapacity
		clamped = true
	}

	slog.InfoContext(ctx, "Starting roll-forward",
		applog.FieldComponent, applog.ComponentRoll,
		applog.FieldOperation, applog.OpAdvance,
		applog.FieldAnchor, anchor.String(),
		applog.FieldEndMonth, endMonth.String(),
		"months", delta)

	// Extract the new months chronologically, starting the month after
	// the anchor. A missing or empty month aborts the run with nothing
	// written.
	var incoming []core.Record
	target := anchor
	for i := 1; i <= delta; i++ {
		m := anchor.AddMonths(i)
		recs, err := s.extractor.ExtractMonth(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("extract month %s: %w", m, err)
		}
		if len(recs) == 0 {
			return nil, fmt.Errorf("extract month %s: no records: %w", m, core.ErrSourceDataMissing)
		}
		slog.InfoContext(ctx, "Extracted month",
			applog.FieldComponent, applog.ComponentRoll,
			applog.FieldOperation, applog.OpExtract,
			applog.FieldMonth, m.String(),
			applog.FieldRows, len(recs))
		incoming = append(incoming, recs...)
		target = m
	}

	older, err := s.reader.ReadSegment(ctx, core.SegmentOlder)
	if err != nil {
		return nil, fmt.Errorf("read %s segment: %w", core.SegmentOlder, err)
	}
	latest, err := s.reader.ReadSegment(ctx, core.SegmentLatest)
	if err != nil {
		return nil, fmt.Errorf("read %s segment: %w", core.SegmentLatest, err)
	}

	merged, warnings := MergeRecords(older, latest, incoming)
	for _, w := range warnings {
		slog.WarnContext(ctx, "Record excluded from merge",
			applog.FieldComponent, applog.ComponentRoll,
			applog.FieldOperation, applog.OpMerge,
			"contract_no", w.ContractNo,
			"reason", w.Reason)
	}

	alloc := AllocateWindow(merged)
	slog.InfoContext(ctx, "Window allocated",
		applog.FieldComponent, applog.ComponentRoll,
		applog.FieldOperation, applog.OpAllocate,
		"window_months", len(alloc.Window),
		"older_rows", len(alloc.Older),
		"latest_rows", len(alloc.Latest))

	if err := s.writer.WriteSegment(ctx, core.SegmentOlder, alloc.Older); err != nil {
		return nil, fmt.Errorf("%w: %s segment: %v", core.ErrPersistenceFailure, core.SegmentOlder, err)
	}
	if err := s.writer.WriteSegment(ctx, core.SegmentLatest, alloc.Latest); err != nil {
		return nil, fmt.Errorf("%w: %s segment: %v", core.ErrPersistenceFailure, core.SegmentLatest, err)
	}

	// The anchor moves to the requested end month, or only to the last
	// month actually ingested when the request was clamped.
	newAnchor := endMonth
	if clamped {
		newAnchor = target
	}
	if err := s.anchors.WriteAnchor(ctx, newAnchor); err != nil {
		return nil, fmt.Errorf("write anchor %s: %w", newAnchor, err)
	}

	slog.InfoContext(ctx, "Roll-forward completed",
		applog.FieldComponent, applog.ComponentRoll,
		applog.FieldOperation, applog.OpAdvance,
		applog.FieldAnchor, newAnchor.String(),
		"months_ingested", delta,
		"clamped", clamped)

	return &RollResult{
		Anchor:          newAnchor,
		MonthsRequested: requested,
		MonthsIngested:  delta,
		Clamped:         clamped,
		Window:          alloc.Window,
		OlderRows:       len(alloc.Older),
		LatestRows:      len(alloc.Latest),
		Warnings:        warnings,
	}, nil
}
