package portfolio

import (
	"context"

	"pdroll/internal/core"
)

// Ports for outbound adapters.
type (
	// SegmentReader returns the records currently held by one segment of
	// the external store.
	SegmentReader interface {
		ReadSegment(ctx context.Context, seg core.Segment) ([]core.Record, error)
	}

	// SegmentWriter replaces one segment's contents with the given record
	// list, written verbatim in the order provided.
	SegmentWriter interface {
		WriteSegment(ctx context.Context, seg core.Segment, records []core.Record) error
	}

	// AnchorStore persists the single "latest month already ingested"
	// value. ReadAnchor reports core.ErrConfigMissing when no value has
	// been persisted and core.ErrConfigInvalid when the stored text does
	// not parse.
	AnchorStore interface {
		ReadAnchor(ctx context.Context) (core.Month, error)
		WriteAnchor(ctx context.Context, m core.Month) error
	}

	// MonthExtractor returns the canonical records extracted for one
	// target month. A month whose source cannot be located yields an
	// error wrapping core.ErrSourceDataMissing.
	MonthExtractor interface {
		ExtractMonth(ctx context.Context, m core.Month) ([]core.Record, error)
	}
)
