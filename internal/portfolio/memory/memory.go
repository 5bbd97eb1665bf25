// Package memory provides an in-memory portfolio store, used by the
// memory backend and as a test double.
package memory

import (
	"context"
	"fmt"
	"sync"

	"pdroll/internal/core"
	"pdroll/internal/portfolio"
)

type Store struct {
	mu        sync.Mutex
	anchor    core.Month
	hasAnchor bool
	segments  map[core.Segment][]core.Record
	sources   map[int][]core.Record // month index -> extraction source
}

// Ensure interface conformance
var (
	_ portfolio.SegmentReader  = (*Store)(nil)
	_ portfolio.SegmentWriter  = (*Store)(nil)
	_ portfolio.AnchorStore    = (*Store)(nil)
	_ portfolio.MonthExtractor = (*Store)(nil)
)

func New() *Store {
	return &Store{
		segments: make(map[core.Segment][]core.Record),
		sources:  make(map[int][]core.Record),
	}
}

func (s *Store) ReadSegment(_ context.Context, seg core.Segment) ([]core.Record, error) {
	if !seg.IsValid() {
		return nil, fmt.Errorf("invalid segment: %s", seg)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.segments[seg]...), nil
}

func (s *Store) WriteSegment(_ context.Context, seg core.Segment, records []core.Record) error {
	if !seg.IsValid() {
		return fmt.Errorf("invalid segment: %s", seg)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments[seg] = append([]core.Record(nil), records...)
	return nil
}

func (s *Store) ReadAnchor(_ context.Context) (core.Month, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasAnchor {
		return core.Month{}, core.ErrConfigMissing
	}
	return s.anchor, nil
}

func (s *Store) WriteAnchor(_ context.Context, m core.Month) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anchor = m
	s.hasAnchor = true
	return nil
}

func (s *Store) ExtractMonth(_ context.Context, m core.Month) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, ok := s.sources[monthIndex(m)]
	if !ok {
		return nil, fmt.Errorf("month %s: %w", m, core.ErrSourceDataMissing)
	}
	return append([]core.Record(nil), recs...), nil
}

// SeedSource registers extraction records for a month, replacing any
// previous seed for that month.
func (s *Store) SeedSource(m core.Month, records []core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[monthIndex(m)] = append([]core.Record(nil), records...)
}

func monthIndex(m core.Month) int {
	return m.Year()*12 + int(m.Month())
}
