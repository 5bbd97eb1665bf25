package backend

import (
	"context"

	"pdroll/internal/portfolio"
)

// Backend bundles every port the roll-forward service needs from one
// external store.
type Backend interface {
	portfolio.SegmentReader
	portfolio.SegmentWriter
	portfolio.AnchorStore
	portfolio.MonthExtractor
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific; the anchor pairs with a plain-text file
	// since the workbook has no natural scalar slot outside the config
	// cell fallback.
	GoogleSpreadsheetID string
	AnchorFilePath      string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// IsValid reports whether the backend type is one of the supported values
func (t BackendType) IsValid() bool {
	switch t {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	}
	return false
}
