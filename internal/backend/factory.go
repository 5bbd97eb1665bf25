package backend

import (
	"context"
	"fmt"
	"log/slog"

	"pdroll/internal/core"
	"pdroll/internal/portfolio"
	"pdroll/internal/portfolio/anchorfile"
	gsheet "pdroll/internal/portfolio/google"
	"pdroll/internal/portfolio/memory"
	"pdroll/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	var result Backend = cli
	if config.AnchorFilePath != "" {
		// Anchor lives beside the workbook in a plain-text file; record
		// storage stays in the sheet.
		result = &sheetsWithFileAnchor{
			Client:  cli,
			anchors: anchorfile.New(config.AnchorFilePath),
		}
		f.logger.Info("Initialized Google Sheets backend with file anchor",
			"anchor_file", config.AnchorFilePath)
	} else {
		f.logger.Info("Initialized Google Sheets backend")
	}

	return &BackendResult{
		Backend: result,
		Cleanup: nil, // No cleanup needed for sheets backend
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(_ Config) (*BackendResult, error) {
	store := memory.New()

	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Backend: store,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}

// sheetsWithFileAnchor overrides the sheet-cell anchor with a text-file
// anchor while keeping segment and extraction access on the workbook.
type sheetsWithFileAnchor struct {
	*gsheet.Client
	anchors portfolio.AnchorStore
}

func (b *sheetsWithFileAnchor) ReadAnchor(ctx context.Context) (core.Month, error) {
	return b.anchors.ReadAnchor(ctx)
}

func (b *sheetsWithFileAnchor) WriteAnchor(ctx context.Context, m core.Month) error {
	return b.anchors.WriteAnchor(ctx, m)
}
