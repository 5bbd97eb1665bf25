// Package storage implements the portfolio ports on SQLite. Segment
// contents live in segment_records, the anchor in the roll_config
// key/value table, and monthly extraction sources in the summary_records
// staging table populated by the upstream loader.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pdroll/internal/core"
	applog "pdroll/internal/log"
	"pdroll/internal/portfolio"

	_ "modernc.org/sqlite"
)

const anchorConfigKey = "latest_month"

type SQLiteRepository struct {
	db *sql.DB
}

// Ensure interface conformance
var (
	_ portfolio.SegmentReader  = (*SQLiteRepository)(nil)
	_ portfolio.SegmentWriter  = (*SQLiteRepository)(nil)
	_ portfolio.AnchorStore    = (*SQLiteRepository)(nil)
	_ portfolio.MonthExtractor = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReadAnchor implements portfolio.AnchorStore
func (r *SQLiteRepository) ReadAnchor(ctx context.Context) (core.Month, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM roll_config WHERE key = ?`, anchorConfigKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Month{}, core.ErrConfigMissing
	}
	if err != nil {
		return core.Month{}, fmt.Errorf("read anchor: %w", err)
	}
	m, err := core.ParseMonthDate(value)
	if err != nil {
		return core.Month{}, fmt.Errorf("stored anchor %q: %v: %w", value, err, core.ErrConfigInvalid)
	}
	return m, nil
}

// WriteAnchor implements portfolio.AnchorStore
func (r *SQLiteRepository) WriteAnchor(ctx context.Context, m core.Month) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roll_config (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		anchorConfigKey, core.FormatMonthDate(m))
	if err != nil {
		return fmt.Errorf("write anchor: %w", err)
	}
	return nil
}

// ReadSegment implements portfolio.SegmentReader. Rows whose month text
// no longer parses come back with a zero Month so the merge engine can
// report them instead of failing the run.
func (r *SQLiteRepository) ReadSegment(ctx context.Context, seg core.Segment) ([]core.Record, error) {
	if !seg.IsValid() {
		return nil, fmt.Errorf("invalid segment: %s", seg)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT month, contract_no, equipment, category, dpd
		 FROM segment_records WHERE segment = ? ORDER BY rowid`, string(seg))
	if err != nil {
		return nil, fmt.Errorf("read %s segment: %w", seg, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("read %s segment: %w", seg, err)
	}
	return records, nil
}

// WriteSegment implements portfolio.SegmentWriter. The segment's previous
// contents are replaced in a single transaction.
func (r *SQLiteRepository) WriteSegment(ctx context.Context, seg core.Segment, records []core.Record) error {
	if !seg.IsValid() {
		return fmt.Errorf("invalid segment: %s", seg)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM segment_records WHERE segment = ?`, string(seg)); err != nil {
		return fmt.Errorf("clear %s segment: %w", seg, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO segment_records (segment, month, contract_no, equipment, category, dpd)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			string(seg), core.FormatMonthDate(rec.Month), rec.ContractNo,
			rec.Equipment, rec.Category, rec.DPD); err != nil {
			return fmt.Errorf("insert record %s/%s: %w", rec.Month, rec.ContractNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s segment: %w", seg, err)
	}

	slog.InfoContext(ctx, "Segment written to SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, applog.OpPersist,
		applog.FieldSegment, string(seg),
		applog.FieldRows, len(records))
	return nil
}

// ExtractMonth implements portfolio.MonthExtractor by reading the staging
// table for the requested month.
func (r *SQLiteRepository) ExtractMonth(ctx context.Context, m core.Month) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT month, contract_no, equipment, category, dpd
		 FROM summary_records
		 WHERE substr(month, 7, 4) = ? AND substr(month, 1, 2) = ?
		 ORDER BY rowid`,
		fmt.Sprintf("%04d", m.Year()), fmt.Sprintf("%02d", int(m.Month())))
	if err != nil {
		return nil, fmt.Errorf("extract month %s: %w", m, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("extract month %s: %w", m, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("month %s not staged: %w", m, core.ErrSourceDataMissing)
	}
	return records, nil
}

// StageSummaryRecords loads extraction records for a month into the
// staging table, replacing any records previously staged for that month.
func (r *SQLiteRepository) StageSummaryRecords(ctx context.Context, m core.Month, records []core.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM summary_records WHERE substr(month, 7, 4) = ? AND substr(month, 1, 2) = ?`,
		fmt.Sprintf("%04d", m.Year()), fmt.Sprintf("%02d", int(m.Month()))); err != nil {
		return fmt.Errorf("clear staged month %s: %w", m, err)
	}

	for _, rec := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO summary_records (month, contract_no, equipment, category, dpd)
			 VALUES (?, ?, ?, ?, ?)`,
			core.FormatMonthDate(rec.Month), rec.ContractNo,
			rec.Equipment, rec.Category, rec.DPD); err != nil {
			return fmt.Errorf("stage record %s/%s: %w", rec.Month, rec.ContractNo, err)
		}
	}

	return tx.Commit()
}

func scanRecords(rows *sql.Rows) ([]core.Record, error) {
	var records []core.Record
	for rows.Next() {
		var monthText string
		var rec core.Record
		if err := rows.Scan(&monthText, &rec.ContractNo, &rec.Equipment, &rec.Category, &rec.DPD); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if m, err := core.ParseMonthDate(monthText); err == nil {
			rec.Month = m
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
