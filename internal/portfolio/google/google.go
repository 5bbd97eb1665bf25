// Package google implements the portfolio ports on a Google Sheets
// workbook. The older and latest segments are the Portfolio_1 and
// Portfolio_2 tabs, monthly extraction sources are per-month summary
// tabs, and the anchor lives in a config cell.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"pdroll/internal/core"
	applog "pdroll/internal/log"
	"pdroll/internal/portfolio"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Portfolio tab layout, fixed by the workbook: A=month, B=contract no,
// D=equipment, E=category, F=DPD. Column C is formula-owned and never
// read or written.
const (
	segmentKeyRange  = "A2:B" // month, contract no
	segmentAttrRange = "D2:F" // equipment, category, dpd
	segmentReadRange = "A2:F"
	summaryReadRange = "A1:Z"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	olderSheet    string
	latestSheet   string
	summaryPrefix string
	anchorRange   string
}

// Ensure interface conformance
var (
	_ portfolio.SegmentReader  = (*Client)(nil)
	_ portfolio.SegmentWriter  = (*Client)(nil)
	_ portfolio.AnchorStore    = (*Client)(nil)
	_ portfolio.MonthExtractor = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional tab names: PORTFOLIO_OLDER_SHEET (default "Portfolio_1"),
// PORTFOLIO_LATEST_SHEET (default "Portfolio_2"),
// SUMMARY_SHEET_PREFIX (default "Summary"),
// ANCHOR_CELL (default "Config!B1").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	olderSheet := strings.TrimSpace(os.Getenv("PORTFOLIO_OLDER_SHEET"))
	if olderSheet == "" {
		olderSheet = "Portfolio_1"
	}
	latestSheet := strings.TrimSpace(os.Getenv("PORTFOLIO_LATEST_SHEET"))
	if latestSheet == "" {
		latestSheet = "Portfolio_2"
	}
	summaryPrefix := strings.TrimSpace(os.Getenv("SUMMARY_SHEET_PREFIX"))
	if summaryPrefix == "" {
		summaryPrefix = "Summary"
	}
	anchorRange := strings.TrimSpace(os.Getenv("ANCHOR_CELL"))
	if anchorRange == "" {
		anchorRange = "Config!B1"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		olderSheet:    olderSheet,
		latestSheet:   latestSheet,
		summaryPrefix: summaryPrefix,
		anchorRange:   anchorRange,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) segmentSheet(seg core.Segment) (string, error) {
	switch seg {
	case core.SegmentOlder:
		return c.olderSheet, nil
	case core.SegmentLatest:
		return c.latestSheet, nil
	default:
		return "", fmt.Errorf("invalid segment: %s", seg)
	}
}

// ReadSegment implements portfolio.SegmentReader
func (c *Client) ReadSegment(ctx context.Context, seg core.Segment) ([]core.Record, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	sheet, err := c.segmentSheet(seg)
	if err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("%s!%s", sheet, segmentReadRange)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseSegmentRows(resp.Values), nil
}

// WriteSegment implements portfolio.SegmentWriter. The record list
// replaces the tab's contents verbatim. The formula-owned column C is
// left untouched: keys go to A:B and attributes to D:F.
func (c *Client) WriteSegment(ctx context.Context, seg core.Segment, records []core.Record) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet, err := c.segmentSheet(seg)
	if err != nil {
		return err
	}

	for _, rng := range []string{segmentKeyRange, segmentAttrRange} {
		full := fmt.Sprintf("%s!%s", sheet, rng)
		if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, full, &gsheet.ClearValuesRequest{}).
			Context(ctx).Do(); err != nil {
			return fmt.Errorf("clear %s: %w", full, err)
		}
	}

	if len(records) == 0 {
		return nil
	}

	keys := make([][]any, 0, len(records))
	attrs := make([][]any, 0, len(records))
	for _, rec := range records {
		keys = append(keys, []any{core.FormatMonthDate(rec.Month), rec.ContractNo})
		attrs = append(attrs, []any{rec.Equipment, rec.Category, rec.DPD})
	}

	lastRow := len(records) + 1
	keyRange := fmt.Sprintf("%s!A2:B%d", sheet, lastRow)
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, keyRange, &gsheet.ValueRange{Values: keys}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", keyRange, err)
	}

	attrRange := fmt.Sprintf("%s!D2:F%d", sheet, lastRow)
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, attrRange, &gsheet.ValueRange{Values: attrs}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", attrRange, err)
	}

	slog.InfoContext(ctx, "Segment written to sheet",
		applog.FieldComponent, applog.ComponentSheets,
		applog.FieldOperation, applog.OpPersist,
		"sheet", sheet,
		applog.FieldSegment, string(seg),
		applog.FieldRows, len(records))
	return nil
}

// ReadAnchor implements portfolio.AnchorStore
func (c *Client) ReadAnchor(ctx context.Context) (core.Month, error) {
	if c.svc == nil {
		return core.Month{}, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.anchorRange).Context(ctx).Do()
	if err != nil {
		return core.Month{}, fmt.Errorf("read %s: %w", c.anchorRange, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return core.Month{}, fmt.Errorf("%s is empty: %w", c.anchorRange, core.ErrConfigMissing)
	}
	text := strings.TrimSpace(fmt.Sprint(resp.Values[0][0]))
	if text == "" {
		return core.Month{}, fmt.Errorf("%s is empty: %w", c.anchorRange, core.ErrConfigMissing)
	}
	m, err := core.ParseMonthDate(text)
	if err != nil {
		return core.Month{}, fmt.Errorf("%s: %v: %w", c.anchorRange, err, core.ErrConfigInvalid)
	}
	return m, nil
}

// WriteAnchor implements portfolio.AnchorStore
func (c *Client) WriteAnchor(ctx context.Context, m core.Month) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: [][]any{{core.FormatMonthDate(m)}}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.anchorRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", c.anchorRange, err)
	}
	return nil
}

// ExtractMonth implements portfolio.MonthExtractor by reading the
// per-month summary tab (e.g. "Summary 2025-07") and mapping its named
// columns onto records.
func (c *Client) ExtractMonth(ctx context.Context, m core.Month) ([]core.Record, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	sheet := c.summarySheetName(m)
	rng := fmt.Sprintf("%s!%s", sheet, summaryReadRange)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", rng, err, core.ErrSourceDataMissing)
	}
	records, err := parseSummary(resp.Values, m)
	if err != nil {
		return nil, fmt.Errorf("summary sheet %s: %w", sheet, err)
	}
	return records, nil
}

func (c *Client) summarySheetName(m core.Month) string {
	return fmt.Sprintf("%s %04d-%02d", c.summaryPrefix, m.Year(), int(m.Month()))
}
