// Package gsheets implements the verification Store on a Google Sheets
// worksheet. Sheets has no uniqueness constraints, so Create performs an
// explicit existence check immediately before appending; under the API's
// quota every outbound call is spaced by the pacer.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dcoutinho/notacheck/internal/verification"
)

// Config carries the connection settings for the spreadsheet backend.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	// MinCallInterval is the minimum spacing between any two outbound
	// Sheets calls. 1.1s stays under the 60 writes/min/user quota.
	MinCallInterval time.Duration
}

type Store struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	pacer         *pacer

	sheetID      int64
	sheetIDValid bool
}

// Column layout of the worksheet, header in row 1:
// id, region, invoice, order, received_date, valid, planned_date,
// decision, message, created_at, updated_at.
const (
	dataRange   = "!A2:K"
	columnCount = 11
	firstRow    = 2
)

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}

	return &Store{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		pacer:         newPacer(cfg.MinCallInterval),
	}, nil
}

// row pairs a parsed record with its worksheet row number.
type row struct {
	rec *verification.Record
	num int64
}

func (s *Store) readAll(ctx context.Context) ([]row, error) {
	if err := s.pacer.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+dataRange).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading worksheet: %w", err)
	}

	rows := make([]row, 0, len(resp.Values))

	for i, cells := range resp.Values {
		rec, err := parseRow(cells)
		if err != nil {
			// Hand-edited rows happen; a broken one must not take the
			// whole store down.
			continue
		}

		rows = append(rows, row{rec: rec, num: int64(firstRow + i)})
	}

	return rows, nil
}

func (s *Store) Create(ctx context.Context, rec *verification.Record) error {
	rows, err := s.readAll(ctx)
	if err != nil {
		return err
	}

	for _, r := range rows {
		if r.rec.Key() == rec.Key() {
			return verification.ErrDuplicate
		}
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	return s.appendRows(ctx, [][]any{renderRow(rec)})
}

func (s *Store) appendRows(ctx context.Context, values [][]any) error {
	if err := s.pacer.wait(ctx); err != nil {
		return err
	}

	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetName+dataRange,
		&sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending rows: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*verification.Record, error) {
	r, err := s.findRow(ctx, id)
	if err != nil {
		return nil, err
	}

	return r.rec, nil
}

func (s *Store) findRow(ctx context.Context, id uuid.UUID) (row, error) {
	rows, err := s.readAll(ctx)
	if err != nil {
		return row{}, err
	}

	for _, r := range rows {
		if r.rec.ID == id {
			return r, nil
		}
	}

	return row{}, verification.ErrNotFound
}

func (s *Store) FindByKey(ctx context.Context, region string, invoice int64) (*verification.Record, error) {
	rows, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	key := verification.Key{Region: region, Invoice: invoice}

	for _, r := range rows {
		if r.rec.Key() == key {
			return r.rec, nil
		}
	}

	return nil, verification.ErrNotFound
}

func (s *Store) List(ctx context.Context, filter verification.Filter) ([]*verification.Record, error) {
	rows, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	var recs []*verification.Record

	for _, r := range rows {
		rec := r.rec

		if filter.Region != nil && rec.Region != *filter.Region {
			continue
		}

		if filter.Valid != nil && rec.Valid != *filter.Valid {
			continue
		}

		if filter.Decision != nil && rec.Decision != *filter.Decision {
			continue
		}

		recs = append(recs, rec)

		if filter.Limit > 0 && len(recs) == filter.Limit {
			break
		}
	}

	return recs, nil
}

func (s *Store) Update(ctx context.Context, id uuid.UUID, params verification.UpdateParams) (*verification.Record, error) {
	r, err := s.findRow(ctx, id)
	if err != nil {
		return nil, err
	}

	rec := r.rec

	if params.ReceivedDate != nil {
		rec.ReceivedDate = *params.ReceivedDate
	}

	if params.Valid != nil {
		rec.Valid = *params.Valid
	}

	if params.PlannedDate != nil {
		rec.PlannedDate = *params.PlannedDate
	}

	if params.Decision != nil {
		rec.Decision = *params.Decision
	}

	if params.Message != nil {
		rec.Message = *params.Message
	}

	rec.UpdatedAt = time.Now().UTC()

	if err := s.pacer.wait(ctx); err != nil {
		return nil, err
	}

	cellRange := fmt.Sprintf("%s!A%d:K%d", s.sheetName, r.num, r.num)

	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, cellRange,
		&sheets.ValueRange{Values: [][]any{renderRow(rec)}}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("updating row %d: %w", r.num, err)
	}

	return rec, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r, err := s.findRow(ctx, id)
	if err != nil {
		if errors.Is(err, verification.ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	sheetID, err := s.resolveSheetID(ctx)
	if err != nil {
		return false, err
	}

	if err := s.pacer.wait(ctx); err != nil {
		return false, err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: r.num - 1,
					EndIndex:   r.num,
				},
			},
		}},
	}

	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("deleting row %d: %w", r.num, err)
	}

	return true, nil
}

func (s *Store) resolveSheetID(ctx context.Context) (int64, error) {
	if s.sheetIDValid {
		return s.sheetID, nil
	}

	if err := s.pacer.wait(ctx); err != nil {
		return 0, err
	}

	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("reading spreadsheet metadata: %w", err)
	}

	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == s.sheetName {
			s.sheetID = sheet.Properties.SheetId
			s.sheetIDValid = true

			return s.sheetID, nil
		}
	}

	return 0, fmt.Errorf("worksheet %q not found", s.sheetName)
}

func (s *Store) Keys(ctx context.Context) (map[verification.Key]struct{}, error) {
	rows, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	keys := make(map[verification.Key]struct{}, len(rows))
	for _, r := range rows {
		keys[r.rec.Key()] = struct{}{}
	}

	return keys, nil
}

// importTx stages rows in memory and flushes them in one Append call per
// batch. Existing keys are snapshotted with a single read at Begin.
type importTx struct {
	store    *Store
	existing map[verification.Key]struct{}
	staged   []*verification.Record
}

func (s *Store) BeginImport(ctx context.Context) (verification.ImportTx, error) {
	existing, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}

	return &importTx{store: s, existing: existing}, nil
}

func (itx *importTx) Create(_ context.Context, rec *verification.Record) error {
	if _, exists := itx.existing[rec.Key()]; exists {
		return verification.ErrDuplicate
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	itx.existing[rec.Key()] = struct{}{}
	itx.staged = append(itx.staged, rec)

	return nil
}

func (itx *importTx) Commit(ctx context.Context) error {
	if len(itx.staged) == 0 {
		return nil
	}

	values := make([][]any, len(itx.staged))
	for i, rec := range itx.staged {
		values[i] = renderRow(rec)
	}

	if err := itx.store.appendRows(ctx, values); err != nil {
		return err
	}

	itx.staged = nil

	return nil
}

func (itx *importTx) Rollback() error {
	itx.staged = nil

	return nil
}

func renderRow(rec *verification.Record) []any {
	received := ""
	if !rec.ReceivedDate.IsZero() {
		received = rec.ReceivedDate.Format(time.DateOnly)
	}

	return []any{
		rec.ID.String(),
		rec.Region,
		strconv.FormatInt(rec.Invoice, 10),
		strconv.FormatInt(rec.Order, 10),
		received,
		strings.ToUpper(strconv.FormatBool(rec.Valid)),
		rec.PlannedDate,
		string(rec.Decision),
		rec.Message,
		rec.CreatedAt.Format(time.RFC3339),
		rec.UpdatedAt.Format(time.RFC3339),
	}
}

func parseRow(cells []any) (*verification.Record, error) {
	get := func(i int) string {
		if i >= len(cells) {
			return ""
		}

		return strings.TrimSpace(fmt.Sprint(cells[i]))
	}

	id, err := uuid.Parse(get(0))
	if err != nil {
		return nil, fmt.Errorf("parsing id: %w", err)
	}

	invoice, err := strconv.ParseInt(get(2), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing invoice: %w", err)
	}

	order, err := strconv.ParseInt(get(3), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing order: %w", err)
	}

	rec := &verification.Record{
		ID:          id,
		Region:      get(1),
		Invoice:     invoice,
		Order:       order,
		Valid:       strings.EqualFold(get(5), "TRUE"),
		PlannedDate: get(6),
		Decision:    verification.Outcome(get(7)),
		Message:     get(8),
	}

	if v := get(4); v != "" {
		rec.ReceivedDate, _ = time.Parse(time.DateOnly, v)
	}

	rec.CreatedAt, _ = time.Parse(time.RFC3339, get(9))
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, get(10))

	return rec, nil
}
