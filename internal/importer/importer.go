// Package importer bulk-loads verification records from tabular sources
// into a store. Imports are idempotent: rows already present in the source
// or the store are skipped, and re-running the same source imports nothing
// new. One bad row never stops the rest.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dcoutinho/notacheck/internal/catalog"
	"github.com/dcoutinho/notacheck/internal/dateparse"
	"github.com/dcoutinho/notacheck/internal/verification"
)

// Row is one raw source row, all fields as read from the file. Optional
// fields may be empty; Valid defaults to true when absent.
type Row struct {
	Region       string
	Invoice      string
	Order        string
	ReceivedDate string
	PlannedDate  string
	Decision     string
	Message      string
	Valid        *bool
}

// Source yields all rows of a bulk import file. A source-level failure
// (missing file, unreadable format) is the only error an import raises.
type Source interface {
	Rows(ctx context.Context) ([]Row, error)
}

// Result aggregates an import run.
type Result struct {
	Imported int
	Skipped  int
	Failed   int
	// ImportedKeys lists the keys actually written, in import order.
	ImportedKeys []verification.Key
}

const DefaultBatchSize = 50

type Importer struct {
	store     verification.Store
	batchSize int
}

func New(store verification.Store, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Importer{store: store, batchSize: batchSize}
}

// ImportSource reads all rows from the source and imports them.
func (i *Importer) ImportSource(ctx context.Context, src Source) (*Result, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading import source: %w", err)
	}

	return i.Import(ctx, rows)
}

// Import normalizes, deduplicates and writes the rows in fixed-size
// batches. Within-source duplicates keep the first occurrence; rows whose
// key already exists in the store are skipped; a duplicate race against a
// concurrent writer is also a skip. Row-level failures are counted, never
// raised.
func (i *Importer) Import(ctx context.Context, rows []Row) (*Result, error) {
	result := &Result{}

	records := i.normalize(rows, result)

	existing, err := i.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading existing keys: %w", err)
	}

	for start := 0; start < len(records); start += i.batchSize {
		end := min(start+i.batchSize, len(records))

		if err := i.importBatch(ctx, records[start:end], existing, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// normalize converts raw rows to records, dropping unparseable rows as
// failed and in-source duplicate keys (first occurrence wins) as skipped.
func (i *Importer) normalize(rows []Row, result *Result) []*verification.Record {
	seen := make(map[verification.Key]struct{}, len(rows))
	records := make([]*verification.Record, 0, len(rows))

	for _, row := range rows {
		rec, err := rowRecord(row)
		if err != nil {
			result.Failed++
			continue
		}

		if _, dup := seen[rec.Key()]; dup {
			result.Skipped++
			continue
		}

		seen[rec.Key()] = struct{}{}
		records = append(records, rec)
	}

	return records
}

func (i *Importer) importBatch(ctx context.Context, records []*verification.Record, existing map[verification.Key]struct{}, result *Result) error {
	itx, err := i.store.BeginImport(ctx)
	if err != nil {
		return fmt.Errorf("beginning batch: %w", err)
	}
	defer itx.Rollback()

	var created []verification.Key

	for _, rec := range records {
		if _, exists := existing[rec.Key()]; exists {
			result.Skipped++
			continue
		}

		switch err := itx.Create(ctx, rec); {
		case err == nil:
			created = append(created, rec.Key())
			existing[rec.Key()] = struct{}{}
		case errors.Is(err, verification.ErrDuplicate):
			result.Skipped++
			existing[rec.Key()] = struct{}{}
		default:
			result.Failed++
		}
	}

	if err := itx.Commit(ctx); err != nil {
		// The whole batch is lost, not just one row.
		result.Failed += len(created)
		return nil
	}

	result.Imported += len(created)
	result.ImportedKeys = append(result.ImportedKeys, created...)

	return nil
}

// rowRecord normalizes one raw row into a record. The received date goes
// through the shared date parser, so any of the accepted human formats
// works here too.
func rowRecord(row Row) (*verification.Record, error) {
	region := catalog.NormalizeRegion(row.Region)
	if region == "" {
		return nil, fmt.Errorf("missing region")
	}

	invoice, err := strconv.ParseInt(strings.TrimSpace(row.Invoice), 10, 64)
	if err != nil || invoice < 0 {
		return nil, fmt.Errorf("invalid invoice %q", row.Invoice)
	}

	order, err := strconv.ParseInt(strings.TrimSpace(row.Order), 10, 64)
	if err != nil || order < 0 {
		return nil, fmt.Errorf("invalid order %q", row.Order)
	}

	received, err := dateparse.Parse(row.ReceivedDate)
	if err != nil {
		return nil, fmt.Errorf("invalid received date: %w", err)
	}

	valid := true
	if row.Valid != nil {
		valid = *row.Valid
	}

	return &verification.Record{
		Region:       region,
		Invoice:      invoice,
		Order:        order,
		ReceivedDate: received.Time(),
		Valid:        valid,
		PlannedDate:  strings.TrimSpace(row.PlannedDate),
		Decision:     verification.Outcome(strings.TrimSpace(row.Decision)),
		Message:      strings.TrimSpace(row.Message),
	}, nil
}
