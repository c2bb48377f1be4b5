// Package export renders stored verification records as an Excel workbook,
// the format the operations team archives and audits.
package export

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dcoutinho/notacheck/internal/verification"
)

// Lister is the slice of the record store the exporter needs.
type Lister interface {
	List(ctx context.Context, filter verification.Filter) ([]*verification.Record, error)
}

type Service struct {
	records Lister
}

func NewService(records Lister) *Service {
	return &Service{records: records}
}

const sheetName = "Registros"

var header = []any{
	"uf", "nfe", "pedido", "data_recebimento", "valido",
	"data_planejamento", "decisao", "mensagem", "criado_em",
}

// Export writes an XLSX workbook with the records matching the filter,
// newest first, to w.
func (s *Service) Export(ctx context.Context, filter verification.Filter, w io.Writer) error {
	recs, err := s.records.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+2, err)
		}

		if err := f.SetSheetRow(sheetName, cell, &[]any{
			rec.Region,
			strconv.FormatInt(rec.Invoice, 10),
			strconv.FormatInt(rec.Order, 10),
			formatDate(rec.ReceivedDate),
			formatValid(rec.Valid),
			rec.PlannedDate,
			string(rec.Decision),
			rec.Message,
			rec.CreatedAt.Format(time.RFC3339),
		}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.DateOnly)
}

// The archive keeps the legacy spreadsheet's boolean spelling.
func formatValid(valid bool) string {
	if valid {
		return "Sim"
	}

	return "Não"
}
