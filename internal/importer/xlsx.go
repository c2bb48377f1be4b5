package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads import rows from the first sheet of an Excel workbook.
type XLSXSource struct {
	r io.Reader
}

func NewXLSXSource(r io.Reader) *XLSXSource {
	return &XLSXSource{r: r}
}

func (s *XLSXSource) Rows(_ context.Context) ([]Row, error) {
	f, err := excelize.OpenReader(s.r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	table, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}

	rows, ok := tableRows(table)
	if !ok {
		return nil, fmt.Errorf("source is missing required columns (region, invoice, order, received date)")
	}

	return rows, nil
}
