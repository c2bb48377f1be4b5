package catalog

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXLoader reads planning entries from the first sheet of an Excel
// workbook, the format the planning team maintains the base in.
type XLSXLoader struct {
	Path string
}

func (l *XLSXLoader) Load(_ context.Context) ([]Entry, error) {
	f, err := excelize.OpenFile(l.Path)
	if err != nil {
		return nil, &LoadError{Reason: "opening " + l.Path, Err: err}
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, &LoadError{Reason: "reading rows", Err: err}
	}

	if len(rows) == 0 {
		return nil, &LoadError{Reason: "source has no header row"}
	}

	cols, missing := resolveHeader(rows[0])
	if len(missing) > 0 {
		return nil, &LoadError{Reason: fmt.Sprintf("missing required columns %v", missing)}
	}

	var entries []Entry

	for _, row := range rows[1:] {
		if entry, ok := rowEntry(row, cols); ok {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
