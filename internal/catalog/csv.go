package catalog

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/dcoutinho/notacheck/internal/encoding"
)

// CSVLoader reads planning entries from a delimited text file. The source is
// typically a spreadsheet re-export, so the encoding is sniffed (latin-1 is
// common) and both ';' and ',' delimiters are accepted.
type CSVLoader struct {
	Path string
}

func (l *CSVLoader) Load(_ context.Context) ([]Entry, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, &LoadError{Reason: "opening " + l.Path, Err: err}
	}
	defer f.Close()

	utf8r, err := encoding.NewUTF8Reader(f)
	if err != nil {
		return nil, &LoadError{Reason: "detecting encoding", Err: err}
	}

	br := bufio.NewReader(utf8r)

	reader := csv.NewReader(br)
	reader.Comma = encoding.DetectDelimiter(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &LoadError{Reason: "reading csv", Err: err}
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
