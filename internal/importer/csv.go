package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dcoutinho/notacheck/internal/encoding"
)

// CSVSource reads import rows from a delimited text stream. Encoding is
// sniffed and both ';' and ',' delimiters are accepted, matching what the
// legacy exports actually look like.
type CSVSource struct {
	r io.Reader
}

func NewCSVSource(r io.Reader) *CSVSource {
	return &CSVSource{r: r}
}

func (s *CSVSource) Rows(_ context.Context) ([]Row, error) {
	utf8r, err := encoding.NewUTF8Reader(s.r)
	if err != nil {
		return nil, fmt.Errorf("detecting encoding: %w", err)
	}

	br := bufio.NewReader(utf8r)

	reader := csv.NewReader(br)
	reader.Comma = encoding.DetectDelimiter(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	table, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	rows, ok := tableRows(table)
	if !ok {
		return nil, fmt.Errorf("source is missing required columns (region, invoice, order, received date)")
	}

	return rows, nil
}
