package importer

import (
	"strings"
)

// Header cells are matched case-insensitively; the aliases cover the
// Portuguese legacy exports and their English equivalents.
var columnAliases = map[string][]string{
	"region":        {"uf", "region"},
	"invoice":       {"nfe", "invoice"},
	"order":         {"pedido", "order"},
	"received_date": {"data_recebimento", "received_date", "data recebimento"},
	"planned_date":  {"data_planejamento", "planned_date", "data planejamento"},
	"decision":      {"decisao", "decisão", "decision"},
	"message":       {"mensagem", "message"},
	"valid":         {"valido", "válido", "valid"},
}

var requiredColumns = []string{"region", "invoice", "order", "received_date"}

// resolveHeader maps a header row to logical column indexes and reports
// whether every required column is present.
func resolveHeader(header []string) (map[string]int, bool) {
	byName := make(map[string]int, len(header))
	for i, cell := range header {
		byName[strings.ToLower(strings.TrimSpace(cell))] = i
	}

	cols := make(map[string]int)

	for logical, names := range columnAliases {
		for _, name := range names {
			if i, ok := byName[name]; ok {
				cols[logical] = i
				break
			}
		}
	}

	for _, logical := range requiredColumns {
		if _, ok := cols[logical]; !ok {
			return nil, false
		}
	}

	return cols, true
}

func cellAt(row []string, cols map[string]int, logical string) string {
	i, ok := cols[logical]
	if !ok || i >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[i])
}

// tableRows converts a header-plus-data cell table into Rows. Blank lines
// are skipped; everything else is kept so bad rows surface as failures in
// the import counts rather than disappearing silently.
func tableRows(table [][]string) ([]Row, bool) {
	if len(table) == 0 {
		return nil, false
	}

	cols, ok := resolveHeader(table[0])
	if !ok {
		return nil, false
	}

	rows := make([]Row, 0, len(table)-1)

	for _, cells := range table[1:] {
		if isBlank(cells) {
			continue
		}

		row := Row{
			Region:       cellAt(cells, cols, "region"),
			Invoice:      cellAt(cells, cols, "invoice"),
			Order:        cellAt(cells, cols, "order"),
			ReceivedDate: cellAt(cells, cols, "received_date"),
			PlannedDate:  cellAt(cells, cols, "planned_date"),
			Decision:     cellAt(cells, cols, "decision"),
			Message:      cellAt(cells, cols, "message"),
		}

		if v := cellAt(cells, cols, "valid"); v != "" {
			valid := parseValid(v)
			row.Valid = &valid
		}

		rows = append(rows, row)
	}

	return rows, true
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}

// parseValid accepts the boolean spellings the legacy files contain.
func parseValid(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "nao", "não", "0", "n":
		return false
	default:
		return true
	}
}
