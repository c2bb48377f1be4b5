package catalog

import (
	"strconv"
	"strings"
)

// Column headers are matched case-insensitively against the names the
// sources actually use: the Portuguese base spreadsheet and its English
// re-exports.
var columnAliases = map[string][]string{
	"region":   {"uf", "region", "regiao", "região"},
	"invoice":  {"nfe", "invoice", "nota"},
	"order":    {"pedido", "order"},
	"planning": {"planejamento", "planning", "planning_token"},
	"category": {"categoria", "category"},
}

var requiredColumns = []string{"region", "invoice", "order", "planning"}

// resolveHeader maps a header row to logical column indexes. The second
// return value lists required logical columns that are absent.
func resolveHeader(header []string) (map[string]int, []string) {
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

	var missing []string

	for _, logical := range requiredColumns {
		if _, ok := cols[logical]; !ok {
			missing = append(missing, logical)
		}
	}

	return cols, missing
}

// cellAt returns the trimmed cell at index i, tolerating short rows.
func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[i])
}

// rowEntry converts one data row into an Entry. ok is false when a required
// cell is blank or non-numeric; such rows are skipped, not fatal.
func rowEntry(row []string, cols map[string]int) (Entry, bool) {
	region := cellAt(row, cols["region"])
	planning := cellAt(row, cols["planning"])

	invoice, invErr := strconv.ParseInt(cellAt(row, cols["invoice"]), 10, 64)
	order, ordErr := strconv.ParseInt(cellAt(row, cols["order"]), 10, 64)

	if region == "" || planning == "" || invErr != nil || ordErr != nil {
		return Entry{}, false
	}

	entry := Entry{
		Region:        region,
		Invoice:       invoice,
		Order:         order,
		PlanningToken: planning,
	}

	if i, ok := cols["category"]; ok {
		entry.Category = cellAt(row, i)
	}

	return entry, true
}
