package importer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoutinho/notacheck/internal/importer"
	"github.com/dcoutinho/notacheck/internal/verification"
	"github.com/dcoutinho/notacheck/internal/verification/store/memory"
)

func row(region, invoice, order, received string) importer.Row {
	return importer.Row{
		Region:       region,
		Invoice:      invoice,
		Order:        order,
		ReceivedDate: received,
	}
}

func TestImporter_Import(t *testing.T) {
	type testCase struct {
		name         string
		existing     []importer.Row
		rows         []importer.Row
		wantImported int
		wantSkipped  int
		wantFailed   int
	}

	tests := []testCase{
		{
			name: "AllNew",
			rows: []importer.Row{
				row("SP", "1", "10", "2025-05-15"),
				row("SP", "2", "20", "2025-05-16"),
				row("RJ", "3", "30", "15/05/2025"),
			},
			wantImported: 3,
		},
		{
			name: "InSourceDuplicateKeepsFirst",
			rows: []importer.Row{
				row("SP", "1", "10", "2025-05-15"),
				row("sp", "1", "99", "2025-05-16"),
			},
			wantImported: 1,
			wantSkipped:  1,
		},
		{
			name: "ExistingKeysSkipped",
			existing: []importer.Row{
				row("SP", "1", "10", "2025-05-15"),
			},
			rows: []importer.Row{
				row("SP", "1", "10", "2025-05-15"),
				row("SP", "2", "20", "2025-05-16"),
			},
			wantImported: 1,
			wantSkipped:  1,
		},
		{
			name: "BadRowsFailButDoNotStopTheRest",
			rows: []importer.Row{
				row("", "1", "10", "2025-05-15"),
				row("SP", "abc", "10", "2025-05-15"),
				row("SP", "2", "-5", "2025-05-15"),
				row("SP", "3", "30", "not a date"),
				row("SP", "4", "40", "2025-05-15"),
			},
			wantImported: 1,
			wantFailed:   4,
		},
		{
			name: "EmptySource",
			rows: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.New()

			if len(tt.existing) > 0 {
				_, err := importer.New(store, 0).Import(ctx, tt.existing)
				require.NoError(t, err)
			}

			result, err := importer.New(store, 0).Import(ctx, tt.rows)
			require.NoError(t, err)

			assert.Equal(t, tt.wantImported, result.Imported)
			assert.Equal(t, tt.wantSkipped, result.Skipped)
			assert.Equal(t, tt.wantFailed, result.Failed)
			assert.Len(t, result.ImportedKeys, tt.wantImported)
		})
	}
}

func TestImporter_RerunImportsNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	imp := importer.New(store, 0)

	rows := []importer.Row{
		row("SP", "1", "10", "2025-05-15"),
		row("RJ", "2", "20", "2025-05-16"),
	}

	first, err := imp.Import(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Imported)

	second, err := imp.Import(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 2, second.Skipped)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestImporter_SmallBatchesAllCommit(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	imp := importer.New(store, 2)

	var rows []importer.Row
	for _, invoice := range []string{"1", "2", "3", "4", "5"} {
		rows = append(rows, row("SP", invoice, "10", "2025-05-15"))
	}

	result, err := imp.Import(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Imported)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 5)
}

func TestImporter_RowFieldsCarryThrough(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	valid := false
	rows := []importer.Row{
		{
			Region:       "sp",
			Invoice:      "15733",
			Order:        "75710",
			ReceivedDate: "15/05/2025",
			PlannedDate:  "2025/maio",
			Decision:     "open_now",
			Message:      "migrado do sistema legado",
			Valid:        &valid,
		},
	}

	result, err := importer.New(store, 0).Import(ctx, rows)
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	rec, err := store.FindByKey(ctx, "SP", 15733)
	require.NoError(t, err)
	assert.Equal(t, int64(75710), rec.Order)
	assert.Equal(t, "2025/maio", rec.PlannedDate)
	assert.Equal(t, verification.OutcomeOpenNow, rec.Decision)
	assert.Equal(t, "migrado do sistema legado", rec.Message)
	assert.False(t, rec.Valid)
	assert.Equal(t, "2025-05-15", rec.ReceivedDate.Format("2006-01-02"))
}

func TestCSVSource(t *testing.T) {
	csv := strings.Join([]string{
		"UF;Nfe;Pedido;Data_Recebimento;Data_Planejamento;Decisao;Valido",
		"SP;1;10;2025-05-15;2025/maio;open_now;sim",
		"RJ;2;20;16/05/2025;;;nao",
		"",
	}, "\n")

	src := importer.NewCSVSource(strings.NewReader(csv))

	rows, err := src.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "SP", rows[0].Region)
	assert.Equal(t, "2025/maio", rows[0].PlannedDate)
	require.NotNil(t, rows[0].Valid)
	assert.True(t, *rows[0].Valid)

	assert.Equal(t, "16/05/2025", rows[1].ReceivedDate)
	require.NotNil(t, rows[1].Valid)
	assert.False(t, *rows[1].Valid)
}

func TestCSVSource_MissingColumns(t *testing.T) {
	src := importer.NewCSVSource(strings.NewReader("UF;Nfe\nSP;1\n"))

	_, err := src.Rows(context.Background())
	assert.Error(t, err)
}

func TestCSVSource_ThenImport(t *testing.T) {
	csv := "uf,nfe,pedido,data_recebimento\nSP,1,10,2025-05-15\nSP,1,10,2025-05-15\n"

	ctx := context.Background()
	store := memory.New()

	result, err := importer.New(store, 0).ImportSource(ctx, importer.NewCSVSource(strings.NewReader(csv)))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
}
