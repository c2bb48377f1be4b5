// Command migrate loads a legacy records file (CSV or XLSX) into the
// configured store. Rows already present are skipped, so it is safe to
// re-run on a partially migrated store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dcoutinho/notacheck/internal/config"
	"github.com/dcoutinho/notacheck/internal/importer"
	"github.com/dcoutinho/notacheck/internal/verification/store"
)

func main() {
	var path string

	flag.StringVar(&path, "file", "", "records file to import (.csv or .xlsx)")
	flag.Parse()

	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: migrate -file <records.csv|records.xlsx>")
		os.Exit(2)
	}

	if err := run(context.Background(), path); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	recordStore, err := store.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var src importer.Source

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		src = importer.NewCSVSource(file)
	case ".xlsx", ".xls":
		src = importer.NewXLSXSource(file)
	default:
		return fmt.Errorf("unsupported file type %q (use .csv or .xlsx)", filepath.Ext(path))
	}

	result, err := importer.New(recordStore, cfg.Import.BatchSize).ImportSource(ctx, src)
	if err != nil {
		return err
	}

	slog.Info("migration finished",
		"file", path,
		"store", cfg.Store.Backend,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)

	return nil
}
