package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dcoutinho/notacheck/internal/catalog"
	"github.com/dcoutinho/notacheck/internal/config"
	"github.com/dcoutinho/notacheck/internal/export"
	notacheckHttp "github.com/dcoutinho/notacheck/internal/http"
	catalogHandler "github.com/dcoutinho/notacheck/internal/http/catalogadmin"
	importsHandler "github.com/dcoutinho/notacheck/internal/http/imports"
	recordsHandler "github.com/dcoutinho/notacheck/internal/http/records"
	verificationsHandler "github.com/dcoutinho/notacheck/internal/http/verifications"
	"github.com/dcoutinho/notacheck/internal/importer"
	"github.com/dcoutinho/notacheck/internal/verification"
	"github.com/dcoutinho/notacheck/internal/verification/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	recordStore, err := store.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to initialize store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}

	cat := catalog.New(newCatalogLoader(cfg.Catalog.Path))

	var (
		verificationService = verification.NewService(cat, recordStore,
			verification.WithManualReviewCategory(cfg.Verify.ManualReviewCategory))
		exportService = export.NewService(recordStore)
		importService = importer.New(recordStore, cfg.Import.BatchSize)
	)

	var (
		verificationsH = verificationsHandler.NewHandler(verificationService)
		recordsH       = recordsHandler.NewHandler(verificationService, exportService)
		catalogH       = catalogHandler.NewHandler(cfg.Catalog.Path, cat)
		importsH       = importsHandler.NewHandler(importService)
	)

	router := notacheckHttp.New(verificationsH, recordsH, catalogH, importsH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port, "store", cfg.Store.Backend)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newCatalogLoader(path string) catalog.Loader {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return &catalog.CSVLoader{Path: path}
	}

	return &catalog.XLSXLoader{Path: path}
}
