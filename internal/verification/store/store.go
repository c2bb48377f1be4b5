// Package store constructs the record store backend named in configuration.
// Both binaries go through New, so a backend exists for all of them or none.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dcoutinho/notacheck/internal/config"
	"github.com/dcoutinho/notacheck/internal/database"
	"github.com/dcoutinho/notacheck/internal/verification"
	"github.com/dcoutinho/notacheck/internal/verification/store/gsheets"
	"github.com/dcoutinho/notacheck/internal/verification/store/postgres"
	"github.com/dcoutinho/notacheck/internal/verification/store/sqlite"
)

// New builds the backend selected by cfg.Store.Backend: postgres, sqlite or
// sheets. Relational schemas are migrated before the store is returned.
func New(ctx context.Context, cfg *config.Config) (verification.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		db, err := database.New(cfg.ConnectionString(), database.Pool{
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}

		pg := postgres.New(db)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}

		return pg, nil

	case "sqlite":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}

		return sqlite.New(cfg.SQLite.Path)

	case "sheets":
		return gsheets.New(ctx, gsheets.Config{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			SheetName:       cfg.Sheets.SheetName,
			CredentialsFile: cfg.Sheets.CredentialsFile,
			MinCallInterval: cfg.Sheets.MinCallInterval,
		})

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
