package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"notacheck"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Store struct {
		// Backend selects the record store: postgres, sqlite or sheets.
		Backend string `envconfig:"STORE_BACKEND" default:"sqlite"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"notacheck"`

		MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
		MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	}

	SQLite struct {
		Path string `envconfig:"SQLITE_PATH" default:"data/registros.db"`
	}

	Sheets struct {
		SpreadsheetID   string        `envconfig:"SHEETS_SPREADSHEET_ID"`
		SheetName       string        `envconfig:"SHEETS_SHEET_NAME" default:"registros_nf"`
		CredentialsFile string        `envconfig:"SHEETS_CREDENTIALS_FILE" default:"credentials.json"`
		MinCallInterval time.Duration `envconfig:"SHEETS_MIN_CALL_INTERVAL" default:"1100ms"`
	}

	Catalog struct {
		Path string `envconfig:"CATALOG_PATH" default:"data/Base_de_notas.xlsx"`
	}

	Import struct {
		BatchSize int `envconfig:"IMPORT_BATCH_SIZE" default:"50"`
	}

	Verify struct {
		ManualReviewCategory string `envconfig:"MANUAL_REVIEW_CATEGORY" default:"engenharia de redes"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
