// Package sqlite implements the verification Store on SQLite, the backend
// the system originally ran on. A unique index enforces the
// (region, invoice) invariant; the schema is auto-migrated on New.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/dcoutinho/notacheck/internal/verification"
)

type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an in-memory database in tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS verification_records (
		id TEXT PRIMARY KEY,
		region TEXT NOT NULL,
		invoice INTEGER NOT NULL,
		order_number INTEGER NOT NULL,
		received_date TEXT NOT NULL,
		valid BOOLEAN NOT NULL,
		planned_date TEXT NOT NULL DEFAULT '',
		decision TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- The uniqueness invariant: one record per (region, invoice).
	CREATE UNIQUE INDEX IF NOT EXISTS idx_records_region_invoice
		ON verification_records(region, invoice);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	return nil
}

const selectColumns = `
	id, region, invoice, order_number, received_date, valid,
	planned_date, decision, message, created_at, updated_at
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*verification.Record, error) {
	var rec verification.Record

	var id, received, decision, createdAt, updatedAt string

	if err := s.Scan(
		&id, &rec.Region, &rec.Invoice, &rec.Order, &received, &rec.Valid,
		&rec.PlannedDate, &decision, &rec.Message, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing record id %q: %w", id, err)
	}

	rec.ID = parsed
	rec.Decision = verification.Outcome(decision)
	rec.ReceivedDate, _ = time.Parse(time.DateOnly, received)
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func (s *Store) Create(ctx context.Context, rec *verification.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `
		INSERT INTO verification_records
			(id, region, invoice, order_number, received_date, valid, planned_date, decision, message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID.String(), rec.Region, rec.Invoice, rec.Order,
		rec.ReceivedDate.Format(time.DateOnly), rec.Valid,
		rec.PlannedDate, string(rec.Decision), rec.Message,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return verification.ErrDuplicate
		}

		return fmt.Errorf("creating record: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*verification.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM verification_records WHERE id = ?`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, verification.ErrNotFound
		}

		return nil, fmt.Errorf("getting record: %w", err)
	}

	return rec, nil
}

func (s *Store) FindByKey(ctx context.Context, region string, invoice int64) (*verification.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM verification_records WHERE region = ? AND invoice = ?`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, region, invoice))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, verification.ErrNotFound
		}

		return nil, fmt.Errorf("finding record by key: %w", err)
	}

	return rec, nil
}

func (s *Store) List(ctx context.Context, filter verification.Filter) ([]*verification.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM verification_records WHERE 1=1`

	var args []any

	if filter.Region != nil {
		query += " AND region = ?"

		args = append(args, *filter.Region)
	}

	if filter.Valid != nil {
		query += " AND valid = ?"

		args = append(args, *filter.Valid)
	}

	if filter.Decision != nil {
		query += " AND decision = ?"

		args = append(args, string(*filter.Decision))
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var recs []*verification.Record

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return recs, nil
}

func (s *Store) Update(ctx context.Context, id uuid.UUID, params verification.UpdateParams) (*verification.Record, error) {
	set := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if params.ReceivedDate != nil {
		set = append(set, "received_date = ?")
		args = append(args, params.ReceivedDate.Format(time.DateOnly))
	}

	if params.Valid != nil {
		set = append(set, "valid = ?")
		args = append(args, *params.Valid)
	}

	if params.PlannedDate != nil {
		set = append(set, "planned_date = ?")
		args = append(args, *params.PlannedDate)
	}

	if params.Decision != nil {
		set = append(set, "decision = ?")
		args = append(args, string(*params.Decision))
	}

	if params.Message != nil {
		set = append(set, "message = ?")
		args = append(args, *params.Message)
	}

	query := fmt.Sprintf(`UPDATE verification_records SET %s WHERE id = ?`, strings.Join(set, ", "))
	args = append(args, id.String())

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating record: %w", err)
	}

	if n == 0 {
		return nil, verification.ErrNotFound
	}

	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM verification_records WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("deleting record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting record: %w", err)
	}

	return n > 0, nil
}

func (s *Store) Keys(ctx context.Context) (map[verification.Key]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT region, invoice FROM verification_records`)
	if err != nil {
		return nil, fmt.Errorf("reading keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[verification.Key]struct{})

	for rows.Next() {
		var k verification.Key
		if err := rows.Scan(&k.Region, &k.Invoice); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}

		keys[k] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keys: %w", err)
	}

	return keys, nil
}

type importTx struct {
	tx *sql.Tx
}

func (s *Store) BeginImport(ctx context.Context) (verification.ImportTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	return &importTx{tx: tx}, nil
}

// Create inserts with OR IGNORE; zero rows affected means the key was
// already taken and the batch keeps going.
func (itx *importTx) Create(ctx context.Context, rec *verification.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `
		INSERT OR IGNORE INTO verification_records
			(id, region, invoice, order_number, received_date, valid, planned_date, decision, message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := itx.tx.ExecContext(ctx, query,
		rec.ID.String(), rec.Region, rec.Invoice, rec.Order,
		rec.ReceivedDate.Format(time.DateOnly), rec.Valid,
		rec.PlannedDate, string(rec.Decision), rec.Message,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating record in batch: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("creating record in batch: %w", err)
	}

	if n == 0 {
		return verification.ErrDuplicate
	}

	return nil
}

func (itx *importTx) Commit(context.Context) error {
	return itx.tx.Commit()
}

func (itx *importTx) Rollback() error {
	return itx.tx.Rollback()
}
