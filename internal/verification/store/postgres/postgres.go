// Package postgres implements the verification Store on PostgreSQL. The
// (region, invoice) uniqueness invariant is enforced by a database
// constraint; a violated constraint surfaces as verification.ErrDuplicate.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dcoutinho/notacheck/internal/verification"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

// Migrate creates the schema. Idempotent; called from main on startup.
func (s *Store) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS verification_records (
			id UUID PRIMARY KEY,
			region TEXT NOT NULL,
			invoice BIGINT NOT NULL,
			order_number BIGINT NOT NULL,
			received_date DATE NOT NULL,
			valid BOOLEAN NOT NULL,
			planned_date TEXT NOT NULL DEFAULT '',
			decision TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT verification_records_region_invoice_key UNIQUE (region, invoice)
		)
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectColumns = `
	id, region, invoice, order_number, received_date, valid,
	planned_date, decision, message, created_at, updated_at
`

func scanRecord(s scanner) (*verification.Record, error) {
	var rec verification.Record

	var decision string

	if err := s.Scan(
		&rec.ID, &rec.Region, &rec.Invoice, &rec.Order, &rec.ReceivedDate, &rec.Valid,
		&rec.PlannedDate, &decision, &rec.Message, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	rec.Decision = verification.Outcome(decision)

	return &rec, nil
}

func (s *Store) Create(ctx context.Context, rec *verification.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	query := `
		INSERT INTO verification_records
			(id, region, invoice, order_number, received_date, valid, planned_date, decision, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		rec.ID, rec.Region, rec.Invoice, rec.Order, rec.ReceivedDate, rec.Valid,
		rec.PlannedDate, string(rec.Decision), rec.Message,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return verification.ErrDuplicate
		}

		return fmt.Errorf("creating record: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*verification.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM verification_records WHERE id = $1`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, verification.ErrNotFound
		}

		return nil, fmt.Errorf("getting record: %w", err)
	}

	return rec, nil
}

func (s *Store) FindByKey(ctx context.Context, region string, invoice int64) (*verification.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM verification_records WHERE region = $1 AND invoice = $2`

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
	query := `SELECT ` + selectColumns + ` FROM verification_records WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Region != nil {
		query += fmt.Sprintf(" AND region = $%d", argIdx)

		args = append(args, *filter.Region)
		argIdx++
	}

	if filter.Valid != nil {
		query += fmt.Sprintf(" AND valid = $%d", argIdx)

		args = append(args, *filter.Valid)
		argIdx++
	}

	if filter.Decision != nil {
		query += fmt.Sprintf(" AND decision = $%d", argIdx)

		args = append(args, string(*filter.Decision))
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

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
	set := []string{"updated_at = NOW()"}

	var args []any

	argIdx := 1

	add := func(column string, value any) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argIdx))

		args = append(args, value)
		argIdx++
	}

	if params.ReceivedDate != nil {
		add("received_date", *params.ReceivedDate)
	}

	if params.Valid != nil {
		add("valid", *params.Valid)
	}

	if params.PlannedDate != nil {
		add("planned_date", *params.PlannedDate)
	}

	if params.Decision != nil {
		add("decision", string(*params.Decision))
	}

	if params.Message != nil {
		add("message", *params.Message)
	}

	query := fmt.Sprintf(
		`UPDATE verification_records SET %s WHERE id = $%d RETURNING `+selectColumns,
		strings.Join(set, ", "), argIdx,
	)
	args = append(args, id)

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, verification.ErrNotFound
		}

		return nil, fmt.Errorf("updating record: %w", err)
	}

	return rec, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM verification_records WHERE id = $1`, id)
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

// Create inserts with ON CONFLICT DO NOTHING so a duplicate is reported
// without poisoning the surrounding transaction.
func (itx *importTx) Create(ctx context.Context, rec *verification.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	query := `
		INSERT INTO verification_records
			(id, region, invoice, order_number, received_date, valid, planned_date, decision, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (region, invoice) DO NOTHING
		RETURNING created_at, updated_at
	`

	err := itx.tx.QueryRowContext(ctx, query,
		rec.ID, rec.Region, rec.Invoice, rec.Order, rec.ReceivedDate, rec.Valid,
		rec.PlannedDate, string(rec.Decision), rec.Message,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return verification.ErrDuplicate
		}

		return fmt.Errorf("creating record in batch: %w", err)
	}

	return nil
}

func (itx *importTx) Commit(context.Context) error {
	return itx.tx.Commit()
}

func (itx *importTx) Rollback() error {
	return itx.tx.Rollback()
}
