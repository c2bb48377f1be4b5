// Package memory provides an in-process Store used in tests. It enforces
// the same (region, invoice) uniqueness semantics as the real backends.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dcoutinho/notacheck/internal/verification"
)

type Store struct {
	mu      sync.Mutex
	records map[uuid.UUID]*verification.Record
	keys    map[verification.Key]uuid.UUID
}

func New() *Store {
	return &Store{
		records: make(map[uuid.UUID]*verification.Record),
		keys:    make(map[verification.Key]uuid.UUID),
	}
}

func (s *Store) Create(_ context.Context, rec *verification.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createLocked(rec)
}

func (s *Store) createLocked(rec *verification.Record) error {
	if _, exists := s.keys[rec.Key()]; exists {
		return verification.ErrDuplicate
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	stored := *rec
	s.records[rec.ID] = &stored
	s.keys[rec.Key()] = rec.ID

	return nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*verification.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, verification.ErrNotFound
	}

	out := *rec

	return &out, nil
}

func (s *Store) FindByKey(_ context.Context, region string, invoice int64) (*verification.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.keys[verification.Key{Region: region, Invoice: invoice}]
	if !ok {
		return nil, verification.ErrNotFound
	}

	out := *s.records[id]

	return &out, nil
}

func (s *Store) List(_ context.Context, filter verification.Filter) ([]*verification.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*verification.Record

	for _, rec := range s.records {
		if filter.Region != nil && rec.Region != *filter.Region {
			continue
		}

		if filter.Valid != nil && rec.Valid != *filter.Valid {
			continue
		}

		if filter.Decision != nil && rec.Decision != *filter.Decision {
			continue
		}

		copied := *rec
		out = append(out, &copied)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out, nil
}

func (s *Store) Update(_ context.Context, id uuid.UUID, params verification.UpdateParams) (*verification.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, verification.ErrNotFound
	}

	if params.ReceivedDate != nil {
		rec.ReceivedDate = *params.ReceivedDate
	}

	if params.Valid != nil {
		rec.Valid = *params.Valid
	}

	if params.PlannedDate != nil {
		rec.PlannedDate = *params.PlannedDate
	}

	if params.Decision != nil {
		rec.Decision = *params.Decision
	}

	if params.Message != nil {
		rec.Message = *params.Message
	}

	rec.UpdatedAt = time.Now().UTC()

	out := *rec

	return &out, nil
}

func (s *Store) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return false, nil
	}

	delete(s.keys, rec.Key())
	delete(s.records, id)

	return true, nil
}

func (s *Store) Keys(_ context.Context) (map[verification.Key]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make(map[verification.Key]struct{}, len(s.keys))
	for k := range s.keys {
		keys[k] = struct{}{}
	}

	return keys, nil
}

type importTx struct {
	store  *Store
	staged []*verification.Record
	seen   map[verification.Key]struct{}
	done   bool
}

func (s *Store) BeginImport(_ context.Context) (verification.ImportTx, error) {
	return &importTx{store: s, seen: make(map[verification.Key]struct{})}, nil
}

func (itx *importTx) Create(_ context.Context, rec *verification.Record) error {
	itx.store.mu.Lock()
	defer itx.store.mu.Unlock()

	key := rec.Key()

	if _, exists := itx.store.keys[key]; exists {
		return verification.ErrDuplicate
	}

	if _, staged := itx.seen[key]; staged {
		return verification.ErrDuplicate
	}

	itx.seen[key] = struct{}{}
	itx.staged = append(itx.staged, rec)

	return nil
}

func (itx *importTx) Commit(_ context.Context) error {
	itx.store.mu.Lock()
	defer itx.store.mu.Unlock()

	if itx.done {
		return nil
	}

	itx.done = true

	for _, rec := range itx.staged {
		// A concurrent writer may have taken the key since staging; the
		// batch still commits the rest.
		if _, exists := itx.store.keys[rec.Key()]; exists {
			continue
		}

		_ = itx.store.createLocked(rec)
	}

	return nil
}

func (itx *importTx) Rollback() error {
	itx.done = true
	itx.staged = nil

	return nil
}
