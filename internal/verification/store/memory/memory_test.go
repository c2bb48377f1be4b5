package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoutinho/notacheck/internal/verification"
	"github.com/dcoutinho/notacheck/internal/verification/store/memory"
)

func newRecord(region string, invoice int64) *verification.Record {
	return &verification.Record{
		Region:       region,
		Invoice:      invoice,
		Order:        75710,
		ReceivedDate: time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC),
		Valid:        true,
		PlannedDate:  "2025/maio",
		Decision:     verification.OutcomeOpenNow,
		Message:      "validation completed",
	}
}

func TestStore_Create_Duplicate(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	rec := newRecord("SP", 15733)
	require.NoError(t, store.Create(ctx, rec))
	assert.NotEqual(t, uuid.Nil, rec.ID)

	dup := newRecord("SP", 15733)
	dup.Order = 99999
	assert.ErrorIs(t, store.Create(ctx, dup), verification.ErrDuplicate)

	// Same invoice in another region is a different key.
	other := newRecord("RJ", 15733)
	assert.NoError(t, store.Create(ctx, other))
}

func TestStore_GetAndFindByKey(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	rec := newRecord("SP", 15733)
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "SP", got.Region)

	byKey, err := store.FindByKey(ctx, "SP", 15733)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, byKey.ID)

	_, err = store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, verification.ErrNotFound)

	_, err = store.FindByKey(ctx, "SP", 404)
	assert.ErrorIs(t, err, verification.ErrNotFound)
}

func TestStore_List_Filter(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	a := newRecord("SP", 1)
	b := newRecord("SP", 2)
	b.Valid = false
	b.Decision = verification.OutcomeInvalidDate
	c := newRecord("RJ", 3)

	for _, rec := range []*verification.Record{a, b, c} {
		require.NoError(t, store.Create(ctx, rec))
	}

	all, err := store.List(ctx, verification.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	region := "SP"
	sp, err := store.List(ctx, verification.Filter{Region: &region})
	require.NoError(t, err)
	assert.Len(t, sp, 2)

	valid := true
	decision := verification.OutcomeOpenNow
	open, err := store.List(ctx, verification.Filter{Valid: &valid, Decision: &decision})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	limited, err := store.List(ctx, verification.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	rec := newRecord("SP", 15733)
	require.NoError(t, store.Create(ctx, rec))

	msg := "corrected after review"
	valid := false

	got, err := store.Update(ctx, rec.ID, verification.UpdateParams{
		Message: &msg,
		Valid:   &valid,
	})
	require.NoError(t, err)
	assert.Equal(t, msg, got.Message)
	assert.False(t, got.Valid)
	assert.Equal(t, "2025/maio", got.PlannedDate)

	_, err = store.Update(ctx, uuid.New(), verification.UpdateParams{Message: &msg})
	assert.ErrorIs(t, err, verification.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	rec := newRecord("SP", 15733)
	require.NoError(t, store.Create(ctx, rec))

	deleted, err := store.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	// The key is free again.
	assert.NoError(t, store.Create(ctx, newRecord("SP", 15733)))
}

func TestStore_Keys(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, store.Create(ctx, newRecord("SP", 1)))
	require.NoError(t, store.Create(ctx, newRecord("RJ", 2)))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, verification.Key{Region: "SP", Invoice: 1})
	assert.Contains(t, keys, verification.Key{Region: "RJ", Invoice: 2})
}

func TestStore_ImportTx(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, store.Create(ctx, newRecord("SP", 1)))

	itx, err := store.BeginImport(ctx)
	require.NoError(t, err)
	defer itx.Rollback()

	assert.ErrorIs(t, itx.Create(ctx, newRecord("SP", 1)), verification.ErrDuplicate)

	require.NoError(t, itx.Create(ctx, newRecord("SP", 2)))
	assert.ErrorIs(t, itx.Create(ctx, newRecord("SP", 2)), verification.ErrDuplicate)

	require.NoError(t, itx.Create(ctx, newRecord("RJ", 3)))
	require.NoError(t, itx.Commit(ctx))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestStore_ImportTx_RollbackDiscardsStaged(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	itx, err := store.BeginImport(ctx)
	require.NoError(t, err)

	require.NoError(t, itx.Create(ctx, newRecord("SP", 1)))
	require.NoError(t, itx.Rollback())
	require.NoError(t, itx.Commit(ctx))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
