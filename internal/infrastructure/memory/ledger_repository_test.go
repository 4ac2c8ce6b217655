package memory

import (
	"context"
	"testing"

	domacc "github.com/Zhima-Mochi/simplepay/internal/domain/account"
	domain "github.com/Zhima-Mochi/simplepay/internal/domain/transfer"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(t *testing.T, id string) *domain.Transaction {
	t.Helper()
	tx, err := domain.New(id, decimal.RequireFromString("30.00"), 1, domacc.KindUser, 2, domacc.KindUser)
	require.NoError(t, err)
	return tx
}

func TestLedgerRepositoryCreate(t *testing.T) {
	t.Parallel()

	repo := NewLedgerRepository()
	ctx := context.Background()

	tx := newTestTransaction(t, "tx-1")
	require.NoError(t, repo.Create(ctx, tx))

	stored, err := repo.Find(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)

	entries, err := repo.History(ctx, "tx-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].PreviousStatus)
	assert.Equal(t, domain.StatusPending, entries[0].NewStatus)
	assert.Equal(t, domain.NoteInitiated, entries[0].Note)

	t.Run("duplicate id rejected", func(t *testing.T) {
		assert.Error(t, repo.Create(ctx, newTestTransaction(t, "tx-1")))
	})
}

func TestLedgerRepositoryMarkSucceeded(t *testing.T) {
	t.Parallel()

	repo := NewLedgerRepository()
	ctx := context.Background()

	tx := newTestTransaction(t, "tx-1")
	require.NoError(t, repo.Create(ctx, tx))
	require.NoError(t, repo.MarkSucceeded(ctx, tx))

	assert.Equal(t, domain.StatusSuccess, tx.Status)

	stored, err := repo.Find(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, stored.Status)

	entries, err := repo.History(ctx, "tx-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[1].PreviousStatus)
	assert.Equal(t, domain.StatusPending, *entries[1].PreviousStatus)
	assert.Equal(t, domain.StatusSuccess, entries[1].NewStatus)
	assert.Equal(t, domain.NoteCompleted, entries[1].Note)

	t.Run("second transition rejected", func(t *testing.T) {
		assert.ErrorIs(t, repo.MarkSucceeded(ctx, tx), domain.ErrInvalidTransition)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		assert.ErrorIs(t, repo.MarkSucceeded(ctx, newTestTransaction(t, "missing")), domain.ErrNotFound)
	})
}

func TestLedgerRepositoryHistoryIsCopied(t *testing.T) {
	t.Parallel()

	repo := NewLedgerRepository()
	ctx := context.Background()

	tx := newTestTransaction(t, "tx-1")
	require.NoError(t, repo.Create(ctx, tx))

	entries, err := repo.History(ctx, "tx-1")
	require.NoError(t, err)
	entries[0].Note = "tampered"

	again, err := repo.History(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.NoteInitiated, again[0].Note)
}
