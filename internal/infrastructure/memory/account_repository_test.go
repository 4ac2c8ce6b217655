package memory

import (
	"context"
	"testing"

	domain "github.com/Zhima-Mochi/simplepay/internal/domain/account"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount(t *testing.T, id int64, kind domain.Kind, balance string) *domain.Account {
	t.Helper()
	acc, err := domain.New(id, kind, "Test", "52998224725", "test@example.com", "secret1", decimal.RequireFromString(balance))
	require.NoError(t, err)
	return acc
}

func TestAccountRepositoryFind(t *testing.T) {
	t.Parallel()

	repo := NewAccountRepository()
	ctx := context.Background()

	acc := newTestAccount(t, 1, domain.KindUser, "100.00")
	require.NoError(t, repo.Save(ctx, acc))

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		got, err := repo.Find(ctx, 1, domain.KindUser)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(decimal.RequireFromString("100.00")))
	})

	t.Run("kind mismatch is not found", func(t *testing.T) {
		t.Parallel()

		_, err := repo.Find(ctx, 1, domain.KindSeller)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing id", func(t *testing.T) {
		t.Parallel()

		_, err := repo.Find(ctx, 99, domain.KindUser)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestAccountRepositoryUpdate(t *testing.T) {
	t.Parallel()

	t.Run("compare-and-set rejects stale writes", func(t *testing.T) {
		t.Parallel()

		repo := NewAccountRepository()
		ctx := context.Background()

		require.NoError(t, repo.Save(ctx, newTestAccount(t, 1, domain.KindUser, "100.00")))

		first, err := repo.Find(ctx, 1, domain.KindUser)
		require.NoError(t, err)
		second, err := repo.Find(ctx, 1, domain.KindUser)
		require.NoError(t, err)

		require.NoError(t, first.Debit(decimal.RequireFromString("10.00")))
		require.NoError(t, repo.Update(ctx, first))

		require.NoError(t, second.Debit(decimal.RequireFromString("20.00")))
		assert.ErrorIs(t, repo.Update(ctx, second), domain.ErrVersionConflict)

		stored, err := repo.Find(ctx, 1, domain.KindUser)
		require.NoError(t, err)
		assert.True(t, stored.Balance.Equal(decimal.RequireFromString("90.00")))
	})

	t.Run("version advances on each write", func(t *testing.T) {
		t.Parallel()

		repo := NewAccountRepository()
		ctx := context.Background()

		acc := newTestAccount(t, 1, domain.KindUser, "100.00")
		require.NoError(t, repo.Save(ctx, acc))
		assert.Equal(t, int64(1), acc.Version)

		require.NoError(t, acc.Credit(decimal.RequireFromString("1.00")))
		require.NoError(t, repo.Update(ctx, acc))
		assert.Equal(t, int64(2), acc.Version)
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()

		repo := NewAccountRepository()
		acc := newTestAccount(t, 7, domain.KindUser, "1.00")
		assert.ErrorIs(t, repo.Update(context.Background(), acc), domain.ErrNotFound)
	})
}

func TestAccountRepositoryCloneIsolation(t *testing.T) {
	t.Parallel()

	repo := NewAccountRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newTestAccount(t, 1, domain.KindUser, "100.00")))

	got, err := repo.Find(ctx, 1, domain.KindUser)
	require.NoError(t, err)
	require.NoError(t, got.Debit(decimal.RequireFromString("100.00")))

	stored, err := repo.Find(ctx, 1, domain.KindUser)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.RequireFromString("100.00")))
}
