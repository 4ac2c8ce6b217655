package transfer

import (
	"testing"

	"github.com/Zhima-Mochi/simplepay/internal/domain/account"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("starts pending", func(t *testing.T) {
		t.Parallel()

		tx, err := New("tx-1", decimal.RequireFromString("30.00"), 1, account.KindUser, 2, account.KindSeller)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, tx.Status)
		assert.Equal(t, int64(1), tx.PayerID)
		assert.Equal(t, account.KindSeller, tx.PayeeKind)
	})

	t.Run("seller payer rejected", func(t *testing.T) {
		t.Parallel()

		_, err := New("tx-1", decimal.RequireFromString("30.00"), 1, account.KindSeller, 2, account.KindUser)
		assert.ErrorIs(t, err, ErrSellerPayer)
	})

	t.Run("missing kind rejected", func(t *testing.T) {
		t.Parallel()

		_, err := New("tx-1", decimal.RequireFromString("30.00"), 1, "", 2, account.KindUser)
		assert.ErrorIs(t, err, ErrMissingKind)
	})
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{name: "two decimal places", amount: "30.00"},
		{name: "whole number", amount: "30"},
		{name: "one decimal place", amount: "30.1"},
		{name: "zero", amount: "0", wantErr: true},
		{name: "negative", amount: "-1.00", wantErr: true},
		{name: "three decimal places", amount: "30.005", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
