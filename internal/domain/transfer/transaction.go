package transfer

import (
	"time"

	"github.com/Zhima-Mochi/simplepay/internal/domain/account"
	"github.com/shopspring/decimal"
)

// Status is the transaction lifecycle state. The orchestrator only ever walks
// PENDING → SUCCESS; FAILED and REFUNDED are declared vocabulary with no
// producing code path, pending a product decision.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSuccess  Status = "SUCCESS"
	StatusFailed   Status = "FAILED"
	StatusRefunded Status = "REFUNDED"
)

const (
	// NoteInitiated annotates the first history entry of every transaction.
	NoteInitiated = "transaction initiated"
	// NoteCompleted annotates the SUCCESS transition.
	NoteCompleted = "transfer completed"
)

// Transaction is the durable record of one funds movement.
type Transaction struct {
	ID        string
	Amount    decimal.Decimal
	PayerID   int64
	PayerKind account.Kind
	PayeeID   int64
	PayeeKind account.Kind
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HistoryEntry is one append-only audit record of a status change.
// PreviousStatus is nil for the entry created alongside the transaction.
type HistoryEntry struct {
	TransactionID  string
	PreviousStatus *Status
	NewStatus      Status
	Note           string
	ChangedAt      time.Time
}

// New builds a PENDING transaction. The payer kind is never Seller; sellers
// may only receive.
func New(id string, amount decimal.Decimal, payerID int64, payerKind account.Kind, payeeID int64, payeeKind account.Kind) (*Transaction, error) {
	if !payerKind.Valid() || !payeeKind.Valid() {
		return nil, ErrMissingKind
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if payerKind == account.KindSeller {
		return nil, ErrSellerPayer
	}

	now := time.Now().UTC()
	return &Transaction{
		ID:        id,
		Amount:    amount,
		PayerID:   payerID,
		PayerKind: payerKind,
		PayeeID:   payeeID,
		PayeeKind: payeeKind,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidateAmount enforces a positive decimal with at most two fractional digits.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	return nil
}

func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
