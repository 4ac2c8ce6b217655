package transfer

import "context"

// Ledger is the append-only transaction + history audit trail. History
// entries are never mutated or deleted once written.
type Ledger interface {
	// Create persists the transaction in PENDING status together with its
	// first history entry (nil → PENDING, NoteInitiated) as one unit.
	Create(ctx context.Context, tx *Transaction) error

	// MarkSucceeded transitions a PENDING transaction to SUCCESS and appends
	// the second history entry (PENDING → SUCCESS, NoteCompleted) as one unit.
	MarkSucceeded(ctx context.Context, tx *Transaction) error

	Find(ctx context.Context, id string) (*Transaction, error)
	History(ctx context.Context, transactionID string) ([]HistoryEntry, error)
}
