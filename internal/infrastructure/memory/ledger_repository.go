package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/simplepay/internal/domain/transfer"
)

// LedgerRepository is the in-memory transaction ledger. Transactions and
// their history entries are written under a single lock so no reader ever
// observes a transaction without its audit trail. History is append-only.
type LedgerRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	history      map[string][]domain.HistoryEntry
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		transactions: make(map[string]*domain.Transaction),
		history:      make(map[string][]domain.HistoryEntry),
	}
}

func (r *LedgerRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	_ = ctx
	if tx == nil || tx.ID == "" {
		return fmt.Errorf("ledger repository: transaction id is required")
	}
	if tx.Status != domain.StatusPending {
		return domain.ErrInvalidTransition
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.transactions[tx.ID]; exists {
		return fmt.Errorf("ledger repository: transaction %s already exists", tx.ID)
	}

	r.transactions[tx.ID] = tx.Clone()
	r.history[tx.ID] = append(r.history[tx.ID], domain.HistoryEntry{
		TransactionID:  tx.ID,
		PreviousStatus: nil,
		NewStatus:      domain.StatusPending,
		Note:           domain.NoteInitiated,
		ChangedAt:      time.Now().UTC(),
	})
	return nil
}

func (r *LedgerRepository) MarkSucceeded(ctx context.Context, tx *domain.Transaction) error {
	_ = ctx
	if tx == nil || tx.ID == "" {
		return fmt.Errorf("ledger repository: transaction id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.transactions[tx.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Status != domain.StatusPending {
		return domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	stored.Status = domain.StatusSuccess
	stored.UpdatedAt = now

	previous := domain.StatusPending
	r.history[tx.ID] = append(r.history[tx.ID], domain.HistoryEntry{
		TransactionID:  tx.ID,
		PreviousStatus: &previous,
		NewStatus:      domain.StatusSuccess,
		Note:           domain.NoteCompleted,
		ChangedAt:      now,
	})

	tx.Status = domain.StatusSuccess
	tx.UpdatedAt = now
	return nil
}

func (r *LedgerRepository) Find(ctx context.Context, id string) (*domain.Transaction, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.transactions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return tx.Clone(), nil
}

func (r *LedgerRepository) History(ctx context.Context, transactionID string) ([]domain.HistoryEntry, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, ok := r.history[transactionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]domain.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}
