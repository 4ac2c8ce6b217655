package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/simplepay/internal/domain/account"
)

type accountKey struct {
	id   int64
	kind domain.Kind
}

// AccountRepository keeps accounts per (id, kind) pair so a User lookup never
// observes a Seller record with the same numeric id.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[accountKey]*domain.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[accountKey]*domain.Account),
	}
}

func (r *AccountRepository) Find(ctx context.Context, id int64, kind domain.Kind) (*domain.Account, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[accountKey{id: id, kind: kind}]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return acc.Clone(), nil
}

func (r *AccountRepository) Save(ctx context.Context, acc *domain.Account) error {
	_ = ctx
	if acc == nil || acc.ID == 0 {
		return fmt.Errorf("account repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := acc.Clone()
	stored.Version = 1
	r.accounts[accountKey{id: acc.ID, kind: acc.Kind}] = stored
	acc.Version = stored.Version
	return nil
}

// Update is a compare-and-set write: it only applies when the caller's
// Version matches the stored record, so concurrent balance mutations cannot
// silently lose an update.
func (r *AccountRepository) Update(ctx context.Context, acc *domain.Account) error {
	_ = ctx
	if acc == nil || acc.ID == 0 {
		return fmt.Errorf("account repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := accountKey{id: acc.ID, kind: acc.Kind}
	stored, ok := r.accounts[key]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != acc.Version {
		return domain.ErrVersionConflict
	}

	next := acc.Clone()
	next.Version = stored.Version + 1
	r.accounts[key] = next
	acc.Version = next.Version
	return nil
}
