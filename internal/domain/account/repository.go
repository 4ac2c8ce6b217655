package account

import "context"

// Repository is the account store. A User lookup and a Seller lookup are
// mutually exclusive per kind; Find only consults records of the declared kind.
type Repository interface {
	Find(ctx context.Context, id int64, kind Kind) (*Account, error)
	Save(ctx context.Context, acc *Account) error

	// Update persists a mutated account only when acc.Version still matches
	// the stored record, returning ErrVersionConflict on a stale write.
	// Callers re-resolve and retry on conflict.
	Update(ctx context.Context, acc *Account) error
}
