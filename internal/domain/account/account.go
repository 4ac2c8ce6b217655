package account

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound            = errors.New("account: not found")
	ErrInsufficientBalance = errors.New("account: insufficient balance")
	ErrVersionConflict     = errors.New("account: version conflict")
	ErrNegativeBalance     = errors.New("account: balance must be zero or greater")
	ErrNonPositiveAmount   = errors.New("account: amount must be greater than zero")
	ErrPasswordTooShort    = errors.New("account: password must be at least 6 characters")
	ErrUnknownKind         = errors.New("account: unknown kind")
)

// Kind discriminates User accounts from Seller accounts. Sellers may only
// receive transfers, never send them.
type Kind string

const (
	KindUser   Kind = "USER"
	KindSeller Kind = "SELLER"
)

// ParseKind normalises the wire representation of a party kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindUser:
		return KindUser, nil
	case KindSeller:
		return KindSeller, nil
	default:
		return "", ErrUnknownKind
	}
}

func (k Kind) Valid() bool {
	return k == KindUser || k == KindSeller
}

// Account is a balance-holding party. Document and Email are unique per kind;
// Version is the optimistic-concurrency token checked by Repository.Update.
type Account struct {
	ID           int64
	Kind         Kind
	Name         string
	Document     string
	Email        string
	PasswordHash string
	Balance      decimal.Decimal
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func New(id int64, kind Kind, name, document, email, password string, balance decimal.Decimal) (*Account, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	if balance.IsNegative() {
		return nil, ErrNegativeBalance
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Account{
		ID:           id,
		Kind:         kind,
		Name:         name,
		Document:     document,
		Email:        email,
		PasswordHash: hash,
		Balance:      balance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// HasBalance reports whether the account can cover amount. Exact decimal
// comparison, no floating-point tolerance.
func (a *Account) HasBalance(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// Debit subtracts amount from the balance. The balance never goes negative;
// a debit that would is rejected before being applied.
func (a *Account) Debit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	a.Balance = a.Balance.Sub(amount)
	a.touch()
	return nil
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	a.Balance = a.Balance.Add(amount)
	a.touch()
	return nil
}

func (a *Account) VerifyPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plain)) == nil
}

func (a *Account) UpdatePassword(plain string) error {
	hash, err := hashPassword(plain)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	a.touch()
	return nil
}

func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (a *Account) touch() {
	a.UpdatedAt = time.Now().UTC()
}

func hashPassword(plain string) (string, error) {
	if len(strings.TrimSpace(plain)) < 6 {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
