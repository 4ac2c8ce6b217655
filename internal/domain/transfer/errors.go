package transfer

import "errors"

var (
	ErrMissingKind         = errors.New("transfer: payer and payee kinds are required")
	ErrInvalidAmount       = errors.New("transfer: amount must be a positive value with at most two decimal places")
	ErrPayerNotFound       = errors.New("transfer: payer not found")
	ErrPayeeNotFound       = errors.New("transfer: payee not found")
	ErrSellerPayer         = errors.New("transfer: sellers cannot send transfers")
	ErrAuthorizationDenied = errors.New("transfer: not authorized by external service")
	ErrNotFound            = errors.New("transfer: transaction not found")
	ErrInvalidTransition   = errors.New("transfer: invalid status transition")
)
