package store

import "errors"

var (
	// ErrNotFound signals that the requested row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrInsufficientBalance signals a debit larger than the available balance.
	ErrInsufficientBalance = errors.New("store: insufficient balance")
	// ErrAlreadySettled signals that an invoice or payment was settled before.
	ErrAlreadySettled = errors.New("store: already settled")
	// ErrOrderCanceled signals a payment against a canceled order's invoice.
	ErrOrderCanceled = errors.New("store: order canceled")
	// ErrDuplicateEmail signals a unique constraint violation on customer email.
	ErrDuplicateEmail = errors.New("store: email already registered")
	// ErrCartNotOpen signals an operation against a cart that is no longer open.
	ErrCartNotOpen = errors.New("store: cart is not open")
)
