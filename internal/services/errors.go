package services

import "errors"

var (
	ErrNotAvailable      = errors.New("listing is not available")
	ErrInsufficientStock = errors.New("not enough stock for the requested quantity")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidPayment    = errors.New("invalid payment method")
	ErrTransactionFailed = errors.New("transaction failed")

	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("not allowed")

	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	ErrBadCreds         = errors.New("invalid email or password")
	ErrEmailTaken       = errors.New("email already registered")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicateCard    = errors.New("card number already registered")
)
