package apperrors

import (
	"errors"
)

var (
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidKind          = errors.New("payment kind is invalid")
	ErrInvalidTransactionID = errors.New("transaction id is invalid")
	ErrInvalidCardNumber    = errors.New("card number is invalid")
	ErrInvalidAccount       = errors.New("account data is invalid")

	ErrDeviceUnauthorized = errors.New("device is not authorized")

	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")

	ErrTransactionNotFound = errors.New("transaction not found or already processed")
	ErrTransactionIDTaken  = errors.New("transaction id already taken")

	ErrInsufficientFunds = errors.New("insufficient funds")
)
