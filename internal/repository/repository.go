package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/cardpay/internal/models"
)

// Storage gives access to every ledger table
// Repositories returned by the storage inside InTx share one database transaction
type Storage interface {
	Account() AccountRepo
	Payment() PaymentRepo
	Audit() AuditRepo

	// Run fn in a database transaction
	// Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}

// Account repository interface
type AccountRepo interface {
	// Create account
	// If card number or matric number is used already has to return apperrors.ErrAccountAlreadyExists
	CreateAccount(ctx context.Context, account models.Account) (models.Account, error)

	// Get account by card number
	// If account not found must return apperrors.ErrAccountNotFound
	GetAccount(ctx context.Context, cardNumber string) (models.Account, error)

	// Same as GetAccount but holds a row lock until the surrounding transaction ends
	LockAccount(ctx context.Context, cardNumber string) (models.Account, error)

	// Overwrite account balance
	// Negative balance violates schema and must return apperrors.ErrInsufficientFunds
	SetBalance(ctx context.Context, cardNumber string, balance decimal.Decimal) error
}

// Pending transaction repository interface
type PaymentRepo interface {
	// Create pending transaction
	// If the id is taken already has to return apperrors.ErrTransactionIDTaken
	CreatePending(ctx context.Context, tx models.PendingTransaction) (models.PendingTransaction, error)

	// Return transaction in any state
	// If not found must return apperrors.ErrTransactionNotFound
	GetPayment(ctx context.Context, id int64) (models.PendingTransaction, error)

	// Return not settled transaction and hold a row lock until the surrounding transaction ends
	// If transaction not exists or settled must return apperrors.ErrTransactionNotFound
	LockPending(ctx context.Context, id int64) (models.PendingTransaction, error)

	// Flip settled flag; works once per transaction
	// If transaction not exists or settled must return apperrors.ErrTransactionNotFound
	MarkSettled(ctx context.Context, id int64, at time.Time) error
}

// Audit log repository interface
// There are no update or delete methods: the log is append-only
type AuditRepo interface {
	CreateEntry(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error)

	// List entries for the card, newest first
	ListEntries(ctx context.Context, cardNumber string) ([]models.AuditEntry, error)
}
