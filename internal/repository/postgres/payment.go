package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/cardpay/internal/apperrors"
	"github.com/nkiryanov/cardpay/internal/models"
)

type PaymentRepo struct {
	DB DBTX
}

// Plain insert: an existing id must never be overwritten
const createPending = `-- name: CreatePending
INSERT INTO pending_transactions (id, amount, settled, created_at)
VALUES ($1, $2, false, $3)
RETURNING id, amount, settled, created_at, settled_at
`

func (r *PaymentRepo) CreatePending(ctx context.Context, t models.PendingTransaction) (models.PendingTransaction, error) {
	rows, _ := r.DB.Query(ctx, createPending, t.ID, t.Amount, t.CreatedAt)
	created, err := pgx.CollectOneRow(rows, rowToPayment)

	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
			return created, apperrors.ErrTransactionIDTaken
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation:
			return created, apperrors.ErrInvalidAmount
		default:
			return created, fmt.Errorf("db error: %w", err)
		}
	}

	return created, nil
}

const getPayment = `-- name: GetPayment
SELECT id, amount, settled, created_at, settled_at
FROM pending_transactions
WHERE id = $1
`

func (r *PaymentRepo) GetPayment(ctx context.Context, id int64) (models.PendingTransaction, error) {
	rows, _ := r.DB.Query(ctx, getPayment, id)
	return collectPayment(rows)
}

// Settled predicate is part of the locking read: a waiter re-checks it after the holder commits
const lockPending = `-- name: LockPending
SELECT id, amount, settled, created_at, settled_at
FROM pending_transactions
WHERE id = $1 AND settled = false
FOR UPDATE
`

func (r *PaymentRepo) LockPending(ctx context.Context, id int64) (models.PendingTransaction, error) {
	rows, _ := r.DB.Query(ctx, lockPending, id)
	return collectPayment(rows)
}

const markSettled = `-- name: MarkSettled
UPDATE pending_transactions
SET settled = true, settled_at = $2
WHERE id = $1 AND settled = false
`

func (r *PaymentRepo) MarkSettled(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.DB.Exec(ctx, markSettled, id, at)

	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() != 1:
		return apperrors.ErrTransactionNotFound
	default:
		return nil
	}
}

func collectPayment(rows pgx.Rows) (models.PendingTransaction, error) {
	payment, err := pgx.CollectOneRow(rows, rowToPayment)

	switch {
	case err == nil:
		return payment, nil
	case errors.Is(err, pgx.ErrNoRows):
		return payment, apperrors.ErrTransactionNotFound
	default:
		return payment, fmt.Errorf("db error: %w", err)
	}
}

func rowToPayment(row pgx.CollectableRow) (models.PendingTransaction, error) {
	var t models.PendingTransaction
	err := row.Scan(&t.ID, &t.Amount, &t.Settled, &t.CreatedAt, &t.SettledAt)
	return t, err
}
