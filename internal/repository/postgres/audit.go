package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/cardpay/internal/apperrors"
	"github.com/nkiryanov/cardpay/internal/models"
)

type AuditRepo struct {
	DB DBTX
}

const createEntry = `-- name: CreateEntry
INSERT INTO audit_log (id, card_number, transaction_id, kind, amount, previous_balance, new_balance, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, card_number, transaction_id, kind, amount, previous_balance, new_balance, created_at
`

func (r *AuditRepo) CreateEntry(ctx context.Context, e models.AuditEntry) (models.AuditEntry, error) {
	rows, _ := r.DB.Query(ctx, createEntry,
		e.ID, e.CardNumber, e.TransactionID, e.Kind, e.Amount, e.PreviousBalance, e.NewBalance, e.CreatedAt,
	)
	entry, err := pgx.CollectOneRow(rows, rowToEntry)

	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
			// One entry per transaction: a duplicate means it is processed already
			return entry, apperrors.ErrTransactionNotFound
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
			return entry, fmt.Errorf("audit entry references unknown card or transaction: %w", err)
		default:
			return entry, fmt.Errorf("db error: %w", err)
		}
	}

	return entry, nil
}

const listEntries = `-- name: ListEntries
SELECT id, card_number, transaction_id, kind, amount, previous_balance, new_balance, created_at
FROM audit_log
WHERE card_number = $1
ORDER BY seq DESC
`

func (r *AuditRepo) ListEntries(ctx context.Context, cardNumber string) ([]models.AuditEntry, error) {
	rows, _ := r.DB.Query(ctx, listEntries, cardNumber)
	entries, err := pgx.CollectRows(rows, rowToEntry)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}

func rowToEntry(row pgx.CollectableRow) (models.AuditEntry, error) {
	var e models.AuditEntry
	err := row.Scan(&e.ID, &e.CardNumber, &e.TransactionID, &e.Kind, &e.Amount, &e.PreviousBalance, &e.NewBalance, &e.CreatedAt)
	return e, err
}
