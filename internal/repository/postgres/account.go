package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/cardpay/internal/apperrors"
	"github.com/nkiryanov/cardpay/internal/models"
)

type AccountRepo struct {
	DB DBTX
}

const createAccount = `-- name: CreateAccount
INSERT INTO accounts (card_number, name, matric_number, balance, password_hash)
VALUES ($1, $2, $3, $4, $5)
RETURNING card_number, name, matric_number, balance, password_hash, created_at
`

func (r *AccountRepo) CreateAccount(ctx context.Context, a models.Account) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, createAccount, a.CardNumber, a.Name, a.MatricNumber, a.Balance, a.PasswordHash)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return account, apperrors.ErrAccountAlreadyExists
		}

		return account, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

const getAccount = `-- name: GetAccount
SELECT card_number, name, matric_number, balance, password_hash, created_at
FROM accounts
WHERE card_number = $1
`

func (r *AccountRepo) GetAccount(ctx context.Context, cardNumber string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccount, cardNumber)
	return collectAccount(rows)
}

const lockAccount = getAccount + `FOR UPDATE
`

func (r *AccountRepo) LockAccount(ctx context.Context, cardNumber string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, lockAccount, cardNumber)
	return collectAccount(rows)
}

const setBalance = `-- name: SetBalance
UPDATE accounts
SET balance = $2
WHERE card_number = $1
`

func (r *AccountRepo) SetBalance(ctx context.Context, cardNumber string, balance decimal.Decimal) error {
	tag, err := r.DB.Exec(ctx, setBalance, cardNumber, balance)

	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation:
		return apperrors.ErrInsufficientFunds
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrAccountNotFound
	default:
		return nil
	}
}

func collectAccount(rows pgx.Rows) (models.Account, error) {
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.CardNumber, &a.Name, &a.MatricNumber, &a.Balance, &a.PasswordHash, &a.CreatedAt)
	return a, err
}
