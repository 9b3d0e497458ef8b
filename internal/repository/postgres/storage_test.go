package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/cardpay/internal/apperrors"
	"github.com/nkiryanov/cardpay/internal/repository"
	"github.com/nkiryanov/cardpay/internal/testutil"
)

func TestStorage_InTx(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("commit on success", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)

			err := storage.InTx(t.Context(), func(s repository.Storage) error {
				_, err := s.Account().CreateAccount(t.Context(), newAccount("04A1B2C3", "MAT/001", 10))
				return err
			})
			require.NoError(t, err)

			_, err = storage.Account().GetAccount(t.Context(), "04A1B2C3")
			require.NoError(t, err, "account must be visible after commit")
		})
	})

	t.Run("rollback on error", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)
			boom := errors.New("boom")

			err := storage.InTx(t.Context(), func(s repository.Storage) error {
				_, err := s.Account().CreateAccount(t.Context(), newAccount("04A1B2C3", "MAT/001", 10))
				require.NoError(t, err)
				return boom
			})
			require.ErrorIs(t, err, boom)

			_, err = storage.Account().GetAccount(t.Context(), "04A1B2C3")
			require.ErrorIs(t, err, apperrors.ErrAccountNotFound, "account must be rolled back")
		})
	})
}
