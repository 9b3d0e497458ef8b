package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/cardpay/internal/apperrors"
	"github.com/nkiryanov/cardpay/internal/models"
	"github.com/nkiryanov/cardpay/internal/repository"
)

type CreateParams struct {
	CardNumber     string
	Name           string
	MatricNumber   string
	InitialBalance decimal.Decimal
	Password       string
}

// AccountService enrolls card holders and reads their balances
// Balances are never changed here: that is the settlement engine's job
type AccountService struct {
	hasher  PasswordHasher
	storage repository.Storage
}

func NewService(hasher PasswordHasher, storage repository.Storage) *AccountService {
	if hasher == nil {
		hasher = DefaultHasher
	}

	return &AccountService{
		hasher:  hasher,
		storage: storage,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, p CreateParams) (models.Account, error) {
	var account models.Account

	p.CardNumber = strings.TrimSpace(p.CardNumber)
	p.MatricNumber = strings.TrimSpace(p.MatricNumber)

	switch {
	case p.CardNumber == "":
		return account, apperrors.ErrInvalidCardNumber
	case p.MatricNumber == "" || strings.TrimSpace(p.Name) == "":
		return account, apperrors.ErrInvalidAccount
	case p.Password == "":
		return account, fmt.Errorf("%w: password must not be empty", apperrors.ErrInvalidAccount)
	case p.InitialBalance.IsNegative() || !p.InitialBalance.Equal(p.InitialBalance.Round(2)):
		return account, apperrors.ErrInvalidAmount
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return account, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	account, err = s.storage.Account().CreateAccount(ctx, models.Account{
		CardNumber:   p.CardNumber,
		Name:         p.Name,
		MatricNumber: p.MatricNumber,
		Balance:      p.InitialBalance,
		PasswordHash: hash,
	})
	if err != nil {
		return account, fmt.Errorf("can't create account. Err: %w", err)
	}

	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, cardNumber string) (models.Account, error) {
	return s.storage.Account().GetAccount(ctx, cardNumber)
}

// Audit log of the card, newest first
// Unknown card returns apperrors.ErrAccountNotFound rather than an empty log
func (s *AccountService) ListAuditLog(ctx context.Context, cardNumber string) ([]models.AuditEntry, error) {
	_, err := s.storage.Account().GetAccount(ctx, cardNumber)
	if err != nil {
		return nil, err
	}

	entries, err := s.storage.Audit().ListEntries(ctx, cardNumber)
	if err != nil {
		return nil, fmt.Errorf("can't list audit log. Err: %w", err)
	}

	return entries, nil
}
