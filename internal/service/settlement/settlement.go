// Package settlement applies pending transactions to card balances.
//
// Every settlement runs in one database transaction which locks the account
// row first and the pending transaction row second. The pending row is read
// with the settled = false predicate under lock, so concurrent scans of the
// same transaction id see it exactly once.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nkiryanov/cardpay/internal/apperrors"
	"github.com/nkiryanov/cardpay/internal/logger"
	"github.com/nkiryanov/cardpay/internal/metrics"
	"github.com/nkiryanov/cardpay/internal/models"
	"github.com/nkiryanov/cardpay/internal/repository"
)

type Option func(*SettlementService)

func WithClock(now func() time.Time) Option {
	return func(s *SettlementService) { s.now = now }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *SettlementService) { s.tracer = tracer }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *SettlementService) { s.metrics = m }
}

func WithLogger(l logger.Logger) Option {
	return func(s *SettlementService) { s.logger = l }
}

type SettlementService struct {
	storage repository.Storage
	now     func() time.Time
	tracer  trace.Tracer
	metrics *metrics.Metrics
	logger  logger.Logger
}

func NewService(storage repository.Storage, opts ...Option) *SettlementService {
	s := &SettlementService{
		storage: storage,
		now:     time.Now,
		tracer:  otel.Tracer("cardpay/settlement"),
		metrics: metrics.NewNoOp(),
		logger:  logger.NewNoOpLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Settle pending transaction against the card balance
//
// Errors:
//   - apperrors.ErrInvalidCardNumber, ErrInvalidTransactionID, ErrInvalidKind: nothing looked up
//   - apperrors.ErrAccountNotFound: card not registered
//   - apperrors.ErrTransactionNotFound: unknown or already settled transaction
//   - apperrors.ErrInsufficientFunds: result carries unchanged balance and reader message
//
// Any error leaves balance, audit log and transaction untouched.
func (s *SettlementService) Settle(ctx context.Context, cardNumber string, transactionID int64, kind models.Kind) (models.SettlementResult, error) {
	ctx, span := s.tracer.Start(ctx, "settlement.Settle", trace.WithAttributes(
		attribute.Int64("transaction.id", transactionID),
		attribute.String("settlement.kind", string(kind)),
	))
	defer span.End()

	start := time.Now()
	result := models.SettlementResult{
		CardNumber:    cardNumber,
		TransactionID: transactionID,
		Kind:          kind,
	}

	err := validate(cardNumber, transactionID, kind)
	if err == nil {
		err = s.storage.InTx(ctx, func(st repository.Storage) error {
			return s.settle(ctx, st, &result)
		})
	}

	outcome := outcomeOf(err)
	log := s.logger.With(logger.CardNumberKey, cardNumber, "transaction_id", transactionID)
	s.metrics.Settled(string(kind), outcome, time.Since(start))
	span.SetAttributes(attribute.String("settlement.outcome", outcome))

	switch {
	case err == nil:
		log.Info("Transaction settled",
			"kind", kind,
			"previous_balance", result.PreviousBalance.String(),
			"new_balance", result.NewBalance.String(),
		)
		return result, nil
	case outcome == metrics.OutcomeFailed:
		result.NewBalance = result.PreviousBalance
		result.Message = ""
		span.RecordError(err)
		span.SetStatus(codes.Error, "settlement failed")
		log.Error("Settlement failed", "error", err)
		return result, fmt.Errorf("can't settle transaction. Err: %w", err)
	default:
		log.Debug("Settlement rejected", "reason", err)
		return result, err
	}
}

// Lock order: account row, transaction row, audit insert
// Keep it the same everywhere to avoid cross-order deadlocks
func (s *SettlementService) settle(ctx context.Context, st repository.Storage, result *models.SettlementResult) error {
	account, err := st.Account().LockAccount(ctx, result.CardNumber)
	if err != nil {
		return err
	}

	pending, err := st.Payment().LockPending(ctx, result.TransactionID)
	if err != nil {
		return err
	}

	result.Amount = pending.Amount
	result.PreviousBalance = account.Balance
	result.NewBalance = account.Balance

	newBalance, err := Apply(result.Kind, account.Balance, pending.Amount)
	if err != nil {
		result.Message = Message(result.Kind, account.Balance, err)
		return err
	}

	now := s.now()

	if err := st.Account().SetBalance(ctx, account.CardNumber, newBalance); err != nil {
		return err
	}

	_, err = st.Audit().CreateEntry(ctx, models.AuditEntry{
		ID:              uuid.New(),
		CardNumber:      account.CardNumber,
		TransactionID:   pending.ID,
		Kind:            result.Kind,
		Amount:          pending.Amount,
		PreviousBalance: account.Balance,
		NewBalance:      newBalance,
		CreatedAt:       now,
	})
	if err != nil {
		return err
	}

	if err := st.Payment().MarkSettled(ctx, pending.ID, now); err != nil {
		return err
	}

	result.NewBalance = newBalance
	result.Message = Message(result.Kind, newBalance, nil)

	return nil
}

func validate(cardNumber string, transactionID int64, kind models.Kind) error {
	switch {
	case cardNumber == "":
		return apperrors.ErrInvalidCardNumber
	case transactionID <= 0:
		return apperrors.ErrInvalidTransactionID
	case kind != models.KindDebit && kind != models.KindCredit:
		return apperrors.ErrInvalidKind
	default:
		return nil
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSettled
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		return metrics.OutcomeInsufficient
	case errors.Is(err, apperrors.ErrAccountNotFound):
		return metrics.OutcomeNoAccount
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		return metrics.OutcomeNoPending
	case errors.Is(err, apperrors.ErrInvalidCardNumber),
		errors.Is(err, apperrors.ErrInvalidTransactionID),
		errors.Is(err, apperrors.ErrInvalidKind):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeFailed
	}
}
