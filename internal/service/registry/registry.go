package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nkiryanov/cardpay/internal/apperrors"
	"github.com/nkiryanov/cardpay/internal/metrics"
	"github.com/nkiryanov/cardpay/internal/models"
	"github.com/nkiryanov/cardpay/internal/repository"
)

// Largest amount NUMERIC(14, 2) column can hold
var maxAmount = decimal.New(1, 12)

type Option func(*RegistryService)

// Clock used to derive transaction ids
func WithClock(now func() time.Time) Option {
	return func(s *RegistryService) { s.now = now }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *RegistryService) { s.tracer = tracer }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *RegistryService) { s.metrics = m }
}

// RegistryService creates pending transactions on behalf of kiosks
type RegistryService struct {
	storage repository.Storage
	now     func() time.Time
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

func NewService(storage repository.Storage, opts ...Option) *RegistryService {
	s := &RegistryService{
		storage: storage,
		now:     time.Now,
		tracer:  otel.Tracer("cardpay/registry"),
		metrics: metrics.NewNoOp(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create pending transaction with id derived from creation second
// Two creates within one second collide and the second fails with apperrors.ErrTransactionIDTaken
func (s *RegistryService) CreateTransaction(ctx context.Context, amount decimal.Decimal) (models.PendingTransaction, error) {
	ctx, span := s.tracer.Start(ctx, "registry.CreateTransaction")
	defer span.End()

	if err := validateAmount(amount); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.PendingTransaction{}, err
	}

	now := s.now()
	t, err := s.storage.Payment().CreatePending(ctx, models.PendingTransaction{
		ID:        now.Unix(),
		Amount:    amount,
		CreatedAt: now,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return t, fmt.Errorf("can't create transaction. Err: %w", err)
	}

	span.SetAttributes(attribute.Int64("transaction.id", t.ID))
	s.metrics.TransactionCreated()

	return t, nil
}

// Lookup transaction in any state
// If not found returns apperrors.ErrTransactionNotFound
func (s *RegistryService) GetTransaction(ctx context.Context, id int64) (models.PendingTransaction, error) {
	if id <= 0 {
		return models.PendingTransaction{}, apperrors.ErrInvalidTransactionID
	}

	return s.storage.Payment().GetPayment(ctx, id)
}

func validateAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return apperrors.ErrInvalidAmount
	case !amount.Equal(amount.Round(2)):
		return fmt.Errorf("%w: more than two fractional digits", apperrors.ErrInvalidAmount)
	case amount.GreaterThanOrEqual(maxAmount):
		return fmt.Errorf("%w: too large", apperrors.ErrInvalidAmount)
	default:
		return nil
	}
}
