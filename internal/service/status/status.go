package status

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nkiryanov/cardpay/internal/apperrors"
	"github.com/nkiryanov/cardpay/internal/metrics"
	"github.com/nkiryanov/cardpay/internal/models"
	"github.com/nkiryanov/cardpay/internal/repository"
)

type Option func(*StatusService)

func WithTracer(tracer trace.Tracer) Option {
	return func(s *StatusService) { s.tracer = tracer }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *StatusService) { s.metrics = m }
}

// StatusService answers kiosk polls. It never writes
type StatusService struct {
	payments repository.PaymentRepo
	tracer   trace.Tracer
	metrics  *metrics.Metrics
}

func NewService(storage repository.Storage, opts ...Option) *StatusService {
	s := &StatusService{
		payments: storage.Payment(),
		tracer:   otel.Tracer("cardpay/status"),
		metrics:  metrics.NewNoOp(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Report current transaction state
// Unknown ids are not an error: they are reported as models.StatusUnknown
func (s *StatusService) GetStatus(ctx context.Context, transactionID int64) (models.Status, error) {
	ctx, span := s.tracer.Start(ctx, "status.GetStatus", trace.WithAttributes(
		attribute.Int64("transaction.id", transactionID),
	))
	defer span.End()

	if transactionID <= 0 {
		return models.StatusUnknown, apperrors.ErrInvalidTransactionID
	}

	t, err := s.payments.GetPayment(ctx, transactionID)

	var status models.Status
	switch {
	case err == nil:
		status = t.Status()
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		status = models.StatusUnknown
	default:
		span.RecordError(err)
		return models.StatusUnknown, fmt.Errorf("can't get transaction status. Err: %w", err)
	}

	span.SetAttributes(attribute.String("transaction.status", string(status)))
	s.metrics.StatusPolled(string(status))

	return status, nil
}
