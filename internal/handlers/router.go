package handlers

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/cardpay/internal/handlers/middleware"
	"github.com/nkiryanov/cardpay/internal/handlers/render"
	"github.com/nkiryanov/cardpay/internal/logger"
	"github.com/nkiryanov/cardpay/internal/models"
	"github.com/nkiryanov/cardpay/internal/service/account"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Services struct {
	Registry      registryService
	Settlement    settlementService
	Status        statusService
	Accounts      accountService
	Authenticator authenticator
}

type RouterConfig struct {
	// Kiosk page that polls transaction status; created transaction id is appended as ?tid=
	StatusPage string

	// Metrics source for /metrics; endpoint is not mounted if nil
	Gatherer prometheus.Gatherer
}

func NewRouter(s Services, cfg RouterConfig, l logger.Logger) http.Handler {
	withDeviceAuth := middleware.DeviceAuth(s.Authenticator, l)

	root := http.NewServeMux()

	root.Handle("POST /api/transactions", handleCreateTransaction(s.Registry, cfg.StatusPage, l))
	root.Handle("GET /api/status", handleStatus(s.Status, l))

	// No method in pattern: card readers expect plain text answer on wrong method too
	root.Handle("/api/payment", handleSettle(s.Settlement, s.Authenticator, l))

	root.Handle("POST /api/accounts", withDeviceAuth(handleCreateAccount(s.Accounts, l)))
	root.Handle("GET /api/accounts/{card}", withDeviceAuth(handleGetAccount(s.Accounts, l)))
	root.Handle("GET /api/accounts/{card}/logs", withDeviceAuth(handleListAuditLog(s.Accounts, l)))

	root.Handle("GET /healthz", handleHealth())
	if cfg.Gatherer != nil {
		root.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	handler := chain(root,
		middleware.LoggerMiddleware(l),
	)

	return handler
}

func handleHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		render.JSON(w, map[string]string{"status": "ok"})
	})
}

type registryService interface {
	// Has to return apperrors.ErrInvalidAmount if amount is not positive
	// Has to return apperrors.ErrTransactionIDTaken on id collision
	CreateTransaction(ctx context.Context, amount decimal.Decimal) (models.PendingTransaction, error)
}

type settlementService interface {
	Settle(ctx context.Context, cardNumber string, transactionID int64, kind models.Kind) (models.SettlementResult, error)
}

type statusService interface {
	GetStatus(ctx context.Context, transactionID int64) (models.Status, error)
}

type accountService interface {
	CreateAccount(ctx context.Context, p account.CreateParams) (models.Account, error)
	GetAccount(ctx context.Context, cardNumber string) (models.Account, error)
	ListAuditLog(ctx context.Context, cardNumber string) ([]models.AuditEntry, error)
}

type authenticator interface {
	Authenticate(ctx context.Context, credential string) error
}
