package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/cardpay/internal/apperrors"
	"github.com/nkiryanov/cardpay/internal/logger"
	"github.com/nkiryanov/cardpay/internal/models"
)

// Allow to use functions as services
type registryFunc func(ctx context.Context, amount decimal.Decimal) (models.PendingTransaction, error)

func (f registryFunc) CreateTransaction(ctx context.Context, amount decimal.Decimal) (models.PendingTransaction, error) {
	return f(ctx, amount)
}

type settleFunc func(ctx context.Context, card string, id int64, kind models.Kind) (models.SettlementResult, error)

func (f settleFunc) Settle(ctx context.Context, card string, id int64, kind models.Kind) (models.SettlementResult, error) {
	return f(ctx, card, id, kind)
}

type statusFunc func(ctx context.Context, id int64) (models.Status, error)

func (f statusFunc) GetStatus(ctx context.Context, id int64) (models.Status, error) {
	return f(ctx, id)
}

type authFunc func(ctx context.Context, credential string) error

func (f authFunc) Authenticate(ctx context.Context, credential string) error {
	return f(ctx, credential)
}

var staticKey = authFunc(func(_ context.Context, credential string) error {
	if credential != "somade_daniel" {
		return apperrors.ErrDeviceUnauthorized
	}
	return nil
})

func get(t *testing.T, rawURL string) (int, http.Header, string) {
	t.Helper()

	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	return resp.StatusCode, resp.Header, string(body)
}

func TestHandleSettle(t *testing.T) {
	var (
		gotCard string
		gotID   int64
		gotKind models.Kind
	)

	settle := func(err error, result models.SettlementResult) settleFunc {
		return func(_ context.Context, card string, id int64, kind models.Kind) (models.SettlementResult, error) {
			gotCard, gotID, gotKind = card, id, kind
			return result, err
		}
	}

	query := func(apikey, card, paymentType, tid string) string {
		v := url.Values{}
		v.Set("apikey", apikey)
		v.Set("card_number", card)
		v.Set("paymentType", paymentType)
		if tid != "" {
			v.Set("tid", tid)
		}
		return "/api/payment?" + v.Encode()
	}

	t.Run("debit ok", func(t *testing.T) {
		srv := httptest.NewServer(handleSettle(settle(nil, models.SettlementResult{Message: "Payment is successful, new balance= #500"}), staticKey, logger.NewNoOpLogger()))
		defer srv.Close()

		code, header, body := get(t, srv.URL+query("somade_daniel", " CARD-A ", "debit", "1715941800"))

		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "text/plain; charset=utf-8", header.Get("Content-Type"))
		require.Equal(t, "Payment is successful, new balance= #500", body)
		require.Equal(t, "CARD-A", gotCard, "card number has to be trimmed")
		require.EqualValues(t, 1715941800, gotID)
		require.Equal(t, models.KindDebit, gotKind)
	})

	t.Run("anything but debit is credit", func(t *testing.T) {
		srv := httptest.NewServer(handleSettle(settle(nil, models.SettlementResult{}), staticKey, logger.NewNoOpLogger()))
		defer srv.Close()

		for _, paymentType := range []string{"credit", "", "topup", "DEBITS"} {
			code, _, _ := get(t, srv.URL+query("somade_daniel", "CARD-A", paymentType, "1"))

			require.Equal(t, http.StatusOK, code)
			require.Equal(t, models.KindCredit, gotKind, "paymentType=%q", paymentType)
		}
	})

	t.Run("rejected before settle", func(t *testing.T) {
		called := false
		ss := settleFunc(func(context.Context, string, int64, models.Kind) (models.SettlementResult, error) {
			called = true
			return models.SettlementResult{}, nil
		})
		srv := httptest.NewServer(handleSettle(ss, staticKey, logger.NewNoOpLogger()))
		defer srv.Close()

		tests := []struct {
			name     string
			path     string
			wantCode int
			wantBody string
		}{
			{"wrong key", query("guess", "CARD-A", "debit", "1"), http.StatusUnauthorized, "Incorrect Api Key"},
			{"no tid", query("somade_daniel", "CARD-A", "debit", ""), http.StatusBadRequest, "Error: Transaction ID (tid) was not sent from ESP."},
			{"bad tid", query("somade_daniel", "CARD-A", "debit", "abc"), http.StatusBadRequest, "Error: Transaction ID (tid) was not sent from ESP."},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				code, _, body := get(t, srv.URL+tt.path)

				require.Equal(t, tt.wantCode, code)
				require.Equal(t, tt.wantBody, body)
				require.False(t, called, "settlement must not be reached")
			})
		}
	})

	t.Run("non GET method", func(t *testing.T) {
		srv := httptest.NewServer(handleSettle(settle(nil, models.SettlementResult{}), staticKey, logger.NewNoOpLogger()))
		defer srv.Close()

		resp, err := http.Post(srv.URL+query("somade_daniel", "CARD-A", "debit", "1"), "text/plain", nil)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		require.Equal(t, "Invalid method of sending data", string(body))
	})

	t.Run("settle errors", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			result   models.SettlementResult
			wantCode int
			wantBody string
		}{
			{"insufficient", apperrors.ErrInsufficientFunds, models.SettlementResult{Message: "Insufficient fund, balance = #300"}, http.StatusPaymentRequired, "Insufficient fund, balance = #300"},
			{"no card", apperrors.ErrAccountNotFound, models.SettlementResult{}, http.StatusNotFound, "Card not registered"},
			{"empty card", apperrors.ErrInvalidCardNumber, models.SettlementResult{}, http.StatusBadRequest, "Card not registered"},
			{"settled already", apperrors.ErrTransactionNotFound, models.SettlementResult{}, http.StatusNotFound, "No amount stated or transaction already processed"},
			{"store failure", errors.New("connection reset"), models.SettlementResult{}, http.StatusInternalServerError, "Error updating records"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := httptest.NewServer(handleSettle(settle(tt.err, tt.result), staticKey, logger.NewNoOpLogger()))
				defer srv.Close()

				code, _, body := get(t, srv.URL+query("somade_daniel", "CARD-A", "debit", "1"))

				require.Equal(t, tt.wantCode, code)
				require.Equal(t, tt.wantBody, body)
			})
		}
	})
}

func TestHandleStatus(t *testing.T) {
	oracle := statusFunc(func(_ context.Context, id int64) (models.Status, error) {
		switch id {
		case 1:
			return models.StatusPending, nil
		case 2:
			return models.StatusSettled, nil
		case 3:
			return models.StatusUnknown, errors.New("connection reset")
		default:
			return models.StatusUnknown, nil
		}
	})

	srv := httptest.NewServer(handleStatus(oracle, logger.NewNoOpLogger()))
	defer srv.Close()

	tests := []struct {
		name     string
		query    string
		wantCode int
		wantBody string
	}{
		{"pending", "?tid=1", http.StatusOK, `{"status":"waiting","message":"Payment in progress..."}`},
		{"settled", "?tid=2", http.StatusOK, `{"status":"success","message":"Payment successful"}`},
		{"unknown", "?tid=42", http.StatusOK, `{"status":"error","message":"Transaction ID not found."}`},
		{"not a number", "?tid=abc", http.StatusOK, `{"status":"error","message":"Transaction ID not found."}`},
		{"no tid", "", http.StatusOK, `{"status":"error","message":"No Transaction ID (tid) provided to poller."}`},
		{"store failure", "?tid=3", http.StatusInternalServerError, `{"status":"error","message":"Database query failed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, header, body := get(t, srv.URL+"/api/status"+tt.query)

			require.Equal(t, tt.wantCode, code)
			require.Equal(t, "no-store", header.Get("Cache-Control"))
			require.JSONEq(t, tt.wantBody, body)
		})
	}
}

func TestHandleCreateTransaction(t *testing.T) {
	noRedirect := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	var gotAmount decimal.Decimal
	rs := registryFunc(func(_ context.Context, amount decimal.Decimal) (models.PendingTransaction, error) {
		gotAmount = amount
		switch {
		case amount.IsZero():
			return models.PendingTransaction{}, apperrors.ErrInvalidAmount
		case amount.Equal(decimal.NewFromInt(13)):
			return models.PendingTransaction{}, apperrors.ErrTransactionIDTaken
		default:
			return models.PendingTransaction{ID: 1715941800, Amount: amount}, nil
		}
	})

	srv := httptest.NewServer(handleCreateTransaction(rs, "/approved_transaction_page.html", logger.NewNoOpLogger()))
	defer srv.Close()

	t.Run("form ok", func(t *testing.T) {
		resp, err := noRedirect.PostForm(srv.URL, url.Values{"amount": {"500"}})
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, "/approved_transaction_page.html?tid=1715941800", resp.Header.Get("Location"))
		require.JSONEq(t, `{"tid": 1715941800}`, string(body))
		require.True(t, decimal.NewFromInt(500).Equal(gotAmount))
	})

	t.Run("query ok", func(t *testing.T) {
		resp, err := noRedirect.Post(srv.URL+"?amount=12.50", "text/plain", nil)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.True(t, decimal.RequireFromString("12.5").Equal(gotAmount))
	})

	tests := []struct {
		name     string
		amount   string
		wantCode int
	}{
		{"no amount", "", http.StatusBadRequest},
		{"not a number", "five", http.StatusBadRequest},
		{"rejected amount", "0", http.StatusBadRequest},
		{"id collision", "13", http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := noRedirect.Post(srv.URL, "application/x-www-form-urlencoded", strings.NewReader("amount="+tt.amount))
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equal(t, tt.wantCode, resp.StatusCode)
			require.Empty(t, resp.Header.Get("Location"))
		})
	}
}

func TestStatusLocation(t *testing.T) {
	require.Equal(t, "/page.html?tid=7", statusLocation("/page.html", 7))
	require.Equal(t, "https://kiosk.local/page.html?lang=en&tid=7", statusLocation("https://kiosk.local/page.html?lang=en", 7))
}
