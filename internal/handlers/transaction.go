package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/cardpay/internal/apperrors"
	"github.com/nkiryanov/cardpay/internal/handlers/render"
	"github.com/nkiryanov/cardpay/internal/logger"
)

// Kiosk form submit. Amount may come as form field or query parameter
// Answers 303 to status page so browser starts polling right away
func handleCreateTransaction(rs registryService, statusPage string, l logger.Logger) http.Handler {
	type response struct {
		TransactionID int64 `json:"tid"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1024)
		if err := r.ParseForm(); err != nil {
			render.ServiceError(w, "Failed to read form", http.StatusBadRequest)
			return
		}

		raw := strings.TrimSpace(r.FormValue("amount"))
		if raw == "" {
			render.ServiceError(w, "No amount stated", http.StatusBadRequest)
			return
		}

		amount, err := decimal.NewFromString(raw)
		if err != nil {
			render.ServiceError(w, "Amount is not a number", http.StatusBadRequest)
			return
		}

		t, err := rs.CreateTransaction(r.Context(), amount)

		switch {
		case err == nil:
			w.Header().Set("Location", statusLocation(statusPage, t.ID))
			render.JSONWithStatus(w, response{TransactionID: t.ID}, http.StatusSeeOther)
		case errors.Is(err, apperrors.ErrInvalidAmount):
			render.ServiceError(w, "Amount must be positive with at most two decimal places", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrTransactionIDTaken):
			l.Warn("Transaction id collision", "error", err)
			render.ServiceError(w, "Another transaction was created this second, retry", http.StatusConflict)
		default:
			l.Error("Failed to create transaction", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func statusLocation(statusPage string, id int64) string {
	u, err := url.Parse(statusPage)
	if err != nil {
		return statusPage + "?tid=" + strconv.FormatInt(id, 10)
	}

	q := u.Query()
	q.Set("tid", strconv.FormatInt(id, 10))
	u.RawQuery = q.Encode()

	return u.String()
}
