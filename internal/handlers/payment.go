package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/nkiryanov/cardpay/internal/apperrors"
	"github.com/nkiryanov/cardpay/internal/handlers/render"
	"github.com/nkiryanov/cardpay/internal/logger"
	"github.com/nkiryanov/cardpay/internal/models"
)

// Messages printed by card readers
const (
	msgInvalidMethod    = "Invalid method of sending data"
	msgIncorrectAPIKey  = "Incorrect Api Key"
	msgNoTransactionID  = "Error: Transaction ID (tid) was not sent from ESP."
	msgCardNotFound     = "Card not registered"
	msgNoPending        = "No amount stated or transaction already processed"
	msgUpdateRecordsErr = "Error updating records"
)

// Card reader scan: GET /api/payment?apikey=&card_number=&paymentType=&tid=
// Every answer is plain text the reader shows on its display
func handleSettle(ss settlementService, auth authenticator, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			render.Text(w, msgInvalidMethod, http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()

		if err := auth.Authenticate(r.Context(), q.Get("apikey")); err != nil {
			l.Warn("Device auth failed", "remote_addr", r.RemoteAddr, "uri", r.URL.Path, "error", err)
			render.Text(w, msgIncorrectAPIKey, http.StatusUnauthorized)
			return
		}

		transactionID, err := strconv.ParseInt(strings.TrimSpace(q.Get("tid")), 10, 64)
		if err != nil || transactionID <= 0 {
			render.Text(w, msgNoTransactionID, http.StatusBadRequest)
			return
		}

		cardNumber := strings.TrimSpace(q.Get("card_number"))
		kind := models.ParseKind(q.Get("paymentType"))

		result, err := ss.Settle(r.Context(), cardNumber, transactionID, kind)

		switch {
		case err == nil:
			render.Text(w, result.Message, http.StatusOK)
		case errors.Is(err, apperrors.ErrInsufficientFunds):
			render.Text(w, result.Message, http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrInvalidCardNumber):
			render.Text(w, msgCardNotFound, http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrAccountNotFound):
			render.Text(w, msgCardNotFound, http.StatusNotFound)
		case errors.Is(err, apperrors.ErrTransactionNotFound):
			render.Text(w, msgNoPending, http.StatusNotFound)
		default:
			l.Error("Failed to settle transaction", "error", err, "transaction_id", transactionID)
			render.Text(w, msgUpdateRecordsErr, http.StatusInternalServerError)
		}
	})
}
