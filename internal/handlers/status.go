package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nkiryanov/cardpay/internal/handlers/render"
	"github.com/nkiryanov/cardpay/internal/logger"
	"github.com/nkiryanov/cardpay/internal/models"
)

const (
	pollSuccess = "success"
	pollWaiting = "waiting"
	pollError   = "error"
)

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Kiosk poll. Lookup misses are answered with 200 and status "error"; the page keeps polling on its own
func handleStatus(ss statusService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		raw := strings.TrimSpace(r.URL.Query().Get("tid"))
		if raw == "" {
			render.JSON(w, statusResponse{pollError, "No Transaction ID (tid) provided to poller."})
			return
		}

		transactionID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || transactionID <= 0 {
			render.JSON(w, statusResponse{pollError, "Transaction ID not found."})
			return
		}

		status, err := ss.GetStatus(r.Context(), transactionID)
		if err != nil {
			l.Error("Failed to get transaction status", "error", err, "transaction_id", transactionID)
			render.JSONWithStatus(w, statusResponse{pollError, "Database query failed"}, http.StatusInternalServerError)
			return
		}

		switch status {
		case models.StatusSettled:
			render.JSON(w, statusResponse{pollSuccess, "Payment successful"})
		case models.StatusPending:
			render.JSON(w, statusResponse{pollWaiting, "Payment in progress..."})
		default:
			render.JSON(w, statusResponse{pollError, "Transaction ID not found."})
		}
	})
}
