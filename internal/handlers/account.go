package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/cardpay/internal/apperrors"
	"github.com/nkiryanov/cardpay/internal/handlers/render"
	"github.com/nkiryanov/cardpay/internal/logger"
	"github.com/nkiryanov/cardpay/internal/models"
	"github.com/nkiryanov/cardpay/internal/service/account"
)

type accountResponse struct {
	CardNumber   string          `json:"card_number"`
	Name         string          `json:"name"`
	MatricNumber string          `json:"matric_number"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"created_at"`
}

func newAccountResponse(a models.Account) accountResponse {
	return accountResponse{
		CardNumber:   a.CardNumber,
		Name:         a.Name,
		MatricNumber: a.MatricNumber,
		Balance:      a.Balance,
		CreatedAt:    a.CreatedAt,
	}
}

func handleCreateAccount(as accountService, l logger.Logger) http.Handler {
	type request struct {
		CardNumber     string          `json:"card_number" validate:"required,max=64"`
		Name           string          `json:"name" validate:"required,max=255"`
		MatricNumber   string          `json:"matric_number" validate:"required,max=64"`
		InitialBalance decimal.Decimal `json:"initial_balance" validate:"money"`
		Password       string          `json:"password" validate:"required,min=6"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		created, err := as.CreateAccount(r.Context(), account.CreateParams{
			CardNumber:     req.CardNumber,
			Name:           req.Name,
			MatricNumber:   req.MatricNumber,
			InitialBalance: req.InitialBalance,
			Password:       req.Password,
		})

		switch {
		case err == nil:
			render.JSONWithStatus(w, newAccountResponse(created), http.StatusCreated)
		case errors.Is(err, apperrors.ErrAccountAlreadyExists):
			render.ServiceError(w, "Card or matric number already registered", http.StatusConflict)
		case errors.Is(err, apperrors.ErrInvalidCardNumber),
			errors.Is(err, apperrors.ErrInvalidAccount),
			errors.Is(err, apperrors.ErrInvalidAmount):
			render.ServiceError(w, err.Error(), http.StatusBadRequest)
		default:
			l.Error("Failed to create account", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleGetAccount(as accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, err := as.GetAccount(r.Context(), r.PathValue("card"))

		switch {
		case err == nil:
			render.JSON(w, newAccountResponse(a))
		case errors.Is(err, apperrors.ErrAccountNotFound):
			render.ServiceError(w, "Card not registered", http.StatusNotFound)
		default:
			l.Error("Failed to get account", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListAuditLog(as accountService, l logger.Logger) http.Handler {
	type entry struct {
		ID              uuid.UUID       `json:"id"`
		TransactionID   int64           `json:"transaction_id"`
		Kind            models.Kind     `json:"kind"`
		Amount          decimal.Decimal `json:"amount"`
		PreviousBalance decimal.Decimal `json:"previous_balance"`
		NewBalance      decimal.Decimal `json:"new_balance"`
		CreatedAt       time.Time       `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries, err := as.ListAuditLog(r.Context(), r.PathValue("card"))

		switch {
		case err == nil:
			res := make([]entry, 0, len(entries))
			for _, e := range entries {
				res = append(res, entry{
					ID:              e.ID,
					TransactionID:   e.TransactionID,
					Kind:            e.Kind,
					Amount:          e.Amount,
					PreviousBalance: e.PreviousBalance,
					NewBalance:      e.NewBalance,
					CreatedAt:       e.CreatedAt,
				})
			}
			render.JSON(w, res)
		case errors.Is(err, apperrors.ErrAccountNotFound):
			render.ServiceError(w, "Card not registered", http.StatusNotFound)
		default:
			l.Error("Failed to list audit log", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
