package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/cardpay/internal/apperrors"
	"github.com/nkiryanov/cardpay/internal/models"
)

// Apply computes balance after settling amount of the given kind
// Debit never drives balance below zero: returns apperrors.ErrInsufficientFunds instead
func Apply(kind models.Kind, balance decimal.Decimal, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return balance, apperrors.ErrInvalidAmount
	}

	switch kind {
	case models.KindDebit:
		if balance.LessThan(amount) {
			return balance, apperrors.ErrInsufficientFunds
		}
		return balance.Sub(amount), nil
	case models.KindCredit:
		return balance.Add(amount), nil
	default:
		return balance, apperrors.ErrInvalidKind
	}
}

// Message shown by the card reader
func Message(kind models.Kind, balance decimal.Decimal, err error) string {
	switch {
	case err == nil && kind == models.KindDebit:
		return fmt.Sprintf("Payment is successful, new balance= #%s", balance.String())
	case err == nil:
		return fmt.Sprintf("Account credited, new balance= #%s", balance.String())
	default:
		return fmt.Sprintf("Insufficient fund, balance = #%s", balance.String())
	}
}
