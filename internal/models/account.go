package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a campus card holder. Card number is the primary identity.
type Account struct {
	CardNumber   string
	Name         string
	MatricNumber string
	Balance      decimal.Decimal
	PasswordHash string
	CreatedAt    time.Time
}
