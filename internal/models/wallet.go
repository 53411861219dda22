package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's spendable virtual balance. It is mutated only by
// admin top-ups and by the purchase orchestrator, both via atomic updates.
type Wallet struct {
	UserID        string          `json:"user_id"`
	Balance       decimal.Decimal `json:"balance"`
	LastUpdatedAt time.Time       `json:"last_updated_at"`
}

// CanSpend reports whether the wallet covers the given amount.
func (w Wallet) CanSpend(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
