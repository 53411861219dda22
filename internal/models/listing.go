package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditListing is an open offer to sell one credit at a fixed unit price.
// Listings are deactivated, never deleted.
type CreditListing struct {
	ID           string          `json:"id"`
	CreditID     string          `json:"credit_id"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	ListedAt     time.Time       `json:"listed_at"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	IsActive     bool            `json:"is_active"`
}

func (l *CreditListing) Validate() error {
	if !l.PricePerUnit.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

// MarketItem pairs an active listing with its credit for marketplace reads.
type MarketItem struct {
	Listing CreditListing `json:"listing"`
	Credit  CarbonCredit  `json:"credit"`
}
