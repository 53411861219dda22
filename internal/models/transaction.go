package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TxnPending   TransactionStatus = "PENDING"
	TxnCompleted TransactionStatus = "COMPLETED"
	TxnCancelled TransactionStatus = "CANCELLED"
)

// Transaction records one completed credit sale between a buyer and a seller.
// TotalPrice is fixed at purchase time (amount x listing price); a COMPLETED
// transaction is never updated.
type Transaction struct {
	ID         string            `json:"id"`
	BuyerID    string            `json:"buyer_id"`
	SellerID   string            `json:"seller_id"`
	CreditID   string            `json:"credit_id"`
	Amount     decimal.Decimal   `json:"amount"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	Status     TransactionStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}
