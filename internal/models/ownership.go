package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransferType string

const (
	TransferCreation TransferType = "CREATION"
	TransferSale     TransferType = "SALE"
	TransferManual   TransferType = "TRANSFER"
)

// OwnershipEntry is one immutable link in a credit's ownership chain.
// The first entry for a credit has FromOwnerID == nil (genesis); every later
// entry's FromOwnerID equals the previous entry's ToOwnerID.
type OwnershipEntry struct {
	ID            string           `json:"id"`
	CreditID      string           `json:"credit_id"`
	FromOwnerID   *string          `json:"from_owner_id"`
	ToOwnerID     string           `json:"to_owner_id"`
	TransferType  TransferType     `json:"transfer_type"`
	TransactionID *string          `json:"transaction_id,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}
