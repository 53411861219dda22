package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TradingStatus string

const (
	TradingAvailable TradingStatus = "AVAILABLE"
	TradingListed    TradingStatus = "LISTED"
	TradingSold      TradingStatus = "SOLD"
)

type ValidationStatus string

const (
	ValidationPending     ValidationStatus = "PENDING"
	ValidationUnderReview ValidationStatus = "UNDER_REVIEW"
	ValidationApproved    ValidationStatus = "APPROVED"
	ValidationRejected    ValidationStatus = "REJECTED"
)

const DefaultUnit = "tons CO2"

// CarbonCredit is a unit of claimed carbon offset owned by exactly one user.
// Trading status and validation status move independently: a credit may be
// listed before approval, but only APPROVED credits can be purchased.
type CarbonCredit struct {
	ID               string           `json:"id"`
	OwnerID          string           `json:"owner_id"`
	Amount           decimal.Decimal  `json:"amount"`
	Origin           string           `json:"origin"`
	GenerationDate   time.Time        `json:"generation_date"`
	Unit             string           `json:"unit"`
	Status           TradingStatus    `json:"status"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	ValidatedByID    *string          `json:"validated_by,omitempty"`
	ValidatedAt      *time.Time       `json:"validated_at,omitempty"`
	AuditorNotes     string           `json:"auditor_notes,omitempty"`
	IsVerified       bool             `json:"is_verified"`
	IsDeleted        bool             `json:"-"`
	CreatedAt        time.Time        `json:"created_at"`
}

func (c *CarbonCredit) Validate() error {
	if !c.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if c.GenerationDate.After(endOfToday()) {
		return ErrFutureGenerationDate
	}
	if strings.TrimSpace(c.Unit) == "" {
		c.Unit = DefaultUnit
	}
	return nil
}

// StartReview moves the credit into UNDER_REVIEW and pins the acting auditor.
// Valid only while the review cycle is open (PENDING or UNDER_REVIEW).
func (c *CarbonCredit) StartReview(auditorID string) error {
	if c.ValidationStatus != ValidationPending && c.ValidationStatus != ValidationUnderReview {
		return ErrInvalidState
	}
	c.ValidationStatus = ValidationUnderReview
	c.ValidatedByID = &auditorID
	return nil
}

// Approve closes the review cycle. APPROVED is terminal.
func (c *CarbonCredit) Approve(auditorID, notes string) error {
	return c.finishReview(ValidationApproved, auditorID, notes)
}

// Reject closes the review cycle. REJECTED is terminal.
func (c *CarbonCredit) Reject(auditorID, notes string) error {
	return c.finishReview(ValidationRejected, auditorID, notes)
}

func (c *CarbonCredit) finishReview(result ValidationStatus, auditorID, notes string) error {
	if strings.TrimSpace(notes) == "" {
		return ErrMissingNotes
	}
	if c.ValidationStatus == ValidationApproved || c.ValidationStatus == ValidationRejected {
		return ErrInvalidState
	}
	now := time.Now()
	c.ValidationStatus = result
	c.ValidatedByID = &auditorID
	c.ValidatedAt = &now
	c.AuditorNotes = notes
	c.IsVerified = result == ValidationApproved
	return nil
}

// endOfToday allows generation dates anywhere within the current day,
// regardless of the time-of-day portion of the value.
func endOfToday() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), time.Local)
}
