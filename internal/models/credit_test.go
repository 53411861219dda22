package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCredit() CarbonCredit {
	return CarbonCredit{
		OwnerID:          "owner-1",
		Amount:           decimal.RequireFromString("100.00"),
		Origin:           "Reforestation project, Bahia",
		GenerationDate:   time.Now().AddDate(0, -1, 0),
		Status:           TradingAvailable,
		ValidationStatus: ValidationPending,
	}
}

func TestCreditValidate(t *testing.T) {
	t.Run("valid credit gets default unit", func(t *testing.T) {
		c := validCredit()
		require.NoError(t, c.Validate())
		assert.Equal(t, DefaultUnit, c.Unit)
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		c := validCredit()
		c.Amount = decimal.Zero
		assert.ErrorIs(t, c.Validate(), ErrInvalidAmount)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		c := validCredit()
		c.Amount = decimal.RequireFromString("-5")
		assert.ErrorIs(t, c.Validate(), ErrInvalidAmount)
	})

	t.Run("future generation date rejected", func(t *testing.T) {
		c := validCredit()
		c.GenerationDate = time.Now().AddDate(0, 0, 2)
		assert.ErrorIs(t, c.Validate(), ErrFutureGenerationDate)
	})

	t.Run("today is allowed", func(t *testing.T) {
		c := validCredit()
		c.GenerationDate = time.Now()
		assert.NoError(t, c.Validate())
	})

	t.Run("explicit unit kept", func(t *testing.T) {
		c := validCredit()
		c.Unit = "kg CO2"
		require.NoError(t, c.Validate())
		assert.Equal(t, "kg CO2", c.Unit)
	})
}

func TestValidationStateMachine(t *testing.T) {
	t.Run("start review from pending", func(t *testing.T) {
		c := validCredit()
		require.NoError(t, c.StartReview("auditor-1"))
		assert.Equal(t, ValidationUnderReview, c.ValidationStatus)
		require.NotNil(t, c.ValidatedByID)
		assert.Equal(t, "auditor-1", *c.ValidatedByID)
	})

	t.Run("start review is re-entrant while under review", func(t *testing.T) {
		c := validCredit()
		require.NoError(t, c.StartReview("auditor-1"))
		require.NoError(t, c.StartReview("auditor-2"))
		assert.Equal(t, "auditor-2", *c.ValidatedByID)
	})

	t.Run("approve requires notes", func(t *testing.T) {
		c := validCredit()
		assert.ErrorIs(t, c.Approve("auditor-1", "  "), ErrMissingNotes)
		assert.Equal(t, ValidationPending, c.ValidationStatus)
	})

	t.Run("approve sets audit fields", func(t *testing.T) {
		c := validCredit()
		require.NoError(t, c.Approve("auditor-1", "documents verified"))
		assert.Equal(t, ValidationApproved, c.ValidationStatus)
		assert.True(t, c.IsVerified)
		assert.NotNil(t, c.ValidatedAt)
		assert.Equal(t, "documents verified", c.AuditorNotes)
	})

	t.Run("reject requires notes", func(t *testing.T) {
		c := validCredit()
		assert.ErrorIs(t, c.Reject("auditor-1", ""), ErrMissingNotes)
	})

	t.Run("approved is terminal", func(t *testing.T) {
		c := validCredit()
		require.NoError(t, c.Approve("auditor-1", "ok"))
		assert.ErrorIs(t, c.StartReview("auditor-2"), ErrInvalidState)
		assert.ErrorIs(t, c.Reject("auditor-2", "changed my mind"), ErrInvalidState)
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		c := validCredit()
		require.NoError(t, c.Reject("auditor-1", "missing documentation"))
		assert.False(t, c.IsVerified)
		assert.ErrorIs(t, c.Approve("auditor-1", "actually fine"), ErrInvalidState)
	})
}
