package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecotrade/ecotrade-backend/internal/models"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
)

// RecordOwnership appends the ledger entry implied by the credit's current
// state. It must run inside the same atomic unit as the owner mutation that
// triggered it: every code path that changes a credit's owner calls it
// directly, so no transfer can escape the ledger.
//
// Behavior:
//   - no history yet: genesis entry (from=nil, CREATION). This also backfills
//     legacy credits that predate the ledger.
//   - owner unchanged since the last entry: no entry (no-op saves are free).
//   - owner changed: SALE when the credit is SOLD (linking the newest
//     COMPLETED transaction for this buyer and its price), TRANSFER otherwise.
func RecordOwnership(ctx context.Context, st repo.Store, credit models.CarbonCredit) error {
	last, err := st.Ownership().Last(ctx, credit.ID)
	if errors.Is(err, repo.ErrNotFound) {
		_, err = st.Ownership().Append(ctx, models.OwnershipEntry{
			CreditID:     credit.ID,
			ToOwnerID:    credit.OwnerID,
			TransferType: models.TransferCreation,
			Notes:        fmt.Sprintf("Credit created: %s %s from %s", credit.Amount, credit.Unit, credit.Origin),
		})
		return err
	}
	if err != nil {
		return err
	}
	if last.ToOwnerID == credit.OwnerID {
		return nil
	}

	entry := models.OwnershipEntry{
		CreditID:     credit.ID,
		FromOwnerID:  &last.ToOwnerID,
		ToOwnerID:    credit.OwnerID,
		TransferType: models.TransferManual,
	}
	if credit.Status == models.TradingSold {
		entry.TransferType = models.TransferSale
		txn, err := st.Transactions().LatestCompleted(ctx, credit.ID, credit.OwnerID)
		switch {
		case err == nil:
			entry.TransactionID = &txn.ID
			entry.Price = &txn.TotalPrice
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}
	}
	_, err = st.Ownership().Append(ctx, entry)
	return err
}
