package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecotrade/ecotrade-backend/internal/metrics"
	"github.com/ecotrade/ecotrade-backend/internal/models"
	"github.com/ecotrade/ecotrade-backend/internal/notify"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
	"github.com/ecotrade/ecotrade-backend/internal/worker"
)

type MarketService struct {
	store    repo.Store
	wp       *worker.Pool
	notifier notify.Notifier
}

func NewMarketService(store repo.Store, wp *worker.Pool, n notify.Notifier) *MarketService {
	return &MarketService{store: store, wp: wp, notifier: n}
}

// ListForSale creates an active listing and flips the credit to LISTED in one
// atomic unit. Only the owning producer may list; the credit must be
// AVAILABLE and have no active listing. Validation status is not checked:
// unapproved credits may be listed, purchase is where the gate sits.
func (s *MarketService) ListForSale(ctx context.Context, creditID string, pricePerUnit decimal.Decimal, expiresAt *time.Time, actor models.User) (models.CreditListing, error) {
	l := models.CreditListing{
		CreditID:     creditID,
		PricePerUnit: pricePerUnit,
		ExpiresAt:    expiresAt,
		IsActive:     true,
	}
	if err := l.Validate(); err != nil {
		return models.CreditListing{}, err
	}

	var out models.CreditListing
	err := s.store.WithTx(ctx, func(st repo.Store) error {
		credit, err := st.Credits().GetByIDForUpdate(ctx, creditID)
		if err != nil {
			return err
		}
		if actor.Role != models.RoleProducer || credit.OwnerID != actor.ID {
			return models.ErrForbidden
		}
		if credit.Status != models.TradingAvailable {
			return models.ErrInvalidState
		}
		if _, err := st.Listings().GetActiveByCredit(ctx, creditID); err == nil {
			return models.ErrDuplicateListing
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		created, err := st.Listings().Create(ctx, l)
		if err != nil {
			return err
		}
		credit.Status = models.TradingListed
		if err := st.Credits().Update(ctx, credit); err != nil {
			return err
		}
		out = created
		return nil
	})
	return out, err
}

// Purchase is the atomic purchase orchestrator. The credit row lock taken at
// the start of the transaction serializes concurrent attempts on the same
// credit: the loser blocks, then re-reads fresh state and fails cleanly on
// the LISTED check. Precondition order is fixed and each violation maps to a
// distinct error. On success the transaction record, listing deactivation,
// both wallet movements, the ownership flip and the ledger entry commit
// together or not at all.
func (s *MarketService) Purchase(ctx context.Context, creditID string, buyer models.User) (models.Transaction, error) {
	var (
		out    models.Transaction
		seller models.User
	)
	err := s.store.WithTx(ctx, func(st repo.Store) error {
		credit, err := st.Credits().GetByIDForUpdate(ctx, creditID)
		if errors.Is(err, repo.ErrNotFound) {
			return models.ErrNotAvailable
		}
		if err != nil {
			return err
		}
		if credit.Status != models.TradingListed {
			return models.ErrNotAvailable
		}
		if credit.ValidationStatus != models.ValidationApproved {
			return models.ErrNotValidated
		}
		listing, err := st.Listings().GetActiveByCredit(ctx, creditID)
		if errors.Is(err, repo.ErrNotFound) {
			return models.ErrNoActiveListing
		}
		if err != nil {
			return err
		}
		if buyer.ID == credit.OwnerID {
			return models.ErrSelfPurchase
		}

		totalPrice := credit.Amount.Mul(listing.PricePerUnit)

		// Wallet rows are locked in id order so two purchases between the
		// same parties in opposite directions cannot deadlock.
		first, second := buyer.ID, credit.OwnerID
		if second < first {
			first, second = second, first
		}
		if _, err := st.Wallets().GetForUpdate(ctx, first); err != nil {
			return err
		}
		if _, err := st.Wallets().GetForUpdate(ctx, second); err != nil {
			return err
		}
		buyerWallet, err := st.Wallets().Get(ctx, buyer.ID)
		if err != nil {
			return err
		}
		if !buyerWallet.CanSpend(totalPrice) {
			return models.ErrInsufficientFunds
		}

		txn, err := st.Transactions().Create(ctx, models.Transaction{
			BuyerID:    buyer.ID,
			SellerID:   credit.OwnerID,
			CreditID:   credit.ID,
			Amount:     credit.Amount,
			TotalPrice: totalPrice,
			Status:     models.TxnCompleted,
		})
		if err != nil {
			return err
		}

		// Deactivate before the SOLD flip: an active listing against a SOLD
		// credit is invalid, so the ordering matters.
		if err := st.Listings().Deactivate(ctx, listing.ID); err != nil {
			return err
		}

		// Deduct re-checks the balance guard at update time.
		if _, err := st.Wallets().Deduct(ctx, buyer.ID, totalPrice); err != nil {
			return err
		}
		if _, err := st.Wallets().Add(ctx, credit.OwnerID, totalPrice); err != nil {
			return err
		}

		if seller, err = st.Users().GetByID(ctx, credit.OwnerID); err != nil {
			return err
		}

		credit.OwnerID = buyer.ID
		credit.Status = models.TradingSold
		if err := st.Credits().Update(ctx, credit); err != nil {
			return err
		}
		if err := RecordOwnership(ctx, st, credit); err != nil {
			return err
		}
		out = txn
		return nil
	})
	if err != nil {
		metrics.PurchaseFailures.WithLabelValues(failureReason(err)).Inc()
		return models.Transaction{}, err
	}

	metrics.PurchasesTotal.Inc()
	s.notifySale(buyer, seller, out)
	return out, nil
}

func (s *MarketService) notifySale(buyer, seller models.User, txn models.Transaction) {
	s.wp.Submit(func() {
		ctx := context.Background()
		_ = s.notifier.Send(ctx, notify.Notification{
			Recipient: buyer.Email,
			Subject:   "Purchase completed",
			Body:      fmt.Sprintf("Transaction %s: %s for %s", txn.ID, txn.Amount, txn.TotalPrice),
		})
		_ = s.notifier.Send(ctx, notify.Notification{
			Recipient: seller.Email,
			Subject:   "Your credit was sold",
			Body:      fmt.Sprintf("Transaction %s: credit %s sold for %s", txn.ID, txn.CreditID, txn.TotalPrice),
		})
	})
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrNotAvailable):
		return "not_available"
	case errors.Is(err, models.ErrNotValidated):
		return "not_validated"
	case errors.Is(err, models.ErrNoActiveListing):
		return "no_active_listing"
	case errors.Is(err, models.ErrSelfPurchase):
		return "self_purchase"
	case errors.Is(err, models.ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return "error"
	}
}

func (s *MarketService) Marketplace(ctx context.Context, limit, offset int) ([]models.MarketItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Listings().ListActive(ctx, limit, offset)
}

func (s *MarketService) TransactionsFor(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Transactions().ListByUser(ctx, userID, limit, offset)
}
