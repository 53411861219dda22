package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecotrade/ecotrade-backend/internal/metrics"
	"github.com/ecotrade/ecotrade-backend/internal/models"
	"github.com/ecotrade/ecotrade-backend/internal/notify"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
	"github.com/ecotrade/ecotrade-backend/internal/worker"
)

type CreditService struct {
	store    repo.Store
	wp       *worker.Pool
	notifier notify.Notifier
}

func NewCreditService(store repo.Store, wp *worker.Pool, n notify.Notifier) *CreditService {
	return &CreditService{store: store, wp: wp, notifier: n}
}

type CreateCreditInput struct {
	OwnerID        string
	Amount         decimal.Decimal
	Origin         string
	GenerationDate time.Time
	Unit           string
}

// Create registers a new credit for a producer. The credit and its genesis
// ledger entry are written in one atomic unit.
func (s *CreditService) Create(ctx context.Context, in CreateCreditInput) (models.CarbonCredit, error) {
	c := models.CarbonCredit{
		OwnerID:          in.OwnerID,
		Amount:           in.Amount,
		Origin:           in.Origin,
		GenerationDate:   in.GenerationDate,
		Unit:             in.Unit,
		Status:           models.TradingAvailable,
		ValidationStatus: models.ValidationPending,
	}
	if err := c.Validate(); err != nil {
		return models.CarbonCredit{}, err
	}

	var out models.CarbonCredit
	err := s.store.WithTx(ctx, func(st repo.Store) error {
		created, err := st.Credits().Create(ctx, c)
		if err != nil {
			return err
		}
		if err := RecordOwnership(ctx, st, created); err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return models.CarbonCredit{}, err
	}
	metrics.CreditsCreated.Inc()
	return out, nil
}

func (s *CreditService) Get(ctx context.Context, id string) (models.CarbonCredit, error) {
	return s.store.Credits().GetByID(ctx, id)
}

// GetAny includes soft-deleted credits; admin and audit paths only.
func (s *CreditService) GetAny(ctx context.Context, id string) (models.CarbonCredit, error) {
	return s.store.Credits().GetByIDAny(ctx, id)
}

func (s *CreditService) ListByOwner(ctx context.Context, ownerID string) ([]models.CarbonCredit, error) {
	return s.store.Credits().ListByOwner(ctx, ownerID)
}

// History returns the credit's full ownership timeline, oldest first. Public
// read; works for soft-deleted credits so the audit trail stays reachable.
func (s *CreditService) History(ctx context.Context, creditID string) ([]models.OwnershipEntry, error) {
	if _, err := s.store.Credits().GetByIDAny(ctx, creditID); err != nil {
		return nil, err
	}
	return s.store.Ownership().ListByCredit(ctx, creditID)
}

// PublicList serves the read-only projection: approved, non-deleted credits.
func (s *CreditService) PublicList(ctx context.Context, f repo.CreditFilter) ([]models.CarbonCredit, int, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.Credits().ListApproved(ctx, f)
}

// SoftDelete flips the deleted flag. The credit drops out of normal queries
// but stays in storage, and its ownership history is untouched.
func (s *CreditService) SoftDelete(ctx context.Context, creditID string, actor models.User) error {
	return s.store.WithTx(ctx, func(st repo.Store) error {
		credit, err := st.Credits().GetByID(ctx, creditID)
		if err != nil {
			return err
		}
		if actor.Role != models.RoleAdmin && credit.OwnerID != actor.ID {
			return models.ErrForbidden
		}
		if err := st.Credits().SoftDelete(ctx, creditID); err != nil {
			return err
		}
		return st.AuditLogs().Create(ctx, models.AuditLog{
			EntityType: "credit",
			EntityID:   &credit.ID,
			Action:     "soft_delete",
			Details:    map[string]any{"actor": actor.ID},
		})
	})
}

// ---------------- validation workflow ----------------

// StartReview claims a PENDING credit for the acting auditor.
func (s *CreditService) StartReview(ctx context.Context, creditID string, auditor models.User) error {
	if auditor.Role != models.RoleAuditor {
		return models.ErrForbidden
	}
	return s.store.WithTx(ctx, func(st repo.Store) error {
		credit, err := st.Credits().GetByIDForUpdate(ctx, creditID)
		if err != nil {
			return err
		}
		if err := credit.StartReview(auditor.ID); err != nil {
			return err
		}
		return st.Credits().Update(ctx, credit)
	})
}

func (s *CreditService) Approve(ctx context.Context, creditID string, auditor models.User, notes string) error {
	return s.finishReview(ctx, creditID, auditor, notes, true)
}

func (s *CreditService) Reject(ctx context.Context, creditID string, auditor models.User, notes string) error {
	return s.finishReview(ctx, creditID, auditor, notes, false)
}

func (s *CreditService) finishReview(ctx context.Context, creditID string, auditor models.User, notes string, approve bool) error {
	if auditor.Role != models.RoleAuditor {
		return models.ErrForbidden
	}
	var credit models.CarbonCredit
	var owner models.User
	err := s.store.WithTx(ctx, func(st repo.Store) error {
		var err error
		credit, err = st.Credits().GetByIDForUpdate(ctx, creditID)
		if err != nil {
			return err
		}
		if approve {
			err = credit.Approve(auditor.ID, notes)
		} else {
			err = credit.Reject(auditor.ID, notes)
		}
		if err != nil {
			return err
		}
		if err := st.Credits().Update(ctx, credit); err != nil {
			return err
		}
		if owner, err = st.Users().GetByID(ctx, credit.OwnerID); err != nil {
			return err
		}
		return st.AuditLogs().Create(ctx, models.AuditLog{
			EntityType: "credit",
			EntityID:   &credit.ID,
			Action:     "validation_" + string(credit.ValidationStatus),
			Details:    map[string]any{"auditor": auditor.ID, "notes": notes},
		})
	})
	if err != nil {
		return err
	}

	metrics.CreditsValidated.WithLabelValues(string(credit.ValidationStatus)).Inc()
	s.notifyValidationResult(owner, credit, approve, notes)
	return nil
}

func (s *CreditService) notifyValidationResult(owner models.User, credit models.CarbonCredit, approved bool, notes string) {
	subject := fmt.Sprintf("Your credit %s was rejected", credit.ID)
	if approved {
		subject = fmt.Sprintf("Your credit %s was approved", credit.ID)
	}
	body := fmt.Sprintf("%s %s from %s. Auditor notes: %s", credit.Amount, credit.Unit, credit.Origin, notes)
	s.wp.Submit(func() {
		_ = s.notifier.Send(context.Background(), notify.Notification{
			Recipient: owner.Email,
			Subject:   subject,
			Body:      body,
		})
	})
}

// AuditorQueue serves the auditor dashboard tabs.
func (s *CreditService) AuditorQueue(ctx context.Context, auditor models.User, tab string) ([]models.CarbonCredit, error) {
	if auditor.Role != models.RoleAuditor {
		return nil, models.ErrForbidden
	}
	switch tab {
	case "under_review":
		return s.store.Credits().ListByValidationStatus(ctx, models.ValidationUnderReview, auditor.ID)
	case "history":
		return s.store.Credits().ListValidatedBy(ctx, auditor.ID)
	default:
		return s.store.Credits().ListByValidationStatus(ctx, models.ValidationPending, "")
	}
}
