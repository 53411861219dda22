// Package memory provides an in-process Store used by tests and local
// development. WithTx serializes atomic units behind a mutex and restores a
// snapshot on error, mirroring the row-lock-then-commit behavior of the
// postgres store closely enough to exercise the purchase orchestrator.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecotrade/ecotrade-backend/internal/models"
	repo "github.com/ecotrade/ecotrade-backend/internal/repository"
)

type state struct {
	users        map[string]models.User
	wallets      map[string]models.Wallet
	credits      map[string]models.CarbonCredit
	listings     map[string]models.CreditListing
	transactions []models.Transaction
	ownership    []models.OwnershipEntry
	auditLogs    []models.AuditLog
}

func (s *state) clone() *state {
	c := &state{
		users:        make(map[string]models.User, len(s.users)),
		wallets:      make(map[string]models.Wallet, len(s.wallets)),
		credits:      make(map[string]models.CarbonCredit, len(s.credits)),
		listings:     make(map[string]models.CreditListing, len(s.listings)),
		transactions: append([]models.Transaction(nil), s.transactions...),
		ownership:    append([]models.OwnershipEntry(nil), s.ownership...),
		auditLogs:    append([]models.AuditLog(nil), s.auditLogs...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.credits {
		c.credits[k] = v
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	return c
}

type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	st   *state
	inTx bool
}

func NewStore() *Store {
	return &Store{st: &state{
		users:    map[string]models.User{},
		wallets:  map[string]models.Wallet{},
		credits:  map[string]models.CarbonCredit{},
		listings: map[string]models.CreditListing{},
	}}
}

func (s *Store) Users() repo.Users               { return &usersRepo{s} }
func (s *Store) Wallets() repo.Wallets           { return &walletsRepo{s} }
func (s *Store) Credits() repo.Credits           { return &creditsRepo{s} }
func (s *Store) Listings() repo.Listings         { return &listingsRepo{s} }
func (s *Store) Transactions() repo.Transactions { return &transactionsRepo{s} }
func (s *Store) Ownership() repo.Ownership       { return &ownershipRepo{s} }
func (s *Store) AuditLogs() repo.AuditLogs       { return &auditLogsRepo{s} }

// WithTx serializes atomic units: the second concurrent caller blocks until
// the first commits or rolls back, then re-reads fresh state.
func (s *Store) WithTx(ctx context.Context, fn func(repo.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(&Store{st: snapshot, inTx: true}); err != nil {
		return err
	}
	s.mu.Lock()
	s.st = snapshot
	s.mu.Unlock()
	return nil
}

func (s *Store) do(fn func(st *state) error) error {
	if s.inTx {
		return fn(s.st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// ---------------- users ----------------

type usersRepo struct{ s *Store }

func (r *usersRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	err := r.s.do(func(st *state) error {
		st.users[u.ID] = u
		return nil
	})
	return u, err
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	var out models.User
	err := r.s.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repo.ErrNotFound
		}
		out = u
		return nil
	})
	return out, err
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *usersRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *usersRepo) find(match func(models.User) bool) (models.User, error) {
	var out models.User
	err := r.s.do(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				out = u
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (r *usersRepo) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	_ = r.s.do(func(st *state) error {
		for _, u := range st.users {
			out = append(out, u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---------------- wallets ----------------

type walletsRepo struct{ s *Store }

func (r *walletsRepo) GetOrCreate(ctx context.Context, userID string) (models.Wallet, error) {
	var out models.Wallet
	err := r.s.do(func(st *state) error {
		w, ok := st.wallets[userID]
		if !ok {
			w = models.Wallet{UserID: userID, Balance: decimal.Zero, LastUpdatedAt: time.Now()}
			st.wallets[userID] = w
		}
		out = w
		return nil
	})
	return out, err
}

func (r *walletsRepo) Get(ctx context.Context, userID string) (models.Wallet, error) {
	var out models.Wallet
	err := r.s.do(func(st *state) error {
		w, ok := st.wallets[userID]
		if !ok {
			return repo.ErrNotFound
		}
		out = w
		return nil
	})
	return out, err
}

func (r *walletsRepo) GetForUpdate(ctx context.Context, userID string) (models.Wallet, error) {
	// Transactions are already fully serialized by WithTx.
	return r.GetOrCreate(ctx, userID)
}

func (r *walletsRepo) Add(ctx context.Context, userID string, amount decimal.Decimal) (models.Wallet, error) {
	return r.adjust(userID, amount)
}

func (r *walletsRepo) Deduct(ctx context.Context, userID string, amount decimal.Decimal) (models.Wallet, error) {
	var out models.Wallet
	err := r.s.do(func(st *state) error {
		w, ok := st.wallets[userID]
		if !ok || w.Balance.LessThan(amount) {
			return models.ErrInsufficientFunds
		}
		w.Balance = w.Balance.Sub(amount)
		w.LastUpdatedAt = time.Now()
		st.wallets[userID] = w
		out = w
		return nil
	})
	return out, err
}

func (r *walletsRepo) adjust(userID string, delta decimal.Decimal) (models.Wallet, error) {
	var out models.Wallet
	err := r.s.do(func(st *state) error {
		w, ok := st.wallets[userID]
		if !ok {
			return repo.ErrNotFound
		}
		w.Balance = w.Balance.Add(delta)
		w.LastUpdatedAt = time.Now()
		st.wallets[userID] = w
		out = w
		return nil
	})
	return out, err
}

// ---------------- credits ----------------

type creditsRepo struct{ s *Store }

func (r *creditsRepo) Create(ctx context.Context, c models.CarbonCredit) (models.CarbonCredit, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	err := r.s.do(func(st *state) error {
		st.credits[c.ID] = c
		return nil
	})
	return c, err
}

func (r *creditsRepo) get(id string, includeDeleted bool) (models.CarbonCredit, error) {
	var out models.CarbonCredit
	err := r.s.do(func(st *state) error {
		c, ok := st.credits[id]
		if !ok || (c.IsDeleted && !includeDeleted) {
			return repo.ErrNotFound
		}
		out = c
		return nil
	})
	return out, err
}

func (r *creditsRepo) GetByID(ctx context.Context, id string) (models.CarbonCredit, error) {
	return r.get(id, false)
}

func (r *creditsRepo) GetByIDForUpdate(ctx context.Context, id string) (models.CarbonCredit, error) {
	return r.get(id, false)
}

func (r *creditsRepo) GetByIDAny(ctx context.Context, id string) (models.CarbonCredit, error) {
	return r.get(id, true)
}

func (r *creditsRepo) Update(ctx context.Context, c models.CarbonCredit) error {
	return r.s.do(func(st *state) error {
		cur, ok := st.credits[c.ID]
		if !ok {
			return repo.ErrNotFound
		}
		c.CreatedAt = cur.CreatedAt
		c.IsDeleted = cur.IsDeleted
		st.credits[c.ID] = c
		return nil
	})
}

func (r *creditsRepo) SoftDelete(ctx context.Context, id string) error {
	return r.s.do(func(st *state) error {
		c, ok := st.credits[id]
		if !ok {
			return repo.ErrNotFound
		}
		c.IsDeleted = true
		st.credits[id] = c
		return nil
	})
}

func (r *creditsRepo) list(match func(models.CarbonCredit) bool) []models.CarbonCredit {
	var out []models.CarbonCredit
	_ = r.s.do(func(st *state) error {
		for _, c := range st.credits {
			if !c.IsDeleted && match(c) {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *creditsRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.CarbonCredit, error) {
	return r.list(func(c models.CarbonCredit) bool { return c.OwnerID == ownerID }), nil
}

func (r *creditsRepo) ListByValidationStatus(ctx context.Context, vs models.ValidationStatus, validatedBy string) ([]models.CarbonCredit, error) {
	return r.list(func(c models.CarbonCredit) bool {
		if c.ValidationStatus != vs {
			return false
		}
		return validatedBy == "" || (c.ValidatedByID != nil && *c.ValidatedByID == validatedBy)
	}), nil
}

func (r *creditsRepo) ListValidatedBy(ctx context.Context, auditorID string) ([]models.CarbonCredit, error) {
	return r.list(func(c models.CarbonCredit) bool {
		terminal := c.ValidationStatus == models.ValidationApproved || c.ValidationStatus == models.ValidationRejected
		return terminal && c.ValidatedByID != nil && *c.ValidatedByID == auditorID
	}), nil
}

func (r *creditsRepo) ListApproved(ctx context.Context, f repo.CreditFilter) ([]models.CarbonCredit, int, error) {
	all := r.list(func(c models.CarbonCredit) bool {
		if c.ValidationStatus != models.ValidationApproved {
			return false
		}
		return f.Status == nil || c.Status == *f.Status
	})
	total := len(all)
	if f.Offset >= len(all) {
		return nil, total, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, total, nil
}

// ---------------- listings ----------------

type listingsRepo struct{ s *Store }

func (r *listingsRepo) Create(ctx context.Context, l models.CreditListing) (models.CreditListing, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.ListedAt = time.Now()
	err := r.s.do(func(st *state) error {
		if l.IsActive {
			for _, other := range st.listings {
				if other.CreditID == l.CreditID && other.IsActive {
					return models.ErrDuplicateListing
				}
			}
		}
		st.listings[l.ID] = l
		return nil
	})
	return l, err
}

func (r *listingsRepo) GetActiveByCredit(ctx context.Context, creditID string) (models.CreditListing, error) {
	var out models.CreditListing
	err := r.s.do(func(st *state) error {
		for _, l := range st.listings {
			if l.CreditID == creditID && l.IsActive {
				out = l
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (r *listingsRepo) Deactivate(ctx context.Context, id string) error {
	return r.s.do(func(st *state) error {
		l, ok := st.listings[id]
		if !ok {
			return repo.ErrNotFound
		}
		l.IsActive = false
		st.listings[id] = l
		return nil
	})
}

func (r *listingsRepo) ListActive(ctx context.Context, limit, offset int) ([]models.MarketItem, error) {
	var out []models.MarketItem
	_ = r.s.do(func(st *state) error {
		for _, l := range st.listings {
			if !l.IsActive {
				continue
			}
			c, ok := st.credits[l.CreditID]
			if !ok || c.IsDeleted || c.Status != models.TradingListed {
				continue
			}
			out = append(out, models.MarketItem{Listing: l, Credit: c})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Listing.ListedAt.After(out[j].Listing.ListedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ---------------- transactions ----------------

type transactionsRepo struct{ s *Store }

func (r *transactionsRepo) Create(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now()
	err := r.s.do(func(st *state) error {
		st.transactions = append(st.transactions, t)
		return nil
	})
	return t, err
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	var out models.Transaction
	err := r.s.do(func(st *state) error {
		for _, t := range st.transactions {
			if t.ID == id {
				out = t
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (r *transactionsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	var out []models.Transaction
	_ = r.s.do(func(st *state) error {
		for i := len(st.transactions) - 1; i >= 0; i-- {
			t := st.transactions[i]
			if t.BuyerID == userID || t.SellerID == userID {
				out = append(out, t)
			}
		}
		return nil
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *transactionsRepo) LatestCompleted(ctx context.Context, creditID, buyerID string) (models.Transaction, error) {
	var out models.Transaction
	err := r.s.do(func(st *state) error {
		for i := len(st.transactions) - 1; i >= 0; i-- {
			t := st.transactions[i]
			if t.CreditID == creditID && t.BuyerID == buyerID && t.Status == models.TxnCompleted {
				out = t
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

// ---------------- ownership ----------------

type ownershipRepo struct{ s *Store }

func (r *ownershipRepo) Append(ctx context.Context, e models.OwnershipEntry) (models.OwnershipEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now()
	err := r.s.do(func(st *state) error {
		st.ownership = append(st.ownership, e)
		return nil
	})
	return e, err
}

func (r *ownershipRepo) Last(ctx context.Context, creditID string) (models.OwnershipEntry, error) {
	var out models.OwnershipEntry
	err := r.s.do(func(st *state) error {
		for i := len(st.ownership) - 1; i >= 0; i-- {
			if st.ownership[i].CreditID == creditID {
				out = st.ownership[i]
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (r *ownershipRepo) ListByCredit(ctx context.Context, creditID string) ([]models.OwnershipEntry, error) {
	var out []models.OwnershipEntry
	_ = r.s.do(func(st *state) error {
		for _, e := range st.ownership {
			if e.CreditID == creditID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, nil
}

// ---------------- audit logs ----------------

type auditLogsRepo struct{ s *Store }

func (r *auditLogsRepo) Create(ctx context.Context, l models.AuditLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now()
	return r.s.do(func(st *state) error {
		st.auditLogs = append(st.auditLogs, l)
		return nil
	})
}
