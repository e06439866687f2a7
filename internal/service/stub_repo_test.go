package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"investcore/internal/models"
	"investcore/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// InTx hands the callback a nil handle; the Tx methods here mutate the maps
// directly, which is fine for single-goroutine tests.
type stubRepo struct {
	profiles    map[uint64]*models.Profile
	investments map[uint64]*models.Investment
	events      []models.AccrualEvent
	txns        []models.Transaction
	notes       []models.Notification
	plans       map[uint64]*models.Plan
	states      map[string]*models.SweepState

	nextInvID uint64

	// profileErr injects a per-owner failure into profile reads, to exercise
	// the sweeper's one-bad-record-does-not-abort-the-batch behavior.
	profileErr map[uint64]error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		profiles:    map[uint64]*models.Profile{},
		investments: map[uint64]*models.Investment{},
		plans:       map[uint64]*models.Plan{},
		states:      map[string]*models.SweepState{},
		profileErr:  map[uint64]error{},
		nextInvID:   1,
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) GetProfileByID(ctx context.Context, id uint64) (*models.Profile, error) {
	return s.GetProfileByIDTx(ctx, nil, id)
}

func (s *stubRepo) GetProfileByIDTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Profile, error) {
	if err := s.profileErr[id]; err != nil {
		return nil, err
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubRepo) CreditBalanceTx(ctx context.Context, tx *gorm.DB, ownerID uint64, balanceDelta, roiDelta decimal.Decimal) error {
	p, ok := s.profiles[ownerID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Balance = p.Balance.Add(balanceDelta)
	p.TotalROI = p.TotalROI.Add(roiDelta)
	return nil
}

func (s *stubRepo) DebitBalanceTx(ctx context.Context, tx *gorm.DB, ownerID uint64, amount decimal.Decimal) (bool, error) {
	p, ok := s.profiles[ownerID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if p.Balance.LessThan(amount) {
		return false, nil
	}
	p.Balance = p.Balance.Sub(amount)
	return true, nil
}

func (s *stubRepo) GetInvestmentByID(ctx context.Context, id uint64) (*models.Investment, error) {
	return s.GetInvestmentForUpdateTx(ctx, nil, id)
}

func (s *stubRepo) GetInvestmentForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Investment, error) {
	inv, ok := s.investments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *stubRepo) CreateInvestmentTx(ctx context.Context, tx *gorm.DB, item *models.Investment) error {
	item.ID = s.nextInvID
	s.nextInvID++
	cp := *item
	s.investments[item.ID] = &cp
	return nil
}

func (s *stubRepo) UpdateInvestmentTx(ctx context.Context, tx *gorm.DB, id uint64, updates map[string]any) error {
	inv, ok := s.investments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range updates {
		switch k {
		case "status":
			inv.Status = v.(string)
		case "cycle_start":
			t := v.(time.Time)
			inv.CycleStart = &t
		case "cycle_end":
			t := v.(time.Time)
			inv.CycleEnd = &t
		}
	}
	return nil
}

func (s *stubRepo) ListInvestments(ctx context.Context, params repository.ListInvestmentsParams) ([]models.Investment, error) {
	var out []models.Investment
	for _, inv := range s.investments {
		if params.OwnerID != nil && inv.OwnerID != *params.OwnerID {
			continue
		}
		if params.Status != nil && inv.Status != *params.Status {
			continue
		}
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubRepo) ListMaturedInvestmentIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	var ids []uint64
	for _, inv := range s.investments {
		if inv.Status != models.InvestmentStatusActive || inv.CycleEnd == nil {
			continue
		}
		if inv.CycleEnd.After(now) {
			continue
		}
		ids = append(ids, inv.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *stubRepo) AccrualEventExistsTx(ctx context.Context, tx *gorm.DB, investmentID uint64, cycleEnd time.Time) (bool, error) {
	for _, ev := range s.events {
		if ev.InvestmentID == investmentID && ev.CycleEnd.Equal(cycleEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) InsertAccrualEventTx(ctx context.Context, tx *gorm.DB, item *models.AccrualEvent) error {
	item.ID = uint64(len(s.events) + 1)
	s.events = append(s.events, *item)
	return nil
}

func (s *stubRepo) ListAccrualEvents(ctx context.Context, params repository.ListAccrualEventsParams) ([]models.AccrualEvent, error) {
	var out []models.AccrualEvent
	for _, ev := range s.events {
		if params.OwnerID != nil && ev.OwnerID != *params.OwnerID {
			continue
		}
		if params.Kind != nil && ev.Kind != *params.Kind {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *stubRepo) InsertTransactionTx(ctx context.Context, tx *gorm.DB, item *models.Transaction) error {
	item.ID = uint64(len(s.txns) + 1)
	s.txns = append(s.txns, *item)
	return nil
}

func (s *stubRepo) ListTransactions(ctx context.Context, params repository.ListTransactionsParams) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tr := range s.txns {
		if params.OwnerID != nil && tr.OwnerID != *params.OwnerID {
			continue
		}
		if params.Kind != nil && tr.Kind != *params.Kind {
			continue
		}
		out = append(out, tr)
	}
	return out, nil
}

func (s *stubRepo) InsertNotification(ctx context.Context, item *models.Notification) error {
	s.notes = append(s.notes, *item)
	return nil
}

func (s *stubRepo) GetPlanByID(ctx context.Context, id uint64) (*models.Plan, error) {
	p, ok := s.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubRepo) ListPlans(ctx context.Context, params repository.ListPlansParams) ([]models.Plan, error) {
	var out []models.Plan
	for _, p := range s.plans {
		if params.Status != nil && p.Status != *params.Status {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubRepo) UpsertPlan(ctx context.Context, item *models.Plan) error {
	if item.ID == 0 {
		item.ID = uint64(len(s.plans) + 1)
	}
	cp := *item
	s.plans[item.ID] = &cp
	return nil
}

func (s *stubRepo) SetPlanStatus(ctx context.Context, id uint64, status string) error {
	p, ok := s.plans[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Status = status
	return nil
}

func (s *stubRepo) SaveSweepState(ctx context.Context, state *models.SweepState) error {
	cp := *state
	s.states[state.Scope] = &cp
	return nil
}

func (s *stubRepo) GetSweepState(ctx context.Context, scope string) (*models.SweepState, error) {
	st, ok := s.states[scope]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *stubRepo) ListSweepStates(ctx context.Context) ([]models.SweepState, error) {
	var out []models.SweepState
	for _, st := range s.states {
		out = append(out, *st)
	}
	return out, nil
}

// captureNotifier records emits so tests can assert on them.
type captureNotifier struct {
	mu     sync.Mutex
	emits  []string
	owners []uint64
}

func (n *captureNotifier) Emit(ctx context.Context, ownerID uint64, title, message, severity string, metadata map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emits = append(n.emits, title)
	n.owners = append(n.owners, ownerID)
}

// heldLock always reports the lease as taken by someone else.
type heldLock struct{}

func (heldLock) Acquire(ctx context.Context) (func(), bool, error) {
	return func() {}, false, nil
}
