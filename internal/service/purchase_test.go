package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"investcore/internal/clock"
	"investcore/internal/models"
)

func newPurchase(repo *stubRepo, now time.Time) (*PurchaseService, *captureNotifier) {
	notify := &captureNotifier{}
	return &PurchaseService{
		Repo:     repo,
		Notifier: notify,
		Clock:    clock.Fixed{T: now},
		Config:   testAccrualConfig(),
	}, notify
}

func TestPurchaseDebitsAndCreatesPending(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.profiles[1] = &models.Profile{ID: 1, Balance: decimal.NewFromInt(500)}

	svc, notify := newPurchase(repo, now)
	item, err := svc.Purchase(context.Background(), 1, nil, decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if item.Status != models.InvestmentStatusPending {
		t.Fatalf("status=%s want=pending", item.Status)
	}
	if item.Reference == "" {
		t.Fatalf("reference not set")
	}
	if item.CycleStart != nil || item.CycleEnd != nil {
		t.Fatalf("pending investment must not carry a window")
	}
	if repo.profiles[1].Balance.Cmp(decimal.NewFromInt(300)) != 0 {
		t.Fatalf("balance=%s want=300", repo.profiles[1].Balance)
	}
	if len(repo.txns) != 1 || repo.txns[0].Kind != models.TransactionKindPurchase {
		t.Fatalf("txns=%+v want one purchase", repo.txns)
	}
	if repo.txns[0].Amount.Cmp(decimal.NewFromInt(-200)) != 0 {
		t.Fatalf("txn amount=%s want=-200", repo.txns[0].Amount)
	}
	if len(notify.emits) != 1 {
		t.Fatalf("notifications=%d want=1", len(notify.emits))
	}
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.profiles[1] = &models.Profile{ID: 1, Balance: decimal.NewFromInt(50)}

	svc, _ := newPurchase(repo, now)
	if _, err := svc.Purchase(context.Background(), 1, nil, decimal.NewFromInt(200)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err=%v want ErrInsufficientFunds", err)
	}
	if repo.profiles[1].Balance.Cmp(decimal.NewFromInt(50)) != 0 {
		t.Fatalf("balance=%s want unchanged", repo.profiles[1].Balance)
	}
	if len(repo.investments) != 0 {
		t.Fatalf("investments=%d want=0", len(repo.investments))
	}
}

func TestPurchaseRejectsNonPositiveAmount(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	svc, _ := newPurchase(repo, now)
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		if _, err := svc.Purchase(context.Background(), 1, nil, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount=%s err=%v want ErrInvalidAmount", amount, err)
		}
	}
}

func TestPurchaseFreezesPlanTerms(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.profiles[1] = &models.Profile{ID: 1, Balance: decimal.NewFromInt(1000)}
	repo.plans[7] = &models.Plan{
		ID:        7,
		Name:      "gold",
		MinAmount: decimal.NewFromInt(100),
		MaxAmount: decimal.NewFromInt(1000),
		ROIPct:    decimal.RequireFromString("12"),
		CycleDays: 30,
		Status:    models.PlanStatusActive,
	}

	svc, _ := newPurchase(repo, now)
	planID := uint64(7)
	item, err := svc.Purchase(context.Background(), 1, &planID, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if item.ROIPct == nil || item.ROIPct.Cmp(decimal.RequireFromString("12")) != 0 {
		t.Fatalf("roi_pct=%v want frozen at 12", item.ROIPct)
	}
	if item.CycleDays != 30 {
		t.Fatalf("cycle_days=%d want=30", item.CycleDays)
	}

	// Later plan edits must not reprice the in-flight record.
	repo.plans[7].ROIPct = decimal.RequireFromString("1")
	if repo.investments[item.ID].ROIPct.Cmp(decimal.RequireFromString("12")) != 0 {
		t.Fatalf("stored roi_pct changed after plan edit")
	}
}

func TestPurchaseEnforcesPlanRange(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.profiles[1] = &models.Profile{ID: 1, Balance: decimal.NewFromInt(5000)}
	repo.plans[7] = &models.Plan{
		ID:        7,
		Name:      "gold",
		MinAmount: decimal.NewFromInt(100),
		MaxAmount: decimal.NewFromInt(1000),
		ROIPct:    decimal.RequireFromString("12"),
		CycleDays: 30,
		Status:    models.PlanStatusActive,
	}

	svc, _ := newPurchase(repo, now)
	planID := uint64(7)
	for _, amount := range []decimal.Decimal{decimal.NewFromInt(50), decimal.NewFromInt(2000)} {
		if _, err := svc.Purchase(context.Background(), 1, &planID, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount=%s err=%v want ErrInvalidAmount", amount, err)
		}
	}
	if repo.profiles[1].Balance.Cmp(decimal.NewFromInt(5000)) != 0 {
		t.Fatalf("balance=%s want unchanged", repo.profiles[1].Balance)
	}
}

func TestPurchaseInactivePlan(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.profiles[1] = &models.Profile{ID: 1, Balance: decimal.NewFromInt(500)}
	repo.plans[7] = &models.Plan{
		ID:        7,
		Name:      "gold",
		MinAmount: decimal.NewFromInt(100),
		MaxAmount: decimal.NewFromInt(1000),
		ROIPct:    decimal.RequireFromString("12"),
		Status:    models.PlanStatusInactive,
	}

	svc, _ := newPurchase(repo, now)
	planID := uint64(7)
	if _, err := svc.Purchase(context.Background(), 1, &planID, decimal.NewFromInt(500)); !errors.Is(err, ErrPlanUnavailable) {
		t.Fatalf("err=%v want ErrPlanUnavailable", err)
	}

	missing := uint64(99)
	if _, err := svc.Purchase(context.Background(), 1, &missing, decimal.NewFromInt(500)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}
