package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"investcore/internal/clock"
	"investcore/internal/config"
	"investcore/internal/models"
	"investcore/internal/notifier"
	"investcore/internal/repository"
)

// PurchaseService turns liquid balance into a pending investment. The debit
// and the insert commit together; an investment never exists without its
// funding having left the balance.
type PurchaseService struct {
	Repo     repository.Repository
	Notifier notifier.Notifier
	Clock    clock.Clock
	Config   config.AccrualConfig
	Logger   *zap.Logger
}

func (s *PurchaseService) Purchase(ctx context.Context, ownerID uint64, planID *uint64, amount decimal.Decimal) (*models.Investment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var rate *decimal.Decimal
	cycleDays := s.Config.DefaultCycleDays
	if cycleDays <= 0 {
		cycleDays = 7
	}
	if planID != nil {
		plan, err := s.Repo.GetPlanByID(ctx, *planID)
		if err != nil {
			return nil, mapNotFound(err)
		}
		if plan.Status != models.PlanStatusActive {
			return nil, ErrPlanUnavailable
		}
		if amount.LessThan(plan.MinAmount) || amount.GreaterThan(plan.MaxAmount) {
			return nil, fmt.Errorf("%w: amount outside plan range %s-%s",
				ErrInvalidAmount, plan.MinAmount.StringFixed(2), plan.MaxAmount.StringFixed(2))
		}
		// Freeze the plan's terms into the record; later plan edits must not
		// reprice an in-flight investment.
		r := plan.ROIPct
		rate = &r
		cycleDays = plan.CycleDays
	}

	item := &models.Investment{
		OwnerID:   ownerID,
		PlanID:    planID,
		Reference: uuid.NewString(),
		Principal: amount,
		ROIPct:    rate,
		CycleDays: cycleDays,
		Status:    models.InvestmentStatusPending,
	}

	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.Repo.DebitBalanceTx(ctx, tx, ownerID, amount)
		if err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}
		if !ok {
			return ErrInsufficientFunds
		}
		if err := s.Repo.CreateInvestmentTx(ctx, tx, item); err != nil {
			return fmt.Errorf("create investment: %w", err)
		}
		return s.Repo.InsertTransactionTx(ctx, tx, &models.Transaction{
			OwnerID:   ownerID,
			Amount:    amount.Neg(),
			Kind:      models.TransactionKindPurchase,
			Reference: item.Reference,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.Emit(ctx, ownerID,
			"Investment submitted",
			fmt.Sprintf("Your investment of %s is awaiting approval.", amount.StringFixed(2)),
			models.NotificationSeverityInfo,
			map[string]any{"investment_id": item.ID, "reference": item.Reference})
	}
	if s.Logger != nil {
		s.Logger.Info("investment purchased",
			zap.Uint64("owner_id", ownerID),
			zap.Uint64("investment_id", item.ID),
			zap.String("amount", amount.StringFixed(2)),
		)
	}
	return item, nil
}
