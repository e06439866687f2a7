package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"investcore/internal/accrual"
	"investcore/internal/clock"
	"investcore/internal/config"
	"investcore/internal/models"
	"investcore/internal/notifier"
	"investcore/internal/repository"
)

// LifecycleService owns every status transition on an investment: admin
// approval of pending purchases, pause/resume, the manual completion path,
// and the admin force-status escape hatch.
type LifecycleService struct {
	Repo     repository.Repository
	Notifier notifier.Notifier
	Clock    clock.Clock
	Config   config.AccrualConfig
	Logger   *zap.Logger
}

type CompletionResult struct {
	CreditedAmount decimal.Decimal `json:"credited_amount"`
	AccrualAmount  decimal.Decimal `json:"accrual_amount"`
	NewStatus      string          `json:"new_status"`
}

// Complete terminates one active or suspended investment on demand: credits
// principal plus the current cycle's accrual and marks it completed. Terminal;
// no new window is armed. Non-admin callers must own the record.
func (s *LifecycleService) Complete(ctx context.Context, investmentID, requesterID uint64, isAdmin bool) (*CompletionResult, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrNotFound
	}
	now := s.now()
	var (
		owner   uint64
		accrued decimal.Decimal
		total   decimal.Decimal
	)
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		inv, err := s.Repo.GetInvestmentForUpdateTx(ctx, tx, investmentID)
		if err != nil {
			return mapNotFound(err)
		}
		if !isAdmin && inv.OwnerID != requesterID {
			return ErrForbidden
		}
		if !inv.Accruable() {
			return ErrInvalidState
		}

		profile, err := s.Repo.GetProfileByIDTx(ctx, tx, inv.OwnerID)
		if err != nil {
			return fmt.Errorf("owner profile: %w", err)
		}
		accrued = accrual.Compute(inv.Principal, inv.ROIPct, profile.DefaultROIPct, s.defaultRate())

		// A sweep that already booked this window advanced cycle_end into the
		// future, so an existing event here means the cycle's return was
		// realized moments ago; pay out principal only.
		windowStart, windowEnd := now, now
		if inv.CycleStart != nil {
			windowStart = *inv.CycleStart
		}
		if inv.CycleEnd != nil {
			windowEnd = *inv.CycleEnd
		}
		exists, err := s.Repo.AccrualEventExistsTx(ctx, tx, inv.ID, windowEnd)
		if err != nil {
			return fmt.Errorf("accrual event check: %w", err)
		}
		if exists {
			accrued = decimal.Zero
		}

		total = inv.Principal.Add(accrued)
		if err := s.Repo.CreditBalanceTx(ctx, tx, inv.OwnerID, total, accrued); err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}
		if !exists {
			if err := s.Repo.InsertAccrualEventTx(ctx, tx, &models.AccrualEvent{
				InvestmentID: inv.ID,
				OwnerID:      inv.OwnerID,
				Reference:    inv.Reference,
				Amount:       accrued,
				Kind:         models.AccrualKindCompletion,
				CycleStart:   windowStart,
				CycleEnd:     windowEnd,
				ComputedAt:   now,
			}); err != nil {
				return fmt.Errorf("record accrual event: %w", err)
			}
		}
		if err := s.Repo.InsertTransactionTx(ctx, tx, &models.Transaction{
			OwnerID:   inv.OwnerID,
			Amount:    total,
			Kind:      models.TransactionKindCompletion,
			Reference: inv.Reference,
		}); err != nil {
			return fmt.Errorf("record transaction: %w", err)
		}
		if err := s.Repo.UpdateInvestmentTx(ctx, tx, inv.ID, map[string]any{
			"status": models.InvestmentStatusCompleted,
		}); err != nil {
			return fmt.Errorf("mark completed: %w", err)
		}
		owner = inv.OwnerID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.Emit(ctx, owner,
			"Investment completed",
			fmt.Sprintf("Principal and return of %s were credited to your balance.", total.StringFixed(2)),
			models.NotificationSeverityInfo,
			map[string]any{
				"investment_id": investmentID,
				"credited":      total.StringFixed(2),
			})
	}
	return &CompletionResult{
		CreditedAmount: total,
		AccrualAmount:  accrued,
		NewStatus:      models.InvestmentStatusCompleted,
	}, nil
}

// Approve activates a pending investment and arms its first cycle window.
func (s *LifecycleService) Approve(ctx context.Context, investmentID uint64) (*models.Investment, error) {
	now := s.now()
	var approved *models.Investment
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		inv, err := s.Repo.GetInvestmentForUpdateTx(ctx, tx, investmentID)
		if err != nil {
			return mapNotFound(err)
		}
		if inv.Status != models.InvestmentStatusPending {
			return ErrInvalidState
		}
		days := inv.CycleDays
		if days <= 0 {
			days = s.defaultCycleDays()
		}
		end := now.Add(time.Duration(days) * 24 * time.Hour)
		if err := s.Repo.UpdateInvestmentTx(ctx, tx, inv.ID, map[string]any{
			"status":      models.InvestmentStatusActive,
			"cycle_start": now,
			"cycle_end":   end,
		}); err != nil {
			return err
		}
		inv.Status = models.InvestmentStatusActive
		inv.CycleStart = &now
		inv.CycleEnd = &end
		approved = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.Notifier != nil {
		s.Notifier.Emit(ctx, approved.OwnerID,
			"Investment activated",
			"Your investment has been approved and its first cycle has started.",
			models.NotificationSeverityInfo,
			map[string]any{"investment_id": investmentID})
	}
	return approved, nil
}

// Reject declines a pending investment and refunds the debited principal.
func (s *LifecycleService) Reject(ctx context.Context, investmentID uint64) error {
	var owner uint64
	var refund decimal.Decimal
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		inv, err := s.Repo.GetInvestmentForUpdateTx(ctx, tx, investmentID)
		if err != nil {
			return mapNotFound(err)
		}
		if inv.Status != models.InvestmentStatusPending {
			return ErrInvalidState
		}
		if err := s.Repo.CreditBalanceTx(ctx, tx, inv.OwnerID, inv.Principal, decimal.Zero); err != nil {
			return fmt.Errorf("refund principal: %w", err)
		}
		if err := s.Repo.InsertTransactionTx(ctx, tx, &models.Transaction{
			OwnerID:   inv.OwnerID,
			Amount:    inv.Principal,
			Kind:      models.TransactionKindRefund,
			Reference: inv.Reference,
		}); err != nil {
			return fmt.Errorf("record refund: %w", err)
		}
		if err := s.Repo.UpdateInvestmentTx(ctx, tx, inv.ID, map[string]any{
			"status": models.InvestmentStatusRejected,
		}); err != nil {
			return err
		}
		owner = inv.OwnerID
		refund = inv.Principal
		return nil
	})
	if err != nil {
		return err
	}
	if s.Notifier != nil {
		s.Notifier.Emit(ctx, owner,
			"Investment rejected",
			fmt.Sprintf("Your investment was rejected and %s was returned to your balance.", refund.StringFixed(2)),
			models.NotificationSeverityWarning,
			map[string]any{"investment_id": investmentID})
	}
	return nil
}

// Suspend pauses an active investment without touching its window.
func (s *LifecycleService) Suspend(ctx context.Context, investmentID uint64) error {
	return s.transition(ctx, investmentID, models.InvestmentStatusActive, models.InvestmentStatusSuspended)
}

// Resume lifts a suspension; the window resumes where it was.
func (s *LifecycleService) Resume(ctx context.Context, investmentID uint64) error {
	return s.transition(ctx, investmentID, models.InvestmentStatusSuspended, models.InvestmentStatusActive)
}

func (s *LifecycleService) transition(ctx context.Context, investmentID uint64, from, to string) error {
	return s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		inv, err := s.Repo.GetInvestmentForUpdateTx(ctx, tx, investmentID)
		if err != nil {
			return mapNotFound(err)
		}
		if inv.Status != from {
			return ErrInvalidState
		}
		return s.Repo.UpdateInvestmentTx(ctx, tx, inv.ID, map[string]any{"status": to})
	})
}

// ForceStatus is the admin escape hatch: it sets any recognized status outside
// the normal lifecycle, and when forcing completed it credits the
// admin-supplied amount verbatim, bypassing the calculator. Every credit is
// still ledgered as an override event.
func (s *LifecycleService) ForceStatus(ctx context.Context, investmentID uint64, status string, overrideAmount *decimal.Decimal) error {
	if !models.ValidStatus(status) {
		return ErrInvalidStatus
	}
	now := s.now()
	var owner uint64
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		inv, err := s.Repo.GetInvestmentForUpdateTx(ctx, tx, investmentID)
		if err != nil {
			return mapNotFound(err)
		}
		if status == models.InvestmentStatusCompleted && overrideAmount != nil {
			amt := *overrideAmount
			if err := s.Repo.CreditBalanceTx(ctx, tx, inv.OwnerID, amt, amt); err != nil {
				return fmt.Errorf("credit override: %w", err)
			}
			windowStart, windowEnd := now, now
			if inv.CycleStart != nil {
				windowStart = *inv.CycleStart
			}
			if inv.CycleEnd != nil {
				windowEnd = *inv.CycleEnd
			}
			if err := s.Repo.InsertAccrualEventTx(ctx, tx, &models.AccrualEvent{
				InvestmentID: inv.ID,
				OwnerID:      inv.OwnerID,
				Reference:    inv.Reference,
				Amount:       amt,
				Kind:         models.AccrualKindOverride,
				CycleStart:   windowStart,
				CycleEnd:     windowEnd,
				ComputedAt:   now,
			}); err != nil {
				return fmt.Errorf("record override event: %w", err)
			}
			if err := s.Repo.InsertTransactionTx(ctx, tx, &models.Transaction{
				OwnerID:   inv.OwnerID,
				Amount:    amt,
				Kind:      models.TransactionKindAdjustment,
				Reference: inv.Reference,
			}); err != nil {
				return fmt.Errorf("record adjustment: %w", err)
			}
		}
		updates := map[string]any{"status": status}
		if status == models.InvestmentStatusActive && inv.CycleEnd == nil {
			days := inv.CycleDays
			if days <= 0 {
				days = s.defaultCycleDays()
			}
			updates["cycle_start"] = now
			updates["cycle_end"] = now.Add(time.Duration(days) * 24 * time.Hour)
		}
		if err := s.Repo.UpdateInvestmentTx(ctx, tx, inv.ID, updates); err != nil {
			return err
		}
		owner = inv.OwnerID
		return nil
	})
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("status override applied",
			zap.Uint64("investment_id", investmentID),
			zap.String("status", status),
			zap.Uint64("owner_id", owner),
		)
	}
	return nil
}

func (s *LifecycleService) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now().UTC()
}

func (s *LifecycleService) defaultRate() decimal.Decimal {
	if s.Config.DefaultROIPct > 0 {
		return decimal.NewFromFloat(s.Config.DefaultROIPct)
	}
	return decimal.NewFromInt(10)
}

func (s *LifecycleService) defaultCycleDays() int {
	if s.Config.DefaultCycleDays > 0 {
		return s.Config.DefaultCycleDays
	}
	return 7
}
