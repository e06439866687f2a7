package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"investcore/internal/accrual"
	"investcore/internal/clock"
	"investcore/internal/config"
	"investcore/internal/lock"
	"investcore/internal/models"
	"investcore/internal/notifier"
	"investcore/internal/repository"
)

const sweepScope = "maturity"

var (
	sweepProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "investcore_sweep_processed_total",
		Help: "Investments renewed by the maturity sweeper",
	})
	sweepFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "investcore_sweep_failed_total",
		Help: "Investments that failed during a sweep run",
	})
	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "investcore_sweep_duration_seconds",
		Help:    "Wall time of full sweep runs",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 30, 120},
	})
)

// errSweepSkip marks a record that was matured when enumerated but no longer
// eligible once locked (raced with a manual completion or a concurrent run).
var errSweepSkip = errors.New("no longer eligible")

type SweepError struct {
	InvestmentID uint64 `json:"investment_id"`
	Reason       string `json:"reason"`
}

type SweepResult struct {
	Processed int          `json:"processed"`
	Failed    int          `json:"failed"`
	Skipped   bool         `json:"skipped,omitempty"`
	Errors    []SweepError `json:"errors,omitempty"`
}

// Sweeper finds every active investment whose cycle window has elapsed,
// credits the accrued return, and re-arms the next cycle. Each record is
// processed in its own transaction; one failure never aborts the batch.
type Sweeper struct {
	Repo     repository.Repository
	Notifier notifier.Notifier
	Clock    clock.Clock
	Lock     lock.SweepLock
	Config   config.AccrualConfig
	Logger   *zap.Logger
}

func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	if s == nil || s.Repo == nil {
		return SweepResult{}, nil
	}
	timer := prometheus.NewTimer(sweepDuration)
	defer timer.ObserveDuration()

	lk := s.Lock
	if lk == nil {
		lk = lock.Noop()
	}
	release, ok, err := lk.Acquire(ctx)
	if err != nil {
		s.logWarn("sweep lock acquire failed", err)
		return SweepResult{Skipped: true}, err
	}
	if !ok {
		if s.Logger != nil {
			s.Logger.Info("sweep skipped, another run holds the lease")
		}
		return SweepResult{Skipped: true}, nil
	}
	defer release()

	now := s.now()
	batch := s.Config.SweepBatchSize
	if batch <= 0 {
		batch = 200
	}

	var result SweepResult
	attempted := map[uint64]struct{}{}
	for {
		ids, err := s.Repo.ListMaturedInvestmentIDs(ctx, now, batch)
		if err != nil {
			s.logWarn("sweep enumeration failed", err)
			s.saveState(ctx, now, result, err)
			return result, err
		}
		progress := false
		for _, id := range ids {
			if _, seen := attempted[id]; seen {
				continue
			}
			attempted[id] = struct{}{}
			progress = true

			if err := s.renewOne(ctx, id, now); err != nil {
				if errors.Is(err, errSweepSkip) {
					continue
				}
				result.Failed++
				result.Errors = append(result.Errors, SweepError{InvestmentID: id, Reason: err.Error()})
				sweepFailedTotal.Inc()
				s.logWarn("sweep record failed", err, zap.Uint64("investment_id", id))
				continue
			}
			result.Processed++
			sweepProcessedTotal.Inc()
		}
		if !progress || len(ids) < batch {
			break
		}
	}

	if s.Logger != nil {
		s.Logger.Info("sweep finished",
			zap.Int("processed", result.Processed),
			zap.Int("failed", result.Failed),
		)
	}
	s.saveState(ctx, now, result, nil)
	return result, nil
}

// renewOne closes out one matured window: credit balance and total_roi,
// record the accrual event, advance the cycle. All inside a single
// transaction with the investment row locked, so a crash or a racing run can
// never credit the same window twice.
func (s *Sweeper) renewOne(ctx context.Context, id uint64, now time.Time) error {
	var (
		owner  uint64
		amount decimal.Decimal
		window time.Time
	)
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		inv, err := s.Repo.GetInvestmentForUpdateTx(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errSweepSkip
			}
			return fmt.Errorf("lock investment: %w", err)
		}
		if inv.Status != models.InvestmentStatusActive || inv.CycleEnd == nil || inv.CycleEnd.After(now) {
			return errSweepSkip
		}

		exists, err := s.Repo.AccrualEventExistsTx(ctx, tx, inv.ID, *inv.CycleEnd)
		if err != nil {
			return fmt.Errorf("accrual event check: %w", err)
		}

		cycleStart := now
		if inv.CycleStart != nil {
			cycleStart = *inv.CycleStart
		}

		if !exists {
			profile, err := s.Repo.GetProfileByIDTx(ctx, tx, inv.OwnerID)
			if err != nil {
				return fmt.Errorf("owner profile: %w", err)
			}
			amount = accrual.Compute(inv.Principal, inv.ROIPct, profile.DefaultROIPct, s.defaultRate())
			if err := s.Repo.CreditBalanceTx(ctx, tx, inv.OwnerID, amount, amount); err != nil {
				return fmt.Errorf("credit balance: %w", err)
			}
			if err := s.Repo.InsertAccrualEventTx(ctx, tx, &models.AccrualEvent{
				InvestmentID: inv.ID,
				OwnerID:      inv.OwnerID,
				Reference:    inv.Reference,
				Amount:       amount,
				Kind:         models.AccrualKindRenewal,
				CycleStart:   cycleStart,
				CycleEnd:     *inv.CycleEnd,
				ComputedAt:   now,
			}); err != nil {
				return fmt.Errorf("record accrual event: %w", err)
			}
			if err := s.Repo.InsertTransactionTx(ctx, tx, &models.Transaction{
				OwnerID:   inv.OwnerID,
				Amount:    amount,
				Kind:      models.TransactionKindAccrual,
				Reference: inv.Reference,
			}); err != nil {
				return fmt.Errorf("record transaction: %w", err)
			}
		}

		// An existing event for this window means a prior run credited it but
		// died before advancing the cycle; just re-arm.
		days := inv.CycleDays
		if days <= 0 {
			days = s.defaultCycleDays()
		}
		next := now.Add(time.Duration(days) * 24 * time.Hour)
		if err := s.Repo.UpdateInvestmentTx(ctx, tx, inv.ID, map[string]any{
			"cycle_start": now,
			"cycle_end":   next,
		}); err != nil {
			return fmt.Errorf("advance cycle: %w", err)
		}

		owner = inv.OwnerID
		window = *inv.CycleEnd
		return nil
	})
	if err != nil {
		return err
	}

	if s.Notifier != nil && amount.IsPositive() {
		s.Notifier.Emit(ctx, owner,
			"Investment return credited",
			fmt.Sprintf("Your investment earned %s this cycle.", amount.StringFixed(2)),
			models.NotificationSeverityInfo,
			map[string]any{
				"investment_id": id,
				"amount":        amount.StringFixed(2),
				"cycle_end":     window.Format(time.RFC3339),
			})
	}
	return nil
}

func (s *Sweeper) saveState(ctx context.Context, startedAt time.Time, result SweepResult, runErr error) {
	now := s.now()
	state := &models.SweepState{
		Scope:         sweepScope,
		LastAttemptAt: &startedAt,
	}
	if runErr == nil {
		state.LastSuccessAt = &now
	} else {
		msg := runErr.Error()
		state.LastError = &msg
	}
	if raw, err := json.Marshal(result); err == nil {
		state.StatsJSON = datatypes.JSON(raw)
	}
	if err := s.Repo.SaveSweepState(ctx, state); err != nil {
		s.logWarn("save sweep state failed", err)
	}
}

func (s *Sweeper) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now().UTC()
}

func (s *Sweeper) defaultRate() decimal.Decimal {
	if s.Config.DefaultROIPct > 0 {
		return decimal.NewFromFloat(s.Config.DefaultROIPct)
	}
	return decimal.NewFromInt(10)
}

func (s *Sweeper) defaultCycleDays() int {
	if s.Config.DefaultCycleDays > 0 {
		return s.Config.DefaultCycleDays
	}
	return 7
}

func (s *Sweeper) logWarn(msg string, err error, fields ...zap.Field) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, append(fields, zap.Error(err))...)
}
