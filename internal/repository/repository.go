package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"investcore/internal/models"
)

// Repository is the persistence surface the accrual engine runs against.
// Methods with a Tx suffix must be called inside an InTx callback and operate
// on the supplied transaction handle, so one investment's credit, ledger
// entry, and window mutation commit or roll back together.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Profiles.
	GetProfileByID(ctx context.Context, id uint64) (*models.Profile, error)
	GetProfileByIDTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Profile, error)
	// CreditBalanceTx applies relative deltas to balance and total_roi in one
	// statement. Never read-modify-write.
	CreditBalanceTx(ctx context.Context, tx *gorm.DB, ownerID uint64, balanceDelta, roiDelta decimal.Decimal) error
	// DebitBalanceTx subtracts amount only when the balance covers it;
	// returns false when it does not.
	DebitBalanceTx(ctx context.Context, tx *gorm.DB, ownerID uint64, amount decimal.Decimal) (bool, error)

	// Investments.
	GetInvestmentByID(ctx context.Context, id uint64) (*models.Investment, error)
	GetInvestmentForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Investment, error)
	CreateInvestmentTx(ctx context.Context, tx *gorm.DB, item *models.Investment) error
	UpdateInvestmentTx(ctx context.Context, tx *gorm.DB, id uint64, updates map[string]any) error
	ListInvestments(ctx context.Context, params ListInvestmentsParams) ([]models.Investment, error)
	// ListMaturedInvestmentIDs returns active investments whose window has
	// elapsed. IDs only; each record is then re-read under lock in its own
	// transaction.
	ListMaturedInvestmentIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error)

	// Accrual events.
	AccrualEventExistsTx(ctx context.Context, tx *gorm.DB, investmentID uint64, cycleEnd time.Time) (bool, error)
	InsertAccrualEventTx(ctx context.Context, tx *gorm.DB, item *models.AccrualEvent) error
	ListAccrualEvents(ctx context.Context, params ListAccrualEventsParams) ([]models.AccrualEvent, error)

	// Transactions (balance-movement history).
	InsertTransactionTx(ctx context.Context, tx *gorm.DB, item *models.Transaction) error
	ListTransactions(ctx context.Context, params ListTransactionsParams) ([]models.Transaction, error)

	// Notifications are inserted outside the financial transaction;
	// best-effort by contract.
	InsertNotification(ctx context.Context, item *models.Notification) error

	// Plans.
	GetPlanByID(ctx context.Context, id uint64) (*models.Plan, error)
	ListPlans(ctx context.Context, params ListPlansParams) ([]models.Plan, error)
	UpsertPlan(ctx context.Context, item *models.Plan) error
	SetPlanStatus(ctx context.Context, id uint64, status string) error

	// Sweep bookkeeping.
	SaveSweepState(ctx context.Context, state *models.SweepState) error
	GetSweepState(ctx context.Context, scope string) (*models.SweepState, error)
	ListSweepStates(ctx context.Context) ([]models.SweepState, error)
}

type ListInvestmentsParams struct {
	Limit   int
	Offset  int
	OwnerID *uint64
	Status  *string
	OrderBy string
	Asc     *bool
}

type ListAccrualEventsParams struct {
	Limit        int
	Offset       int
	OwnerID      *uint64
	InvestmentID *uint64
	Kind         *string
	Since        *time.Time
	OrderBy      string
	Asc          *bool
}

type ListTransactionsParams struct {
	Limit   int
	Offset  int
	OwnerID *uint64
	Kind    *string
	Since   *time.Time
	OrderBy string
	Asc     *bool
}

type ListPlansParams struct {
	Limit  int
	Offset int
	Status *string
}
