package gormrepository

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"investcore/internal/models"
	"investcore/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Profiles ---------------------------------------------------------------

func (s *Store) GetProfileByID(ctx context.Context, id uint64) (*models.Profile, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Profile
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetProfileByIDTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Profile, error) {
	var item models.Profile
	if err := tx.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreditBalanceTx(ctx context.Context, tx *gorm.DB, ownerID uint64, balanceDelta, roiDelta decimal.Decimal) error {
	res := tx.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", ownerID).
		Updates(map[string]any{
			"balance":   gorm.Expr("balance + ?", balanceDelta),
			"total_roi": gorm.Expr("total_roi + ?", roiDelta),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) DebitBalanceTx(ctx context.Context, tx *gorm.DB, ownerID uint64, amount decimal.Decimal) (bool, error) {
	res := tx.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ? AND balance >= ?", ownerID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// --- Investments ------------------------------------------------------------

func (s *Store) GetInvestmentByID(ctx context.Context, id uint64) (*models.Investment, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Investment
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetInvestmentForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Investment, error) {
	var item models.Investment
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateInvestmentTx(ctx context.Context, tx *gorm.DB, item *models.Investment) error {
	if item == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateInvestmentTx(ctx context.Context, tx *gorm.DB, id uint64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := tx.WithContext(ctx).Model(&models.Investment{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) ListInvestments(ctx context.Context, params repository.ListInvestmentsParams) ([]models.Investment, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Investment{})
	if params.OwnerID != nil {
		query = query.Where("owner_id = ?", *params.OwnerID)
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Investment
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListMaturedInvestmentIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	limit = normalizeLimit(limit, 200)
	var ids []uint64
	if err := s.db.WithContext(ctx).Model(&models.Investment{}).
		Where("status = ?", models.InvestmentStatusActive).
		Where("cycle_end IS NOT NULL AND cycle_end <= ?", now).
		Order("cycle_end asc").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// --- Accrual events ---------------------------------------------------------

func (s *Store) AccrualEventExistsTx(ctx context.Context, tx *gorm.DB, investmentID uint64, cycleEnd time.Time) (bool, error) {
	var count int64
	if err := tx.WithContext(ctx).Model(&models.AccrualEvent{}).
		Where("investment_id = ? AND cycle_end = ?", investmentID, cycleEnd).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) InsertAccrualEventTx(ctx context.Context, tx *gorm.DB, item *models.AccrualEvent) error {
	if item == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (s *Store) ListAccrualEvents(ctx context.Context, params repository.ListAccrualEventsParams) ([]models.AccrualEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.AccrualEvent{})
	if params.OwnerID != nil {
		query = query.Where("owner_id = ?", *params.OwnerID)
	}
	if params.InvestmentID != nil {
		query = query.Where("investment_id = ?", *params.InvestmentID)
	}
	if params.Kind != nil && strings.TrimSpace(*params.Kind) != "" {
		query = query.Where("kind = ?", strings.TrimSpace(*params.Kind))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("computed_at >= ?", *params.Since)
	}
	query = applyOrder(query, params.OrderBy, params.Asc, "computed_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.AccrualEvent
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Transactions -----------------------------------------------------------

func (s *Store) InsertTransactionTx(ctx context.Context, tx *gorm.DB, item *models.Transaction) error {
	if item == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (s *Store) ListTransactions(ctx context.Context, params repository.ListTransactionsParams) ([]models.Transaction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Transaction{})
	if params.OwnerID != nil {
		query = query.Where("owner_id = ?", *params.OwnerID)
	}
	if params.Kind != nil && strings.TrimSpace(*params.Kind) != "" {
		query = query.Where("kind = ?", strings.TrimSpace(*params.Kind))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("created_at >= ?", *params.Since)
	}
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Transaction
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Notifications ----------------------------------------------------------

func (s *Store) InsertNotification(ctx context.Context, item *models.Notification) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

// --- Plans ------------------------------------------------------------------

func (s *Store) GetPlanByID(ctx context.Context, id uint64) (*models.Plan, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Plan
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListPlans(ctx context.Context, params repository.ListPlansParams) ([]models.Plan, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Plan{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Plan
	if err := query.Order("id asc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpsertPlan(ctx context.Context, item *models.Plan) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"min_amount",
			"max_amount",
			"roi_pct",
			"cycle_days",
			"status",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) SetPlanStatus(ctx context.Context, id uint64, status string) error {
	if s == nil || s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Plan{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// --- Sweep bookkeeping ------------------------------------------------------

func (s *Store) SaveSweepState(ctx context.Context, state *models.SweepState) error {
	if s == nil || s.db == nil || state == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_attempt_at",
			"last_success_at",
			"last_error",
			"stats_json",
		}),
	}).Create(state).Error
}

func (s *Store) GetSweepState(ctx context.Context, scope string) (*models.SweepState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SweepState
	if err := s.db.WithContext(ctx).First(&item, "scope = ?", scope).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSweepStates(ctx context.Context) ([]models.SweepState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SweepState
	if err := s.db.WithContext(ctx).
		Model(&models.SweepState{}).
		Order("scope asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
